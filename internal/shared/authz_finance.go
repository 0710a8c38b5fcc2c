package shared

// Finance permissions enforced by the admin API.
const (
	PermFinanceOverviewView = "finance.overview.view"
	PermFinanceCacheManage  = "finance.cache.manage"
)

// FinanceScopes lists all permissions related to the finance module.
func FinanceScopes() []string {
	return []string{
		PermFinanceOverviewView,
		PermFinanceCacheManage,
	}
}
