package shared

import "strings"

// Roles asserted by the gateway.
const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
)

var rolePermissions = map[string][]string{
	RoleAdmin:   FinanceScopes(),
	RoleFinance: {PermFinanceOverviewView},
}

// PermissionsForRoles resolves the union of permissions granted to roles.
// Unknown roles grant nothing.
func PermissionsForRoles(roles []string) []string {
	seen := make(map[string]struct{})
	var perms []string
	for _, role := range roles {
		for _, perm := range rolePermissions[strings.ToLower(strings.TrimSpace(role))] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			perms = append(perms, perm)
		}
	}
	return perms
}
