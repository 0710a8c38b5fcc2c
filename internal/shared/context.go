package shared

import (
	"context"
	"strings"
)

// Principal is the caller identity forwarded by the gateway.
type Principal struct {
	UserID string
	Roles  []string
}

// Can reports whether any of the principal's roles grants perm.
func (p *Principal) Can(perm string) bool {
	if p == nil {
		return false
	}
	for _, granted := range PermissionsForRoles(p.Roles) {
		if strings.EqualFold(granted, perm) {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
