package rbac

import (
	"context"
	"strings"
)

// Permission is "<resource>:<action>". A trailing "*" in a granted
// permission matches every action with that prefix.
type Permission string

type Checker struct {
	RolePermissions map[string][]Permission
}

func NewChecker(rp map[string][]Permission) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role string, perm Permission) bool {
	for _, p := range c.RolePermissions[role] {
		if p.Matches(perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...Permission) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Matches reports whether the granted permission p covers perm.
func (p Permission) Matches(perm Permission) bool {
	if p == "*" || p == perm {
		return true
	}
	if prefix, ok := strings.CutSuffix(string(p), "*"); ok {
		return strings.HasPrefix(string(perm), prefix)
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
