package auth

import (
	"net/http"
	"slices"

	apperrors "paperless/internal/errors"
	"paperless/internal/model"
)

// Rule restricts a route to a set of roles.
type Rule struct {
	Method string
	Path   string
	Roles  []model.Role
	// Denied, when set, replaces ErrForbidden for callers with the wrong role.
	Denied error
}

// Policy maps "METHOD path" to the rule guarding it. Paths are echo route
// patterns such as /api/documents/:id/approve.
type Policy map[string]Rule

// NewPolicy indexes rules by method and path.
func NewPolicy(rules ...Rule) Policy {
	p := make(Policy, len(rules))
	for _, r := range rules {
		p[r.Method+" "+r.Path] = r
	}
	return p
}

// DefaultPolicy is the role table for the API. Routes not listed only need
// an authenticated caller; ownership is enforced by the document service.
func DefaultPolicy() Policy {
	return NewPolicy(
		Rule{Method: http.MethodGet, Path: "/api/auth/users", Roles: []model.Role{model.RoleBoss}},
		Rule{Method: http.MethodPost, Path: "/api/documents/:id/approve", Roles: []model.Role{model.RoleBoss}, Denied: apperrors.ErrBossOnly},
	)
}

// Lookup returns the rule for a route, if any.
func (p Policy) Lookup(method, path string) (Rule, bool) {
	r, ok := p[method+" "+path]
	return r, ok
}

// Check authorizes identity against the rule for a route.
func (p Policy) Check(identity *Identity, method, path string) error {
	rule, ok := p.Lookup(method, path)
	if !ok {
		return Authorize(identity, nil)
	}
	err := Authorize(identity, rule.Roles)
	if err == apperrors.ErrForbidden && rule.Denied != nil {
		return rule.Denied
	}
	return err
}

// Authorize is a pure check of identity against required roles. No
// identity is ErrUnauthenticated; a known identity with the wrong role is
// ErrForbidden. An empty role set allows any authenticated caller.
func Authorize(identity *Identity, required []model.Role) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}
	if len(required) == 0 || slices.Contains(required, identity.Role) {
		return nil
	}
	return apperrors.ErrForbidden
}
