// Package access decides which roles may perform which actions on which
// resources, and guards HTTP routes with that decision.
package access

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/handlers"
)

// ErrDenied is returned when none of an actor's roles grants an action.
var ErrDenied = errors.New("access denied")

// Resources and actions guarded by the policy.
const (
	Incident   = "incident"
	Department = "department"
	Attachment = "attachment"

	Read       = "read"
	Create     = "create"
	Edit       = "edit"
	Submit     = "submit"
	Categorize = "categorize"
	Close      = "close"
	Manage     = "manage"
	Upload     = "upload"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Rule grants act on obj to role.
type Rule struct {
	Role   string
	Object string
	Action string
}

// DefaultRules is the hospital policy. Fine-grained ownership and state
// checks happen in the domain; these rules only gate routes.
var DefaultRules = []Rule{
	{taxonomy.RolePerawat, Incident, Read},
	{taxonomy.RolePerawat, Incident, Create},
	{taxonomy.RolePerawat, Incident, Edit},
	{taxonomy.RolePerawat, Incident, Submit},
	{taxonomy.RolePerawat, Attachment, Read},
	{taxonomy.RolePerawat, Attachment, Upload},
	{taxonomy.RolePerawat, Department, Read},

	{taxonomy.RolePJ, Incident, Read},
	{taxonomy.RolePJ, Incident, Categorize},
	{taxonomy.RolePJ, Attachment, Read},
	{taxonomy.RolePJ, Department, Read},

	{taxonomy.RoleMutu, Incident, Read},
	{taxonomy.RoleMutu, Incident, Categorize},
	{taxonomy.RoleMutu, Incident, Close},
	{taxonomy.RoleMutu, Attachment, Read},
	{taxonomy.RoleMutu, Department, Read},

	{taxonomy.RoleAdmin, Incident, Read},
	{taxonomy.RoleAdmin, Incident, Categorize},
	{taxonomy.RoleAdmin, Incident, Close},
	{taxonomy.RoleAdmin, Attachment, Read},
	{taxonomy.RoleAdmin, Department, Read},
	{taxonomy.RoleAdmin, Department, Manage},
}

// Policy evaluates role grants with a casbin enforcer.
type Policy struct {
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

// New builds a Policy from rules.
func New(rules []Rule, logger *slog.Logger) (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse access model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, r := range rules {
		if _, err := e.AddPolicy(r.Role, r.Object, r.Action); err != nil {
			return nil, fmt.Errorf("add rule %s %s:%s: %w", r.Role, r.Object, r.Action, err)
		}
	}

	return &Policy{
		enforcer: e,
		logger:   logger.With("system", "access"),
	}, nil
}

// Allowed reports whether any of roles may perform act on obj.
func (p *Policy) Allowed(roles []string, obj, act string) bool {
	for _, role := range roles {
		ok, err := p.enforcer.Enforce(role, obj, act)
		if err != nil {
			p.logger.Error("policy evaluation failed", "role", role, "object", obj, "action", act, "error", err)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}

// Require wraps next so it runs only for an authenticated actor allowed to
// perform act on obj. Missing actors get 401, denied actors 403.
func (p *Policy) Require(obj, act string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			handlers.RespondError(w, p.logger, http.StatusUnauthorized, auth.ErrUnauthenticated)
			return
		}

		if !p.Allowed(actor.Roles, obj, act) {
			p.logger.Warn("permission denied", "method", r.Method, "path", r.URL.Path, "actor", actor.ID, "roles", actor.Roles, "need", obj+":"+act)
			handlers.RespondError(w, p.logger, http.StatusForbidden, fmt.Errorf("%w: %s:%s", ErrDenied, obj, act))
			return
		}

		next(w, r)
	}
}
