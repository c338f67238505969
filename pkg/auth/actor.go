package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	ID           string     `json:"id"`
	Roles        []string   `json:"roles"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
}

// HasRole reports whether the actor carries any of roles.
func (a Actor) HasRole(roles ...string) bool {
	return slices.ContainsFunc(a.Roles, func(r string) bool {
		return slices.Contains(roles, r)
	})
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// ActorFromClaims builds an Actor from a token subject and its claims.
// rolesClaim and departmentClaim may be dotted paths into nested objects,
// such as "realm_access.roles". A roles claim may be a string array or a
// space-separated string. A missing department claim leaves DepartmentID nil.
func ActorFromClaims(subject string, claims map[string]any, rolesClaim, departmentClaim string) (Actor, error) {
	if subject == "" {
		return Actor{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	actor := Actor{ID: subject, Roles: []string{}}

	switch v := lookupClaim(claims, rolesClaim).(type) {
	case nil:
	case string:
		actor.Roles = strings.Fields(v)
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				actor.Roles = append(actor.Roles, s)
			}
		}
	default:
		return Actor{}, fmt.Errorf("%w: claim %s has unsupported type %T", ErrUnauthenticated, rolesClaim, v)
	}

	if raw, ok := lookupClaim(claims, departmentClaim).(string); ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Actor{}, fmt.Errorf("%w: claim %s is not a uuid", ErrUnauthenticated, departmentClaim)
		}
		actor.DepartmentID = &id
	}

	return actor, nil
}

func lookupClaim(claims map[string]any, path string) any {
	if path == "" {
		return nil
	}

	var cur any = claims
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}
