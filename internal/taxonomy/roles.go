package taxonomy

import "slices"

// Role names carried on an authenticated actor.
const (
	RolePerawat = "perawat"
	RolePJ      = "pj"
	RoleMutu    = "mutu"
	RoleAdmin   = "admin"
)

// ReviewerRoles may read and categorize incidents of any department.
var ReviewerRoles = []string{RolePJ, RoleMutu, RoleAdmin}

// IsReviewer reports whether roles intersect ReviewerRoles.
func IsReviewer(roles []string) bool {
	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(ReviewerRoles, r)
	})
}
