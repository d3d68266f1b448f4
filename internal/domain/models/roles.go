// internal/domain/models/roles.go
package models

// Admin roles, ordered from widest to narrowest scope.
//
// The hierarchy is organizational: a church belongs to exactly one parish,
// a parish to exactly one diocese. Each role administers one level and is
// scoped by the ids carried on its user document:
//   - super_admin / archdiocese_admin: no ids, unrestricted
//   - diocese_admin: diocese_id
//   - parish_admin: diocese_id + parish_id
//   - church_admin: diocese_id + parish_id + church_id
const (
	RoleSuperAdmin       = "super_admin"
	RoleArchdioceseAdmin = "archdiocese_admin"
	RoleDioceseAdmin     = "diocese_admin"
	RoleParishAdmin      = "parish_admin"
	RoleChurchAdmin      = "church_admin"
)

// roleRank orders roles for "strictly above" comparisons, e.g. when deciding
// whether a deleter outranks the creator of a piece of content.
var roleRank = map[string]int{
	RoleSuperAdmin:       5,
	RoleArchdioceseAdmin: 4,
	RoleDioceseAdmin:     3,
	RoleParishAdmin:      2,
	RoleChurchAdmin:      1,
}

// ValidRole reports whether role is one of the five admin roles.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleOutranks reports whether role a is strictly above role b in the
// hierarchy. Unknown roles never outrank anything.
func RoleOutranks(a, b string) bool {
	ra, okA := roleRank[a]
	rb, okB := roleRank[b]
	return okA && okB && ra > rb
}

// RoleAtOrAbove reports whether role a is at or above role b.
func RoleAtOrAbove(a, b string) bool {
	ra, okA := roleRank[a]
	rb, okB := roleRank[b]
	return okA && okB && ra >= rb
}
