// Package scope computes what slice of the organizational hierarchy a
// principal may see and touch.
//
// Authorization rules:
//   - super_admin and archdiocese_admin see everything
//   - diocese_admin sees records carrying their diocese code
//   - parish_admin sees records of their parish (diocese-wide for read-only
//     org-unit views)
//   - church_admin sees records of their church, their parish's validated
//     content, and their own parish's org units read-only
//
// Resolve is a pure computation: it never errors and never touches the
// database. An out-of-scope read resolves to a filter matching nothing, so
// subordinate roles browsing outside their scope see empty lists rather
// than permission errors. Out-of-scope mutations are rejected by the
// Can* predicates before any write is attempted.
package scope

import (
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity kinds with distinct scoping or editing rules.
type EntityType string

const (
	EntityDiocese  EntityType = "diocese"
	EntityParish   EntityType = "parish"
	EntityChurch   EntityType = "church"
	EntityContent  EntityType = "content" // donation types, prayer times, news
	EntityDonation EntityType = "donation"
	EntityUser     EntityType = "user"
)

// minEditRole is the floor role allowed to mutate each entity type.
// Scope still applies on top: being at the floor only helps inside
// the principal's own slice of the hierarchy.
var minEditRole = map[EntityType]string{
	EntityDiocese:  models.RoleArchdioceseAdmin,
	EntityParish:   models.RoleDioceseAdmin,
	EntityChurch:   models.RoleChurchAdmin,
	EntityContent:  models.RoleChurchAdmin,
	EntityDonation: models.RoleChurchAdmin,
	EntityUser:     models.RoleParishAdmin,
}

// Principal is the authenticated actor, as carried by its user document.
type Principal struct {
	ID        primitive.ObjectID
	Role      string
	DioceseID string
	ParishID  primitive.ObjectID
	ChurchID  primitive.ObjectID
}

// Entity carries the organizational coordinates of one record, enough to
// decide visibility and mutation rights without fetching anything else.
// ValidatedByParish and Metropolitan matter only for the entity types
// whose rules read them (content and dioceses respectively).
type Entity struct {
	DioceseID         string
	ParishID          primitive.ObjectID
	ChurchID          primitive.ObjectID
	CreatedBy         primitive.ObjectID
	CreatedByRole     string
	ValidatedByParish bool
	Metropolitan      bool
}

// Filter bounds a scoped query: All, one of the three org coordinates, or
// nothing (matches no records). ParishValidated widens a church-bound
// content filter to also include the owning parish's validated records,
// which is what the mobile-facing catalog shows a church.
type Filter struct {
	All             bool
	DioceseID       string
	ParishID        primitive.ObjectID
	ChurchID        primitive.ObjectID
	ParishValidated bool
}

// None reports whether the filter matches no records at all.
func (f Filter) None() bool {
	return !f.All && f.DioceseID == "" &&
		f.ParishID == primitive.NilObjectID &&
		f.ChurchID == primitive.NilObjectID
}

// Mongo renders the filter as a query document. The empty filter matches
// nothing: scoped reads degrade to empty result sets, never errors.
func (f Filter) Mongo() bson.M {
	switch {
	case f.All:
		return bson.M{}
	case f.ChurchID != primitive.NilObjectID && f.ParishValidated && f.ParishID != primitive.NilObjectID:
		return bson.M{"$or": []bson.M{
			{"church_id": f.ChurchID},
			{"parish_id": f.ParishID, "validated_by_parish": true},
		}}
	case f.ChurchID != primitive.NilObjectID:
		return bson.M{"church_id": f.ChurchID}
	case f.ParishID != primitive.NilObjectID:
		return bson.M{"parish_id": f.ParishID}
	case f.DioceseID != "":
		return bson.M{"diocese_id": f.DioceseID}
	default:
		return bson.M{"_id": primitive.NilObjectID}
	}
}

// Matches reports whether a single record falls inside the filter.
func (f Filter) Matches(e Entity) bool {
	switch {
	case f.All:
		return true
	case f.ChurchID != primitive.NilObjectID && f.ParishValidated && f.ParishID != primitive.NilObjectID:
		return e.ChurchID == f.ChurchID ||
			(e.ParishID == f.ParishID && e.ValidatedByParish)
	case f.ChurchID != primitive.NilObjectID:
		return e.ChurchID == f.ChurchID
	case f.ParishID != primitive.NilObjectID:
		return e.ParishID == f.ParishID
	case f.DioceseID != "":
		return e.DioceseID == f.DioceseID
	default:
		return false
	}
}

// Resolve computes the visibility filter for one principal and entity type.
//
// A principal missing the org id its role requires (a diocese_admin with no
// diocese, say) resolves to the empty filter: such accounts see nothing
// until an administrator repairs them.
func Resolve(p Principal, t EntityType) Filter {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleArchdioceseAdmin:
		return Filter{All: true}

	case models.RoleDioceseAdmin:
		if p.DioceseID == "" {
			return Filter{}
		}
		return Filter{DioceseID: p.DioceseID}

	case models.RoleParishAdmin:
		// Org-unit reads widen to the whole diocese so a parish admin can
		// see sibling parishes; everything it manages stays parish-bound.
		if t == EntityDiocese || t == EntityParish {
			if p.DioceseID == "" {
				return Filter{}
			}
			return Filter{DioceseID: p.DioceseID}
		}
		if p.ParishID == primitive.NilObjectID {
			return Filter{}
		}
		return Filter{ParishID: p.ParishID}

	case models.RoleChurchAdmin:
		// A church admin reads its own parish's org units but its managed
		// records are bound to the church itself. Content reads widen to
		// the parish's validated catalog: the church runs collections
		// against parish-level donation types too.
		if t == EntityDiocese || t == EntityParish || t == EntityChurch {
			if p.ParishID == primitive.NilObjectID {
				return Filter{}
			}
			return Filter{ParishID: p.ParishID}
		}
		if p.ChurchID == primitive.NilObjectID {
			return Filter{}
		}
		if t == EntityContent && p.ParishID != primitive.NilObjectID {
			return Filter{ChurchID: p.ChurchID, ParishID: p.ParishID, ParishValidated: true}
		}
		return Filter{ChurchID: p.ChurchID}

	default:
		return Filter{}
	}
}

// CanView reports whether the principal may read the given record.
func CanView(p Principal, t EntityType, e Entity) bool {
	return Resolve(p, t).Matches(e)
}

// CanEdit reports whether the principal may mutate the given record:
// the record must fall inside the principal's scope and the principal's
// role must be at or above the editing floor for the entity type.
func CanEdit(p Principal, t EntityType, e Entity) bool {
	floor, ok := minEditRole[t]
	if !ok || !models.RoleAtOrAbove(p.Role, floor) {
		return false
	}
	// The archdiocese admin's write access stops at the metropolitan see;
	// the rest of the diocese directory is read-only for it.
	if p.Role == models.RoleArchdioceseAdmin && t == EntityDiocese {
		return e.Metropolitan
	}
	// Church admins read more than they may touch: sibling churches and the
	// parish's validated catalog are visible, but mutations stay bound to
	// their own church.
	if p.Role == models.RoleChurchAdmin && (t == EntityChurch || t == EntityContent) {
		return e.ChurchID == p.ChurchID
	}
	return Resolve(p, t).Matches(e)
}

// CanCreate reports whether the principal may create a record with the
// given organizational coordinates. A church admin may only author content
// for its own church and parish, never another's.
func CanCreate(p Principal, t EntityType, e Entity) bool {
	// New dioceses come only from the top. The archdiocese admin may edit
	// the metropolitan see, not mint new sees.
	if t == EntityDiocese {
		return p.Role == models.RoleSuperAdmin
	}
	if !CanEdit(p, t, e) {
		return false
	}
	if p.Role == models.RoleChurchAdmin && t == EntityContent {
		return e.ChurchID == p.ChurchID && e.ParishID == p.ParishID
	}
	return true
}

// CanDelete reports whether the principal may delete the given record.
// Donations are deletable only by a super admin. Managed content may be
// deleted by its creator or by a role strictly above the creator's; org
// units follow the plain editing rule.
func CanDelete(p Principal, t EntityType, e Entity) bool {
	if t == EntityDonation {
		return p.Role == models.RoleSuperAdmin
	}
	if !CanEdit(p, t, e) {
		return false
	}
	if e.CreatedByRole == "" {
		return true
	}
	return p.ID == e.CreatedBy || models.RoleOutranks(p.Role, e.CreatedByRole)
}
