// Package validation drives the two-phase publish path for managed content.
//
// Donation types and prayer times can be authored by a church admin but
// only become visible to the mobile app once the owning parish admin has
// validated them and the record has been mirrored ("synced") into the
// public collection. Parish-authored content is self-approved at creation.
//
// The package is written against small store interfaces so the state
// machine is testable without a live database; the Mongo-backed stores
// satisfy them.
package validation

import (
	"context"
	"time"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// State is the tagged view of the (createdByRole, validatedByParish) pair.
// Making the combinations explicit keeps the two booleans from being
// mis-combined by callers.
type State string

const (
	// DraftByParish: parish-authored, self-approved at creation.
	DraftByParish State = "draft_by_parish"
	// PendingChurchApproval: church-authored, waiting on the parish admin.
	PendingChurchApproval State = "pending_church_approval"
	// Validated: church-authored content promoted by the parish admin.
	Validated State = "validated"
)

// StateOf classifies a record. An unvalidated record is always pending,
// whoever created it: parish-authored content is validated at creation,
// so the fourth combination never occurs in practice.
func StateOf(createdByRole string, validatedByParish bool) State {
	switch {
	case !validatedByParish:
		return PendingChurchApproval
	case createdByRole == models.RoleChurchAdmin:
		return Validated
	default:
		return DraftByParish
	}
}

// InitialValidated reports the validated flag a freshly created record
// carries: parish admins and above self-approve, church admins wait.
func InitialValidated(creatorRole string) bool {
	return models.RoleAtOrAbove(creatorRole, models.RoleParishAdmin)
}

// Meta is the slice of a content record the workflow needs: organizational
// coordinates plus the two workflow flags.
type Meta struct {
	ID                primitive.ObjectID
	DioceseID         string
	ParishID          primitive.ObjectID
	ChurchID          primitive.ObjectID // Nil when parish-authored
	IsActive          bool
	ValidatedByParish bool
	CreatedBy         primitive.ObjectID
	CreatedByRole     string
}

// Entity renders the meta as scope coordinates for authorization checks.
func (m Meta) Entity() scope.Entity {
	return scope.Entity{
		DioceseID:         m.DioceseID,
		ParishID:          m.ParishID,
		ChurchID:          m.ChurchID,
		CreatedBy:         m.CreatedBy,
		CreatedByRole:     m.CreatedByRole,
		ValidatedByParish: m.ValidatedByParish,
	}
}

// State returns the tagged workflow state of the record.
func (m Meta) State() State {
	return StateOf(m.CreatedByRole, m.ValidatedByParish)
}

// ContentStore is the internal collection holding the authoritative record.
type ContentStore interface {
	// Meta returns nil, nil when the record does not exist.
	Meta(ctx context.Context, id primitive.ObjectID) (*Meta, error)
	MarkValidated(ctx context.Context, id, validatorID primitive.ObjectID, at time.Time) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MirrorStore is the public-facing collection the mobile app reads.
// UpsertFrom copies the current internal record into the mirror under the
// same id; running it twice with no intervening mutation is a no-op.
type MirrorStore interface {
	UpsertFrom(ctx context.Context, id primitive.ObjectID) error
	Remove(ctx context.Context, id primitive.ObjectID) error
}

// Workflow applies validate/sync/activate transitions to one content kind.
type Workflow struct {
	content     ContentStore
	mirror      MirrorStore
	onValidated func(context.Context, Meta)
	log         *zap.Logger
}

// New wires a workflow over one internal collection and its public mirror.
func New(content ContentStore, mirror MirrorStore, log *zap.Logger) *Workflow {
	return &Workflow{content: content, mirror: mirror, log: log}
}

// OnValidated registers a callback invoked once per pending->validated
// transition, after the flag is persisted. Used to announce newly visible
// content to the parish.
func (w *Workflow) OnValidated(fn func(context.Context, Meta)) {
	w.onValidated = fn
}

// Validate promotes a pending record. Only the owning parish admin (or a
// role above it, within scope) may validate. Validating an already
// validated record is a no-op with no side effects. Validation is one-way:
// there is no un-validate.
//
// A successful validation of an active record immediately syncs the
// mirror. A mirror failure at that point leaves the record validated but
// unsynced, which the manual sync action recovers.
func (w *Workflow) Validate(ctx context.Context, p scope.Principal, id primitive.ObjectID) error {
	m, err := w.content.Meta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) || !scope.CanView(p, scope.EntityContent, m.Entity()) {
		return apierr.ErrUnauthorized
	}
	if m.ValidatedByParish {
		return nil
	}

	now := time.Now().UTC()
	if err := w.content.MarkValidated(ctx, id, p.ID, now); err != nil {
		return err
	}
	m.ValidatedByParish = true

	if w.onValidated != nil {
		w.onValidated(ctx, *m)
	}

	if m.IsActive {
		if err := w.mirror.UpsertFrom(ctx, id); err != nil {
			w.log.Warn("validated record left unsynced",
				zap.String("id", id.Hex()),
				zap.Error(err))
		}
	}
	return nil
}

// Sync mirrors a record into the public collection. Preconditions: the
// record is active and validated; otherwise the mirror is not written and
// the caller gets a precondition failure. Syncing twice with no
// intervening mutation leaves the mirror unchanged.
func (w *Workflow) Sync(ctx context.Context, p scope.Principal, id primitive.ObjectID) error {
	m, err := w.content.Meta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !scope.CanEdit(p, scope.EntityContent, m.Entity()) {
		return apierr.ErrUnauthorized
	}
	if !m.IsActive || !m.ValidatedByParish {
		return apierr.ErrPreconditionFailed
	}
	return w.mirror.UpsertFrom(ctx, id)
}

// SetActive toggles mobile-app visibility, independent of validation.
// Deactivating removes the public copy; reactivating a validated record
// restores it.
func (w *Workflow) SetActive(ctx context.Context, p scope.Principal, id primitive.ObjectID, active bool) error {
	m, err := w.content.Meta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !scope.CanEdit(p, scope.EntityContent, m.Entity()) {
		return apierr.ErrUnauthorized
	}
	if err := w.content.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		return w.mirror.Remove(ctx, id)
	}
	if m.ValidatedByParish {
		return w.mirror.UpsertFrom(ctx, id)
	}
	return nil
}

// Delete removes a record and its public copy. Permitted only to the
// creator or a role strictly above the creator's.
func (w *Workflow) Delete(ctx context.Context, p scope.Principal, id primitive.ObjectID) error {
	m, err := w.content.Meta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !scope.CanDelete(p, scope.EntityContent, m.Entity()) {
		return apierr.ErrUnauthorized
	}
	if err := w.content.Delete(ctx, id); err != nil {
		return err
	}
	return w.mirror.Remove(ctx, id)
}
