package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// FieldEditController drives optimistic per-field edits of the single
// selected ticket. It holds a shadow copy of the ticket plus a snapshot
// of the last committed value per field, which is the rollback target
// when the gateway rejects an edit.
//
// Edits to different fields are independent. Edits to the same field
// are not queued: a second edit started before the first resolves
// supersedes it, and whichever response settles last writes the shadow.
type FieldEditController struct {
	gateway ports.TicketGateway
	store   *TicketStore
	logger  *slog.Logger

	mu       sync.Mutex
	shadow   *domain.Ticket
	original map[ports.EditableField]string
	states   map[ports.EditableField]ports.FieldEditState
	errs     map[ports.EditableField]string
}

var _ ports.FieldEditor = (*FieldEditController)(nil)
var _ ShadowMirror = (*FieldEditController)(nil)

// NewFieldEditController creates the controller for the detail surface.
func NewFieldEditController(gateway ports.TicketGateway, store *TicketStore, logger *slog.Logger) *FieldEditController {
	return &FieldEditController{
		gateway: gateway,
		store:   store,
		logger:  logger.With("component", "field_edit"),
	}
}

// Open fetches full detail for the ticket (the bulk list only carries
// summary fields), installs it as the edit shadow, and mirrors the
// detail record into the store.
func (c *FieldEditController) Open(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	detail, err := c.gateway.GetByID(ctx, ticketID)
	if err != nil {
		c.logger.Error("ticket detail fetch failed", "ticket_id", ticketID, "error", err)
		return nil, err
	}

	c.mu.Lock()
	shadow := detail.Clone()
	c.shadow = &shadow
	c.original = map[ports.EditableField]string{
		ports.FieldStatus:   string(shadow.Status),
		ports.FieldPriority: string(shadow.Priority),
		ports.FieldCategory: string(shadow.Category),
		ports.FieldLocation: shadow.Location,
	}
	c.states = make(map[ports.EditableField]ports.FieldEditState)
	c.errs = make(map[ports.EditableField]string)
	c.mu.Unlock()

	c.store.Replace(*detail)
	c.store.SetMirror(c)

	out := shadow.Clone()
	return &out, nil
}

// Close destroys the shadow and all per-field edit state.
func (c *FieldEditController) Close() {
	c.store.SetMirror(nil)

	c.mu.Lock()
	c.shadow = nil
	c.original = nil
	c.states = nil
	c.errs = nil
	c.mu.Unlock()
}

// Selected returns a copy of the shadow, if a ticket is open.
func (c *FieldEditController) Selected() (*domain.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shadow == nil {
		return nil, false
	}
	out := c.shadow.Clone()
	return &out, true
}

// FieldState reports where the field's last edit sits in its lifecycle.
func (c *FieldEditController) FieldState(field ports.EditableField) ports.FieldEditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.states[field]; ok {
		return state
	}
	return ports.EditIdle
}

// FieldError returns the display message for the field's last failed
// edit, or "".
func (c *FieldEditController) FieldError(field ports.EditableField) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[field]
}

// EditField applies the value to the shadow immediately, marks the
// field pending, then calls the gateway. Success advances the rollback
// snapshot to the committed value; failure restores the shadow from the
// snapshot and records a field-scoped error.
func (c *FieldEditController) EditField(ctx context.Context, params ports.EditFieldParams) error {
	if err := validateFieldValue(params); err != nil {
		c.mu.Lock()
		if c.errs != nil {
			c.errs[params.Field] = err.Error()
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.shadow == nil {
		c.mu.Unlock()
		return apperrors.ErrNoSelection
	}
	ticketID := c.shadow.ID
	applyFieldValue(c.shadow, params.Field, params.Value)
	c.states[params.Field] = ports.EditPending
	delete(c.errs, params.Field)
	c.mu.Unlock()

	updated, err := c.patchRemote(ctx, ticketID, params)
	if err != nil {
		c.mu.Lock()
		if c.shadow != nil && c.shadow.ID == ticketID {
			applyFieldValue(c.shadow, params.Field, c.original[params.Field])
		}
		if c.states != nil {
			c.states[params.Field] = ports.EditRolledBack
			c.errs[params.Field] = err.Error()
		}
		c.mu.Unlock()

		c.logger.Warn("field edit rolled back",
			"ticket_id", ticketID,
			"field", string(params.Field),
			"error", err,
		)
		return err
	}

	c.mu.Lock()
	if c.shadow != nil && c.shadow.ID == ticketID {
		if updated != nil {
			c.shadow.UpdatedAt = updated.UpdatedAt
		}
		c.original[params.Field] = params.Value
		c.states[params.Field] = ports.EditCommitted
	}
	c.mu.Unlock()

	// Status edits reach the summary list without a reload. Other
	// fields stay local to the detail surface until the next load.
	if params.Field == ports.FieldStatus {
		c.store.ApplyStatus(ticketID, domain.TicketStatus(params.Value))
	}
	return nil
}

// AddComment appends the comment to local state before the gateway
// confirms it, then posts it. A failed post is reported to the caller
// but the optimistic append is not retracted; the next full detail
// fetch reconciles.
func (c *FieldEditController) AddComment(ctx context.Context, text string) (*domain.Comment, error) {
	if text == "" {
		return nil, apperrors.ErrCommentTextRequired
	}

	c.mu.Lock()
	if c.shadow == nil {
		c.mu.Unlock()
		return nil, apperrors.ErrNoSelection
	}
	ticketID := c.shadow.ID
	c.mu.Unlock()

	comment := domain.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	c.store.AppendComment(ticketID, comment)

	if _, err := c.gateway.AddComment(ctx, ticketID, text); err != nil {
		c.logger.Error("comment post failed", "ticket_id", ticketID, "error", err)
		return nil, err
	}
	return &comment, nil
}

// MirrorStatus keeps the shadow in step with a status change applied
// through the store. The rollback snapshot advances with it: the store
// value is committed by definition.
func (c *FieldEditController) MirrorStatus(id int64, status domain.TicketStatus, updatedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shadow == nil || c.shadow.ID != id {
		return
	}
	c.shadow.Status = status
	c.shadow.UpdatedAt = updatedAt
	c.original[ports.FieldStatus] = string(status)
}

// MirrorComment keeps the shadow's comment list in step with the store.
func (c *FieldEditController) MirrorComment(id int64, comment domain.Comment, updatedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shadow == nil || c.shadow.ID != id {
		return
	}
	c.shadow.Comments = append(c.shadow.Comments, comment)
	c.shadow.UpdatedAt = updatedAt
}

func (c *FieldEditController) patchRemote(ctx context.Context, ticketID int64, params ports.EditFieldParams) (*domain.Ticket, error) {
	if params.Field == ports.FieldStatus {
		return c.gateway.PatchStatus(ctx, ticketID, domain.TicketStatus(params.Value))
	}

	var patch ports.FieldPatch
	switch params.Field {
	case ports.FieldPriority:
		priority := domain.TicketPriority(params.Value)
		patch.Priority = &priority
	case ports.FieldCategory:
		category := domain.TicketCategory(params.Value)
		patch.Category = &category
	case ports.FieldLocation:
		location := params.Value
		patch.Location = &location
	}
	return c.gateway.PatchFields(ctx, ticketID, patch)
}

func validateFieldValue(params ports.EditFieldParams) error {
	switch params.Field {
	case ports.FieldStatus:
		if !domain.TicketStatus(params.Value).IsValid() {
			return &apperrors.FieldError{Field: string(params.Field), Message: apperrors.ErrInvalidStatus.Error()}
		}
	case ports.FieldPriority:
		if !domain.TicketPriority(params.Value).IsValid() {
			return &apperrors.FieldError{Field: string(params.Field), Message: apperrors.ErrInvalidPriority.Error()}
		}
	case ports.FieldCategory:
		if !domain.TicketCategory(params.Value).IsValid() {
			return &apperrors.FieldError{Field: string(params.Field), Message: apperrors.ErrInvalidCategory.Error()}
		}
	case ports.FieldLocation:
		// Free-form; unknown locations bucket under "No Location".
	default:
		return apperrors.ErrInvalidField
	}
	return nil
}

func applyFieldValue(t *domain.Ticket, field ports.EditableField, value string) {
	switch field {
	case ports.FieldStatus:
		t.Status = domain.TicketStatus(value)
	case ports.FieldPriority:
		t.Priority = domain.TicketPriority(value)
	case ports.FieldCategory:
		t.Category = domain.TicketCategory(value)
	case ports.FieldLocation:
		t.Location = value
	}
}
