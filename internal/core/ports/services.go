package ports

import (
	"context"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
)

// TicketStore owns the canonical in-memory ticket collection for the
// session. All mutation entry points funnel through it.
type TicketStore interface {
	// Load replaces the whole collection with the gateway list result.
	// Overlapping loads are not coalesced: the last response to resolve
	// wins.
	Load(ctx context.Context, filters TicketFilters) error

	// ApplyStatus updates the matching ticket's status and updatedAt,
	// leaving every other field untouched.
	ApplyStatus(id int64, status domain.TicketStatus)

	// UpdateStatus is the list-surface status change: ApplyStatus
	// immediately, then patch the backend. The optimistic write is not
	// rolled back on failure; only the field editor models rollback.
	// Archiving goes through here with domain.StatusArchived.
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error

	// AppendComment pushes onto the ticket's comment list and refreshes
	// updatedAt.
	AppendComment(id int64, comment domain.Comment)

	// Replace overwrites a ticket wholesale, used after a full-detail
	// fetch for a ticket the bulk list only carried in summary form.
	Replace(ticket domain.Ticket)

	// Snapshot returns a copy of the collection in server order.
	Snapshot() []domain.Ticket

	// Get returns a copy of a single ticket.
	Get(id int64) (domain.Ticket, bool)
}

// EventBroadcaster pushes store change events to subscribed views.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// EditableField names a ticket field the detail surface can edit
// through the field-edit controller.
type EditableField string

const (
	FieldStatus   EditableField = "status"
	FieldPriority EditableField = "priority"
	FieldCategory EditableField = "category"
	FieldLocation EditableField = "location"
)

// IsValid reports whether the field is editable.
func (f EditableField) IsValid() bool {
	switch f {
	case FieldStatus, FieldPriority, FieldCategory, FieldLocation:
		return true
	}
	return false
}

// FieldEditState is the per-field edit lifecycle.
type FieldEditState string

const (
	EditIdle       FieldEditState = "idle"
	EditPending    FieldEditState = "pending"
	EditCommitted  FieldEditState = "committed"
	EditRolledBack FieldEditState = "rolled-back"
)

// EditFieldParams carries one field edit request.
type EditFieldParams struct {
	Field EditableField
	Value string
}

// FieldEditor drives optimistic per-field edits of the selected ticket.
type FieldEditor interface {
	// Open fetches full detail for the ticket, installs it as the edit
	// shadow, and mirrors it into the store.
	Open(ctx context.Context, ticketID int64) (*domain.Ticket, error)

	// Close discards the shadow and all per-field edit state.
	Close()

	// Selected returns a copy of the shadow, if a ticket is open.
	Selected() (*domain.Ticket, bool)

	// EditField writes the value optimistically, calls the gateway, and
	// rolls back the shadow on failure. The returned error is the
	// gateway failure, if any; the per-field message is kept for display
	// either way.
	EditField(ctx context.Context, params EditFieldParams) error

	// FieldState reports where the field's last edit sits in its
	// lifecycle.
	FieldState(field EditableField) FieldEditState

	// FieldError returns the display message for the field's last
	// failed edit, or "".
	FieldError(field EditableField) string

	// AddComment posts a comment on the selected ticket and mirrors it
	// into both the shadow and the store list copy.
	AddComment(ctx context.Context, text string) (*domain.Comment, error)
}

// PollState is the reply poller's lifecycle for one thread.
type PollState string

const (
	PollIdle     PollState = "idle"
	PollPolling  PollState = "polling"
	PollFound    PollState = "found"
	PollTimedOut PollState = "timed-out"
)

// ThreadWatcher polls external staff threads for replies and holds the
// merged reply list per thread.
type ThreadWatcher interface {
	// StartPolling begins the bounded polling loop for the thread. A
	// second call for the same thread while a loop is live is a no-op.
	StartPolling(threadTS string) error

	// StopPolling cancels the thread's polling loop, if any.
	StopPolling(threadTS string)

	// State reports the thread's polling state.
	State(threadTS string) PollState

	// Replies returns the merged reply list for the thread, in arrival
	// order.
	Replies(threadTS string) []domain.Reply

	// SendReply appends the text optimistically to the local reply list
	// and posts it to the thread. A failed post is reported but the
	// optimistic append is not retracted.
	SendReply(ctx context.Context, threadTS, text string) error
}
