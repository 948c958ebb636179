package ports

import (
	"context"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
)

// TicketFilters narrows the bulk list query. Both filters are applied
// server-side; a refetch is triggered whenever either changes.
type TicketFilters struct {
	Category domain.TicketCategory
	Location string
}

// FieldPatch is a partial update of a ticket's editable fields. Nil
// members are left untouched.
type FieldPatch struct {
	Status   *domain.TicketStatus   `json:"status,omitempty"`
	Priority *domain.TicketPriority `json:"priority,omitempty"`
	Category *domain.TicketCategory `json:"category,omitempty"`
	Location *string                `json:"location,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p FieldPatch) IsEmpty() bool {
	return p.Status == nil && p.Priority == nil && p.Category == nil && p.Location == nil
}

// TicketGateway is the contract over the backend ticket API. No layer
// below this retries; failures propagate to the caller as GatewayErrors.
type TicketGateway interface {
	// List returns summary tickets matching the filters.
	List(ctx context.Context, filters TicketFilters) ([]domain.Ticket, error)

	// GetByID returns the full detail record, comments included.
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)

	// PatchStatus updates only the status. Archiving is modeled as
	// PatchStatus(id, domain.StatusArchived).
	PatchStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error)

	// PatchFields applies a partial field update.
	PatchFields(ctx context.Context, id int64, patch FieldPatch) (*domain.Ticket, error)

	// AddComment appends a comment and returns the stored record.
	AddComment(ctx context.Context, id int64, text string) (*domain.Comment, error)
}

// ThreadGateway is the contract over the external staff-messaging
// thread endpoints.
type ThreadGateway interface {
	// Replies fetches all replies currently on the thread.
	Replies(ctx context.Context, threadTS string) ([]domain.Reply, error)

	// SendReply posts a user-authored follow-up into the thread.
	SendReply(ctx context.Context, threadTS, text string) error
}

// TokenProvider supplies the bearer token attached to every gateway
// request. Implementations may reject locally (expired token) before
// any network round trip is made.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
