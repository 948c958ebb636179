package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// TicketGateway is the HTTP implementation of ports.TicketGateway.
type TicketGateway struct {
	client *Client
}

var _ ports.TicketGateway = (*TicketGateway)(nil)

// NewTicketGateway creates the gateway over the shared API client.
func NewTicketGateway(client *Client) *TicketGateway {
	return &TicketGateway{client: client}
}

// List returns summary tickets matching the filters.
func (g *TicketGateway) List(ctx context.Context, filters ports.TicketFilters) ([]domain.Ticket, error) {
	query := url.Values{}
	if filters.Category != "" {
		query.Set("category", string(filters.Category))
	}
	if filters.Location != "" {
		query.Set("location", filters.Location)
	}
	return doJSON[[]domain.Ticket](ctx, g.client, http.MethodGet, "/tickets", query, nil)
}

// GetByID returns the full detail record, comments included.
func (g *TicketGateway) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := doJSON[domain.Ticket](ctx, g.client, http.MethodGet, fmt.Sprintf("/tickets/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// PatchStatus updates only the status. Archiving goes through here with
// domain.StatusArchived; there is no separate archive endpoint.
func (g *TicketGateway) PatchStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	body := map[string]domain.TicketStatus{"status": status}
	ticket, err := doJSON[domain.Ticket](ctx, g.client, http.MethodPatch, fmt.Sprintf("/tickets/%d/status", id), nil, body)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// PatchFields applies a partial field update. An empty patch is
// rejected locally rather than spent on a no-op round trip.
func (g *TicketGateway) PatchFields(ctx context.Context, id int64, patch ports.FieldPatch) (*domain.Ticket, error) {
	if patch.IsEmpty() {
		return nil, apperrors.ErrBadRequest
	}
	ticket, err := doJSON[domain.Ticket](ctx, g.client, http.MethodPatch, fmt.Sprintf("/tickets/%d", id), nil, patch)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// AddComment appends a comment and returns the stored record.
func (g *TicketGateway) AddComment(ctx context.Context, id int64, text string) (*domain.Comment, error) {
	body := map[string]string{"text": text}
	comment, err := doJSON[domain.Comment](ctx, g.client, http.MethodPost, fmt.Sprintf("/tickets/%d/comments", id), nil, body)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
