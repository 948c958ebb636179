package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// ShadowMirror lets the store reflect list mutations into the detail
// shadow held by the field editor, so the two surfaces stay in sync
// without waiting for a reload.
type ShadowMirror interface {
	MirrorStatus(id int64, status domain.TicketStatus, updatedAt time.Time)
	MirrorComment(id int64, comment domain.Comment, updatedAt time.Time)
}

// TicketStore holds the canonical ticket collection for the session.
// Mutations are applied under a mutex; notification and mirroring run
// after the lock is released.
type TicketStore struct {
	gateway     ports.TicketGateway
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger

	mu      sync.RWMutex
	tickets []domain.Ticket

	mirrorMu sync.RWMutex
	mirror   ShadowMirror
}

var _ ports.TicketStore = (*TicketStore)(nil)

// NewTicketStore creates the session store. broadcaster may be nil when
// no view is subscribed (tests, headless use).
func NewTicketStore(gateway ports.TicketGateway, broadcaster ports.EventBroadcaster, logger *slog.Logger) *TicketStore {
	return &TicketStore{
		gateway:     gateway,
		broadcaster: broadcaster,
		logger:      logger.With("component", "ticket_store"),
	}
}

// SetMirror registers the detail shadow to keep in sync with list
// mutations. Pass nil when the detail view closes.
func (s *TicketStore) SetMirror(m ShadowMirror) {
	s.mirrorMu.Lock()
	s.mirror = m
	s.mirrorMu.Unlock()
}

// Load replaces the collection with the gateway's list result.
// Overlapping loads are not coalesced: whichever response resolves last
// wins, even if its request was issued first. Callers changing filters
// rapidly accept possibly-stale overwrites.
func (s *TicketStore) Load(ctx context.Context, filters ports.TicketFilters) error {
	tickets, err := s.gateway.List(ctx, filters)
	if err != nil {
		s.logger.Error("ticket list fetch failed",
			"category", string(filters.Category),
			"location", filters.Location,
			"error", err,
		)
		return err
	}

	s.mu.Lock()
	s.tickets = tickets
	count := len(tickets)
	s.mu.Unlock()

	s.logger.Info("tickets loaded",
		"count", count,
		"category", string(filters.Category),
		"location", filters.Location,
	)
	s.broadcast(domain.Event{Type: domain.EventLoaded, Payload: count})
	return nil
}

// ApplyStatus updates the matching ticket's status and updatedAt,
// leaving all other fields untouched. Unknown ids are ignored.
func (s *TicketStore) ApplyStatus(id int64, status domain.TicketStatus) {
	now := time.Now().UTC()

	s.mu.Lock()
	found := false
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets[i].Status = status
			s.tickets[i].UpdatedAt = now
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	if m := s.currentMirror(); m != nil {
		m.MirrorStatus(id, status, now)
	}
	s.broadcast(domain.Event{Type: domain.EventStatusUpdated, TicketID: id, Payload: status})
}

// UpdateStatus is the list-surface status change: the collection is
// updated before the network call resolves, then the backend is
// patched. A failed patch is reported but the optimistic write stays;
// the next load reconciles.
func (s *TicketStore) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	if !status.IsValid() {
		return apperrors.ErrInvalidStatus
	}
	if _, ok := s.Get(id); !ok {
		return apperrors.ErrTicketNotFound
	}

	s.ApplyStatus(id, status)

	if _, err := s.gateway.PatchStatus(ctx, id, status); err != nil {
		s.logger.Error("status patch failed", "ticket_id", id, "status", string(status), "error", err)
		return err
	}
	return nil
}

// AppendComment pushes onto the ticket's comment list and refreshes
// updatedAt, on both the list copy and the detail shadow.
func (s *TicketStore) AppendComment(id int64, comment domain.Comment) {
	now := time.Now().UTC()

	s.mu.Lock()
	found := false
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets[i].Comments = append(s.tickets[i].Comments, comment)
			s.tickets[i].UpdatedAt = now
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	if m := s.currentMirror(); m != nil {
		m.MirrorComment(id, comment, now)
	}
	s.broadcast(domain.Event{Type: domain.EventCommentAdded, TicketID: id, Payload: comment})
}

// Replace overwrites a ticket wholesale, used after fetching full
// detail for a ticket the bulk list carried in summary form only.
func (s *TicketStore) Replace(ticket domain.Ticket) {
	s.mu.Lock()
	found := false
	for i := range s.tickets {
		if s.tickets[i].ID == ticket.ID {
			s.tickets[i] = ticket.Clone()
			found = true
			break
		}
	}
	if !found {
		s.tickets = append(s.tickets, ticket.Clone())
	}
	s.mu.Unlock()

	s.broadcast(domain.Event{Type: domain.EventTicketReplaced, TicketID: ticket.ID})
}

// Snapshot returns a copy of the collection in server order.
func (s *TicketStore) Snapshot() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ticket, len(s.tickets))
	for i, t := range s.tickets {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of a single ticket.
func (s *TicketStore) Get(id int64) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tickets {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Ticket{}, false
}

func (s *TicketStore) currentMirror() ShadowMirror {
	s.mirrorMu.RLock()
	defer s.mirrorMu.RUnlock()
	return s.mirror
}

func (s *TicketStore) broadcast(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("store event broadcast failed",
			"event_type", event.Type,
			"error", err,
		)
	}
}
