package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
	"github.com/lorrc/ops-console-engine/internal/core/services"
)

// ViewHandler serves the derived projections the rendering layer
// consumes: filtered/grouped ticket views and badge counts.
type ViewHandler struct {
	store        ports.TicketStore
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(store ports.TicketStore, errorHandler *ErrorHandler, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		store:        store,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "view"),
	}
}

// RegisterRoutes sets up the routing for the view endpoints.
func (h *ViewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/view", h.HandleGetView)
	r.Get("/view/counts", h.HandleGetCounts)
	r.Post("/view/load", h.HandleLoad)
}

// ViewResponse bundles the projection with the badge counts so one
// round trip renders the whole ticket center.
type ViewResponse struct {
	Query  services.Query  `json:"query"`
	View   services.View   `json:"view"`
	Counts services.Counts `json:"counts"`
}

// HandleGetView derives the projection for the query parameters:
// ?tab=active|resolved|archived&status=<status|all>&group=none|location|province
func (h *ViewHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	query, err := parseViewQuery(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// One clock reading per render pass, so urgency cutoffs agree
	// across every ticket in the response.
	now := time.Now().UTC()
	tickets := h.store.Snapshot()

	WriteSuccess(w, ViewResponse{
		Query:  query,
		View:   services.Project(tickets, query),
		Counts: services.Aggregate(tickets, now),
	})
}

// HandleGetCounts serves the badge counts alone, for chrome that
// refreshes badges without re-rendering a list.
func (h *ViewHandler) HandleGetCounts(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	WriteSuccess(w, services.Aggregate(h.store.Snapshot(), now))
}

// LoadRequest carries the server-side filters for a full reload.
type LoadRequest struct {
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

// HandleLoad refetches the collection. The view layer calls this on
// mount and whenever the category or location filter changes.
func (h *ViewHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
			return
		}
	}

	if req.Category != "" && !domain.TicketCategory(req.Category).IsValid() {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidCategory)
		return
	}

	filters := ports.TicketFilters{
		Category: domain.TicketCategory(req.Category),
		Location: req.Location,
	}
	if err := h.store.Load(r.Context(), filters); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	tickets := h.store.Snapshot()
	WriteSuccess(w, ListResponse[domain.Ticket]{Data: tickets, Count: len(tickets)})
}

func parseViewQuery(r *http.Request) (services.Query, error) {
	q := services.Query{
		Tab:   services.Tab(r.URL.Query().Get("tab")),
		Group: services.GroupMode(r.URL.Query().Get("group")),
	}
	if q.Tab == "" {
		q.Tab = services.TabActive
	}
	if q.Group == "" {
		q.Group = services.GroupNone
	}
	if !q.Tab.IsValid() || !q.Group.IsValid() {
		return services.Query{}, apperrors.ErrBadRequest
	}

	if status := r.URL.Query().Get("status"); status != "" && status != services.StatusFilterAll {
		if !domain.TicketStatus(status).IsValid() {
			return services.Query{}, apperrors.ErrInvalidStatus
		}
		q.Status = status
	}
	return q, nil
}
