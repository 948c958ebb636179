package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// TicketHandler exposes the mutation surface: opening the detail view,
// per-field edits, comments, list-surface status changes and archiving.
type TicketHandler struct {
	store        ports.TicketStore
	editor       ports.FieldEditor
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(store ports.TicketStore, editor ports.FieldEditor, errorHandler *ErrorHandler, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		store:        store,
		editor:       editor,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Post("/open", h.HandleOpenTicket)
		r.Patch("/status", h.HandleUpdateStatus)
		r.Post("/archive", h.HandleArchive)
		r.Patch("/fields/{field}", h.HandleEditField)
		r.Post("/comments", h.HandleAddComment)
	})
	r.Delete("/selection", h.HandleCloseTicket)
}

// HandleGetTicket returns the store's copy of one ticket.
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	ticket, ok := h.store.Get(id)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrTicketNotFound)
		return
	}
	WriteSuccess(w, ticket)
}

// FieldStateView reports one field's edit lifecycle and display error.
type FieldStateView struct {
	State ports.FieldEditState `json:"state"`
	Error string               `json:"error,omitempty"`
}

// DetailResponse is the detail surface payload: the shadow ticket plus
// per-field edit state.
type DetailResponse struct {
	Ticket *domain.Ticket                         `json:"ticket"`
	Fields map[ports.EditableField]FieldStateView `json:"fields"`
}

// HandleOpenTicket fetches full detail and installs the edit shadow.
func (h *TicketHandler) HandleOpenTicket(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.editor.Open(r.Context(), id)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteSuccess(w, h.detailResponse(ticket))
}

// HandleCloseTicket tears down the detail shadow.
func (h *TicketHandler) HandleCloseTicket(w http.ResponseWriter, r *http.Request) {
	h.editor.Close()
	WriteNoContent(w)
}

// UpdateStatusRequest is the body for list-surface status changes.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus changes status straight from the list: the store
// is updated optimistically, then the backend is patched.
func (h *TicketHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, domain.TicketStatus(req.Status)); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, _ := h.store.Get(id)
	WriteSuccess(w, ticket)
}

// HandleArchive archives the ticket. Archiving is a status transition,
// not a separate backend endpoint; confirming with the user first is
// the view layer's job.
func (h *TicketHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, domain.StatusArchived); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteNoContent(w)
}

// EditFieldRequest is the body for a per-field edit.
type EditFieldRequest struct {
	Value string `json:"value"`
}

// HandleEditField runs one optimistic field edit on the open ticket.
// The response always carries the resulting shadow and field states:
// on a rolled-back edit the caller renders the restored value plus the
// field error from the same payload.
func (h *TicketHandler) HandleEditField(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if selected, ok := h.editor.Selected(); !ok || selected.ID != id {
		h.errorHandler.Handle(w, r, apperrors.ErrNoSelection)
		return
	}

	field := ports.EditableField(chi.URLParam(r, "field"))
	if !field.IsValid() {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidField)
		return
	}

	var req EditFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	editErr := h.editor.EditField(r.Context(), ports.EditFieldParams{Field: field, Value: req.Value})
	ticket, _ := h.editor.Selected()
	status := http.StatusOK
	if editErr != nil {
		if apperrors.IsUnauthorized(editErr) {
			h.errorHandler.Handle(w, r, editErr)
			return
		}
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, SuccessResponse{Data: h.detailResponse(ticket)})
}

// AddCommentRequest is the body for posting a comment.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// HandleAddComment posts a comment through the editor, which appends
// optimistically and mirrors both surfaces.
func (h *TicketHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if selected, ok := h.editor.Selected(); !ok || selected.ID != id {
		h.errorHandler.Handle(w, r, apperrors.ErrNoSelection)
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	comment, err := h.editor.AddComment(r.Context(), req.Text)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteCreated(w, comment)
}

func (h *TicketHandler) detailResponse(ticket *domain.Ticket) DetailResponse {
	fields := make(map[ports.EditableField]FieldStateView, 4)
	for _, field := range []ports.EditableField{ports.FieldStatus, ports.FieldPriority, ports.FieldCategory, ports.FieldLocation} {
		fields[field] = FieldStateView{
			State: h.editor.FieldState(field),
			Error: h.editor.FieldError(field),
		}
	}
	return DetailResponse{Ticket: ticket, Fields: fields}
}

func ticketID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrBadRequest
	}
	return id, nil
}
