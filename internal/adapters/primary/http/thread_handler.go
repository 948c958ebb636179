package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// ThreadHandler exposes the reply polling surface: starting and
// stopping the wait for staff replies and reading the merged list.
type ThreadHandler struct {
	watcher      ports.ThreadWatcher
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(watcher ports.ThreadWatcher, errorHandler *ErrorHandler, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{
		watcher:      watcher,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "thread"),
	}
}

// RegisterRoutes sets up the routing for the thread endpoints.
func (h *ThreadHandler) RegisterRoutes(r chi.Router) {
	r.Route("/threads/{threadTS}", func(r chi.Router) {
		r.Post("/poll", h.HandleStartPolling)
		r.Delete("/poll", h.HandleStopPolling)
		r.Get("/replies", h.HandleGetReplies)
		r.Post("/replies", h.HandleSendReply)
	})
}

// HandleStartPolling begins the bounded polling loop for the thread.
func (h *ThreadHandler) HandleStartPolling(w http.ResponseWriter, r *http.Request) {
	threadTS := chi.URLParam(r, "threadTS")
	if err := h.watcher.StartPolling(threadTS); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, SuccessResponse{
		Message: "polling started",
		Data:    map[string]ports.PollState{"state": h.watcher.State(threadTS)},
	})
}

// HandleStopPolling cancels the thread's polling loop.
func (h *ThreadHandler) HandleStopPolling(w http.ResponseWriter, r *http.Request) {
	h.watcher.StopPolling(chi.URLParam(r, "threadTS"))
	WriteNoContent(w)
}

// RepliesResponse carries the merged reply list plus the poll state,
// so the view can render the waiting indicator from one payload.
type RepliesResponse struct {
	State   ports.PollState `json:"state"`
	Replies []domain.Reply  `json:"replies"`
	Count   int             `json:"count"`
}

// HandleGetReplies returns the merged reply list for the thread.
func (h *ThreadHandler) HandleGetReplies(w http.ResponseWriter, r *http.Request) {
	threadTS := chi.URLParam(r, "threadTS")
	replies := h.watcher.Replies(threadTS)
	if replies == nil {
		replies = []domain.Reply{}
	}
	WriteSuccess(w, RepliesResponse{
		State:   h.watcher.State(threadTS),
		Replies: replies,
		Count:   len(replies),
	})
}

// SendReplyRequest is the body for a user-authored follow-up.
type SendReplyRequest struct {
	Text string `json:"text"`
}

// HandleSendReply posts a follow-up into the thread. The reply shows
// up in the local list immediately; a gateway failure is reported but
// the appended reply stays.
func (h *ThreadHandler) HandleSendReply(w http.ResponseWriter, r *http.Request) {
	threadTS := chi.URLParam(r, "threadTS")

	var req SendReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	if err := h.watcher.SendReply(r.Context(), threadTS, req.Text); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteCreated(w, RepliesResponse{
		State:   h.watcher.State(threadTS),
		Replies: h.watcher.Replies(threadTS),
		Count:   len(h.watcher.Replies(threadTS)),
	})
}
