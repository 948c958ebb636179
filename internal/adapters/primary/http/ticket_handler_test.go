package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	consolehttp "github.com/lorrc/ops-console-engine/internal/adapters/primary/http"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	"github.com/lorrc/ops-console-engine/internal/core/mocks"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
	"github.com/lorrc/ops-console-engine/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ticketServer struct {
	*httptest.Server
	gateway *mocks.MockTicketGateway
}

func newTicketServer(t *testing.T) *ticketServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mockGateway := mocks.NewMockTicketGateway()
	store := services.NewTicketStore(mockGateway, nil, logger)
	editor := services.NewFieldEditController(mockGateway, store, logger)
	errorHandler := consolehttp.NewErrorHandler(logger)
	handler := consolehttp.NewTicketHandler(store, editor, errorHandler, logger)

	mockGateway.On("List", mock.Anything, ports.TicketFilters{}).Return(viewFixture(), nil).Once()
	require.NoError(t, store.Load(context.Background(), ports.TicketFilters{}))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &ticketServer{Server: server, gateway: mockGateway}
}

func (s *ticketServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// openDetail installs ticket 1 as the edit shadow.
func (s *ticketServer) openDetail(t *testing.T) {
	t.Helper()
	detail := domain.Ticket{
		ID:        1,
		Status:    domain.StatusOpen,
		Priority:  domain.PriorityLow,
		Location:  "Halifax",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	s.gateway.On("GetByID", mock.Anything, int64(1)).Return(&detail, nil).Once()
	resp := s.do(t, http.MethodPost, "/tickets/1/open", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeDetail(t *testing.T, resp *http.Response) consolehttp.DetailResponse {
	t.Helper()
	var body struct {
		Data consolehttp.DetailResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Data
}

func TestTicketHandler_GetTicket(t *testing.T) {
	server := newTicketServer(t)

	resp := server.do(t, http.MethodGet, "/tickets/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = server.do(t, http.MethodGet, "/tickets/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = server.do(t, http.MethodGet, "/tickets/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTicketHandler_OpenAndClose(t *testing.T) {
	server := newTicketServer(t)
	server.openDetail(t)

	// Editing without matching the open ticket conflicts.
	resp := server.do(t, http.MethodPatch, "/tickets/2/fields/priority", `{"value":"high"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = server.do(t, http.MethodDelete, "/selection", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// With the selection closed, field edits conflict for any id.
	resp = server.do(t, http.MethodPatch, "/tickets/1/fields/priority", `{"value":"high"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTicketHandler_EditField(t *testing.T) {
	t.Run("committed edit returns the updated shadow", func(t *testing.T) {
		server := newTicketServer(t)
		server.openDetail(t)

		server.gateway.On("PatchFields", mock.Anything, int64(1), mock.Anything).
			Return(&domain.Ticket{ID: 1}, nil).Once()

		resp := server.do(t, http.MethodPatch, "/tickets/1/fields/priority", `{"value":"urgent"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		detail := decodeDetail(t, resp)
		assert.Equal(t, domain.PriorityUrgent, detail.Ticket.Priority)
		assert.Equal(t, ports.EditCommitted, detail.Fields[ports.FieldPriority].State)
	})

	t.Run("rejected edit returns 422 with the restored value", func(t *testing.T) {
		server := newTicketServer(t)
		server.openDetail(t)

		server.gateway.On("PatchFields", mock.Anything, int64(1), mock.Anything).
			Return(nil, fmt.Errorf("backend rejected")).Once()

		resp := server.do(t, http.MethodPatch, "/tickets/1/fields/priority", `{"value":"urgent"}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		detail := decodeDetail(t, resp)
		assert.Equal(t, domain.PriorityLow, detail.Ticket.Priority)
		assert.Equal(t, ports.EditRolledBack, detail.Fields[ports.FieldPriority].State)
		assert.NotEmpty(t, detail.Fields[ports.FieldPriority].Error)
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		server := newTicketServer(t)
		server.openDetail(t)

		resp := server.do(t, http.MethodPatch, "/tickets/1/fields/owner", `{"value":"pat"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTicketHandler_UpdateStatusAndArchive(t *testing.T) {
	server := newTicketServer(t)

	server.gateway.On("PatchStatus", mock.Anything, int64(1), domain.StatusResolved).
		Return(&domain.Ticket{ID: 1, Status: domain.StatusResolved}, nil).Once()
	resp := server.do(t, http.MethodPatch, "/tickets/1/status", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	server.gateway.On("PatchStatus", mock.Anything, int64(2), domain.StatusArchived).
		Return(&domain.Ticket{ID: 2, Status: domain.StatusArchived}, nil).Once()
	resp = server.do(t, http.MethodPost, "/tickets/2/archive", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = server.do(t, http.MethodPatch, "/tickets/1/status", `{"status":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	server.gateway.AssertExpectations(t)
}

func TestTicketHandler_AddComment(t *testing.T) {
	server := newTicketServer(t)
	server.openDetail(t)

	server.gateway.On("AddComment", mock.Anything, int64(1), "checked it").
		Return(&domain.Comment{ID: "c1", Text: "checked it"}, nil).Once()

	resp := server.do(t, http.MethodPost, "/tickets/1/comments", `{"text":"checked it"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = server.do(t, http.MethodPost, "/tickets/1/comments", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
