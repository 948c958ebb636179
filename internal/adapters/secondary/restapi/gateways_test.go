package restapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lorrc/ops-console-engine/internal/adapters/secondary/restapi"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/mocks"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *restapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := mocks.NewMockTokenProvider()
	tokens.On("Token", mock.Anything).Return("test-token", nil)

	return restapi.NewClient(
		restapi.Config{BaseURL: server.URL + "/"},
		tokens,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"data":    data,
		"error":   errMsg,
	})
}

func TestTicketGateway_List(t *testing.T) {
	ctx := context.Background()

	t.Run("sends filters and bearer token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/tickets", r.URL.Path)
			assert.Equal(t, "tech", r.URL.Query().Get("category"))
			assert.Equal(t, "Halifax", r.URL.Query().Get("location"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, true, []domain.Ticket{{ID: 1, Title: "projector"}}, "")
		})

		tickets, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{
			Category: domain.CategoryTech,
			Location: "Halifax",
		})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "projector", tickets[0].Title)
	})

	t.Run("omits empty filters", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)
			writeEnvelope(w, http.StatusOK, true, []domain.Ticket{}, "")
		})

		tickets, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{})
		require.NoError(t, err)
		assert.Empty(t, tickets)
	})
}

func TestTicketGateway_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/tickets/42", r.URL.Path)
			writeEnvelope(w, http.StatusOK, true, domain.Ticket{ID: 42, Status: domain.StatusOpen}, "")
		})

		ticket, err := restapi.NewTicketGateway(client).GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), ticket.ID)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusNotFound, false, nil, "ticket not found")
		})

		_, err := restapi.NewTicketGateway(client).GetByID(ctx, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		var gwErr *apperrors.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, apperrors.KindServerRejected, gwErr.Kind)
		assert.Equal(t, "ticket not found", gwErr.Message)
	})
}

func TestTicketGateway_PatchStatus(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tickets/7/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "resolved", body["status"])

		writeEnvelope(w, http.StatusOK, true, domain.Ticket{ID: 7, Status: domain.StatusResolved}, "")
	})

	ticket, err := restapi.NewTicketGateway(client).PatchStatus(ctx, 7, domain.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, ticket.Status)
}

func TestTicketGateway_PatchFields(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tickets/7", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urgent", body["priority"])
		_, hasStatus := body["status"]
		assert.False(t, hasStatus, "nil patch members must be omitted")

		writeEnvelope(w, http.StatusOK, true, domain.Ticket{ID: 7, Priority: domain.PriorityUrgent}, "")
	})

	priority := domain.PriorityUrgent
	ticket, err := restapi.NewTicketGateway(client).PatchFields(ctx, 7, ports.FieldPatch{Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, ticket.Priority)
}

func TestTicketGateway_PatchFields_EmptyPatch(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	_, err := restapi.NewTicketGateway(client).PatchFields(context.Background(), 7, ports.FieldPatch{})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Zero(t, requests, "an empty patch must not reach the backend")
}

func TestTicketGateway_AddComment(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tickets/7/comments", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "on my way", body["text"])

		writeEnvelope(w, http.StatusCreated, true, domain.Comment{ID: "c1", Text: "on my way"}, "")
	})

	comment, err := restapi.NewTicketGateway(client).AddComment(ctx, 7, "on my way")
	require.NoError(t, err)
	assert.Equal(t, "c1", comment.ID)
}

func TestThreadGateway_Replies(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/slack/thread-replies/1234.5678", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, map[string]any{
			"replies": []domain.Reply{{Ts: "1.0", Text: "on it", FromStaff: true}},
		}, "")
	})

	replies, err := restapi.NewThreadGateway(client).Replies(ctx, "1234.5678")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.True(t, replies[0].FromStaff)
}

func TestThreadGateway_SendReply(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/slack/reply", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1234.5678", body["thread_ts"])
		assert.Equal(t, "thanks", body["text"])

		writeEnvelope(w, http.StatusOK, true, nil, "")
	})

	require.NoError(t, restapi.NewThreadGateway(client).SendReply(ctx, "1234.5678", "thanks"))
}

func TestClient_ErrorTranslation(t *testing.T) {
	ctx := context.Background()

	t.Run("401 becomes unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{})
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("token provider failure becomes unauthorized without a request", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		t.Cleanup(server.Close)

		tokens := mocks.NewMockTokenProvider()
		tokens.On("Token", mock.Anything).Return("", apperrors.ErrTokenExpired)
		client := restapi.NewClient(restapi.Config{BaseURL: server.URL}, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{})
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Zero(t, requests)
	})

	t.Run("success false becomes server rejection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid status transition")
		})

		_, err := restapi.NewTicketGateway(client).PatchStatus(ctx, 7, domain.StatusClosed)
		var gwErr *apperrors.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, apperrors.KindServerRejected, gwErr.Kind)
		assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
		assert.Equal(t, "invalid status transition", gwErr.Message)
	})

	t.Run("connection refused becomes transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		tokens := mocks.NewMockTokenProvider()
		tokens.On("Token", mock.Anything).Return("test-token", nil)
		client := restapi.NewClient(restapi.Config{BaseURL: server.URL}, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{})
		var gwErr *apperrors.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, apperrors.KindTransport, gwErr.Kind)
	})

	t.Run("non-json error body becomes server rejection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream timed out"))
		})

		_, err := restapi.NewTicketGateway(client).List(ctx, ports.TicketFilters{})
		var gwErr *apperrors.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, apperrors.KindServerRejected, gwErr.Kind)
		assert.Equal(t, http.StatusBadGateway, gwErr.StatusCode)
	})
}
