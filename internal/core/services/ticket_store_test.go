package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/mocks"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
	"github.com/lorrc/ops-console-engine/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeFixture() []domain.Ticket {
	return []domain.Ticket{
		ticketAt(1, domain.StatusOpen, "Halifax", time.Hour),
		ticketAt(2, domain.StatusInProgress, "Bedford", 2*time.Hour),
	}
}

// recordingMirror captures mirror callbacks for assertions.
type recordingMirror struct {
	statuses []domain.TicketStatus
	comments []domain.Comment
}

func (m *recordingMirror) MirrorStatus(id int64, status domain.TicketStatus, updatedAt time.Time) {
	m.statuses = append(m.statuses, status)
}

func (m *recordingMirror) MirrorComment(id int64, comment domain.Comment, updatedAt time.Time) {
	m.comments = append(m.comments, comment)
}

func TestTicketStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the collection", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		store := services.NewTicketStore(mockGateway, nil, testLogger())

		filters := ports.TicketFilters{Category: domain.CategoryTech}
		mockGateway.On("List", ctx, filters).Return(storeFixture(), nil).Once()
		require.NoError(t, store.Load(ctx, filters))
		assert.Len(t, store.Snapshot(), 2)

		// A second load with a smaller result set wins wholesale.
		mockGateway.On("List", ctx, filters).Return([]domain.Ticket{storeFixture()[0]}, nil).Once()
		require.NoError(t, store.Load(ctx, filters))
		assert.Len(t, store.Snapshot(), 1)

		mockGateway.AssertExpectations(t)
	})

	t.Run("failure keeps the previous collection", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		store := services.NewTicketStore(mockGateway, nil, testLogger())

		filters := ports.TicketFilters{}
		mockGateway.On("List", ctx, filters).Return(storeFixture(), nil).Once()
		require.NoError(t, store.Load(ctx, filters))

		mockGateway.On("List", ctx, filters).Return(nil, errors.New("backend down")).Once()
		require.Error(t, store.Load(ctx, filters))
		assert.Len(t, store.Snapshot(), 2)
	})

	t.Run("broadcasts the loaded event", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		mockBroadcaster := mocks.NewMockEventBroadcaster()
		store := services.NewTicketStore(mockGateway, mockBroadcaster, testLogger())

		mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
		mockBroadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventLoaded
		})).Return(nil).Once()

		require.NoError(t, store.Load(ctx, ports.TicketFilters{}))
		mockBroadcaster.AssertExpectations(t)
	})
}

func TestTicketStore_ApplyStatus(t *testing.T) {
	ctx := context.Background()
	mockGateway := mocks.NewMockTicketGateway()
	store := services.NewTicketStore(mockGateway, nil, testLogger())

	mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
	require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

	before, _ := store.Get(1)
	store.ApplyStatus(1, domain.StatusResolved)

	after, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, domain.StatusResolved, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	// Every other field is untouched.
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Location, after.Location)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	// Unknown id is a no-op.
	store.ApplyStatus(99, domain.StatusClosed)
	assert.Len(t, store.Snapshot(), 2)
}

func TestTicketStore_ApplyStatus_MirrorsShadow(t *testing.T) {
	ctx := context.Background()
	mockGateway := mocks.NewMockTicketGateway()
	store := services.NewTicketStore(mockGateway, nil, testLogger())

	mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
	require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

	mirror := &recordingMirror{}
	store.SetMirror(mirror)
	store.ApplyStatus(1, domain.StatusClosed)
	require.Len(t, mirror.statuses, 1)
	assert.Equal(t, domain.StatusClosed, mirror.statuses[0])

	// After the detail view closes, nothing is mirrored.
	store.SetMirror(nil)
	store.ApplyStatus(1, domain.StatusOpen)
	assert.Len(t, mirror.statuses, 1)
}

func TestTicketStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("optimistic write then patch", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		store := services.NewTicketStore(mockGateway, nil, testLogger())

		mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
		require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

		mockGateway.On("PatchStatus", ctx, int64(1), domain.StatusArchived).
			Return(&domain.Ticket{ID: 1, Status: domain.StatusArchived}, nil).Once()

		require.NoError(t, store.UpdateStatus(ctx, 1, domain.StatusArchived))
		ticket, _ := store.Get(1)
		assert.Equal(t, domain.StatusArchived, ticket.Status)
		mockGateway.AssertExpectations(t)
	})

	t.Run("failed patch keeps the optimistic write", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		store := services.NewTicketStore(mockGateway, nil, testLogger())

		mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
		require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

		mockGateway.On("PatchStatus", ctx, int64(1), domain.StatusResolved).
			Return(nil, errors.New("backend down")).Once()

		require.Error(t, store.UpdateStatus(ctx, 1, domain.StatusResolved))
		ticket, _ := store.Get(1)
		assert.Equal(t, domain.StatusResolved, ticket.Status)
	})

	t.Run("rejects invalid status and unknown ticket", func(t *testing.T) {
		mockGateway := mocks.NewMockTicketGateway()
		store := services.NewTicketStore(mockGateway, nil, testLogger())

		assert.ErrorIs(t, store.UpdateStatus(ctx, 1, domain.TicketStatus("bogus")), apperrors.ErrInvalidStatus)
		assert.ErrorIs(t, store.UpdateStatus(ctx, 1, domain.StatusOpen), apperrors.ErrTicketNotFound)
		mockGateway.AssertNotCalled(t, "PatchStatus")
	})
}

func TestTicketStore_AppendComment(t *testing.T) {
	ctx := context.Background()
	mockGateway := mocks.NewMockTicketGateway()
	store := services.NewTicketStore(mockGateway, nil, testLogger())

	mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
	require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

	mirror := &recordingMirror{}
	store.SetMirror(mirror)

	comment := domain.Comment{ID: "c1", Text: "on my way"}
	store.AppendComment(2, comment)

	ticket, _ := store.Get(2)
	require.Len(t, ticket.Comments, 1)
	assert.Equal(t, "on my way", ticket.Comments[0].Text)
	require.Len(t, mirror.comments, 1)

	// Comments only grow.
	store.AppendComment(2, domain.Comment{ID: "c2", Text: "fixed"})
	ticket, _ = store.Get(2)
	assert.Len(t, ticket.Comments, 2)
}

func TestTicketStore_Replace(t *testing.T) {
	ctx := context.Background()
	mockGateway := mocks.NewMockTicketGateway()
	store := services.NewTicketStore(mockGateway, nil, testLogger())

	mockGateway.On("List", ctx, ports.TicketFilters{}).Return(storeFixture(), nil)
	require.NoError(t, store.Load(ctx, ports.TicketFilters{}))

	detail := storeFixture()[0]
	detail.Description = "full detail"
	detail.Comments = []domain.Comment{{ID: "c1", Text: "first"}}
	store.Replace(detail)

	ticket, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "full detail", ticket.Description)
	require.Len(t, ticket.Comments, 1)

	// Replacing an unknown ticket appends it.
	store.Replace(ticketAt(9, domain.StatusOpen, "Truro", time.Hour))
	assert.Len(t, store.Snapshot(), 3)
}
