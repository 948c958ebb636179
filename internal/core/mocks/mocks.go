package mocks

import (
	"context"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketGateway is a mock implementation of ports.TicketGateway
type MockTicketGateway struct {
	mock.Mock
}

func NewMockTicketGateway() *MockTicketGateway {
	return &MockTicketGateway{}
}

func (m *MockTicketGateway) List(ctx context.Context, filters ports.TicketFilters) ([]domain.Ticket, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketGateway) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketGateway) PatchStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketGateway) PatchFields(ctx context.Context, id int64, patch ports.FieldPatch) (*domain.Ticket, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketGateway) AddComment(ctx context.Context, id int64, text string) (*domain.Comment, error) {
	args := m.Called(ctx, id, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

// MockThreadGateway is a mock implementation of ports.ThreadGateway
type MockThreadGateway struct {
	mock.Mock
}

func NewMockThreadGateway() *MockThreadGateway {
	return &MockThreadGateway{}
}

func (m *MockThreadGateway) Replies(ctx context.Context, threadTS string) ([]domain.Reply, error) {
	args := m.Called(ctx, threadTS)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reply), args.Error(1)
}

func (m *MockThreadGateway) SendReply(ctx context.Context, threadTS, text string) error {
	args := m.Called(ctx, threadTS, text)
	return args.Error(0)
}

// MockTokenProvider is a mock implementation of ports.TokenProvider
type MockTokenProvider struct {
	mock.Mock
}

func NewMockTokenProvider() *MockTokenProvider {
	return &MockTokenProvider{}
}

func (m *MockTokenProvider) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
