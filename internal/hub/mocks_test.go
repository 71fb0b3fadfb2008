package hub_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/idan5353/Chat-App/internal/models"
)

// MockStore is a testify double for the storage.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Register(ctx context.Context, roomID, connectionID, userID string) (models.Connection, error) {
	args := m.Called(roomID, connectionID, userID)
	return args.Get(0).(models.Connection), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, roomID, connectionID string) (bool, error) {
	args := m.Called(roomID, connectionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RemoveByConnection(ctx context.Context, connectionID string) (bool, error) {
	args := m.Called(connectionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListByRoom(ctx context.Context, roomID string) ([]models.Connection, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Connection), args.Error(1)
}

func (m *MockStore) AppendMessage(ctx context.Context, roomID, userID, text, originConnectionID string) (time.Time, error) {
	args := m.Called(roomID, userID, text, originConnectionID)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockDelivery is a testify double for the hub.DeliveryChannel interface.
type MockDelivery struct {
	mock.Mock
}

func (m *MockDelivery) Send(ctx context.Context, domain, connectionID string, payload []byte) error {
	args := m.Called(domain, connectionID, payload)
	return args.Error(0)
}
