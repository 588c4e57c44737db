package mocks

import (
	"context"
	"encoding/json"

	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/services"
	"github.com/benmeehan/carstatus-relay/pkg/store"
	"github.com/stretchr/testify/mock"
)

// MockCommandStore is a mock implementation of the CommandStore interface
type MockCommandStore struct {
	mock.Mock
}

func (m *MockCommandStore) Create(ctx context.Context, record models.StatusRecord) (models.StatusRecord, int, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(models.StatusRecord), args.Int(1), args.Error(2)
}

func (m *MockCommandStore) List(ctx context.Context) ([]models.StatusRecord, int, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]models.StatusRecord)
	return records, args.Int(1), args.Error(2)
}

// MockSurface is a mock implementation of the Surface and RecordSink interfaces
type MockSurface struct {
	mock.Mock
}

func (m *MockSurface) ShowMessage(level services.MessageLevel, text string) {
	m.Called(level, text)
}

func (m *MockSurface) ShowSent(record models.StatusRecord) {
	m.Called(record)
}

func (m *MockSurface) ShowLastCommand(token string) {
	m.Called(token)
}

func (m *MockSurface) ShowRecords(records []models.StatusRecord) {
	m.Called(records)
}

// MockAddressResolver is a mock implementation of the AddressResolver interface
type MockAddressResolver struct {
	mock.Mock
}

func (m *MockAddressResolver) LocalAddress() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// MockForwarder is a mock implementation of the store Forwarder interface
type MockForwarder struct {
	mock.Mock
}

func (m *MockForwarder) Forward(ctx context.Context, method, id string, body []byte) (*store.Reply, error) {
	args := m.Called(ctx, method, id, body)
	reply, _ := args.Get(0).(*store.Reply)
	return reply, args.Error(1)
}

// MockNotifier is a mock implementation of the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(record json.RawMessage) error {
	args := m.Called(record)
	return args.Error(0)
}
