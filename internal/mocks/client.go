package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"supplier-chat/internal/models"
)

// HistoryMock stands in for the history HTTP client.
type HistoryMock struct {
	mock.Mock
}

func (m *HistoryMock) ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error) {
	args := m.Called(ctx, threadID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *HistoryMock) Threads(ctx context.Context) ([]models.Thread, error) {
	args := m.Called(ctx)
	var list []models.Thread
	if val := args.Get(0); val != nil {
		list = val.([]models.Thread)
	}
	return list, args.Error(1)
}

// SocketMock stands in for the chat socket client.
type SocketMock struct {
	mock.Mock
}

func (m *SocketMock) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *SocketMock) Close(code int, reason string) {
	m.Called(code, reason)
}

func (m *SocketMock) SendMessage(msg models.Message) {
	m.Called(msg)
}

func (m *SocketMock) SendTypingStatus(isTyping bool) {
	m.Called(isTyping)
}
