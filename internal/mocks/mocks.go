package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"supplier-chat/internal/models"
	"supplier-chat/internal/presence"
	"supplier-chat/internal/repositories"
)

var (
	_ repositories.ThreadRepository  = (*ThreadRepositoryMock)(nil)
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ presence.Set                   = (*PresenceMock)(nil)
)

type ThreadRepositoryMock struct {
	mock.Mock
}

func (m *ThreadRepositoryMock) UpsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *ThreadRepositoryMock) CreateOrGetThread(ctx context.Context, listingID, listingTitle string, buyerID, sellerID int64) (models.ThreadRecord, error) {
	args := m.Called(ctx, listingID, listingTitle, buyerID, sellerID)
	var thread models.ThreadRecord
	if val := args.Get(0); val != nil {
		thread = val.(models.ThreadRecord)
	}
	return thread, args.Error(1)
}

func (m *ThreadRepositoryMock) GetThread(ctx context.Context, threadID int64) (models.ThreadRecord, error) {
	args := m.Called(ctx, threadID)
	var thread models.ThreadRecord
	if val := args.Get(0); val != nil {
		thread = val.(models.ThreadRecord)
	}
	return thread, args.Error(1)
}

func (m *ThreadRepositoryMock) IsParticipant(ctx context.Context, threadID, userID int64) (bool, error) {
	args := m.Called(ctx, threadID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ThreadRepositoryMock) ListThreads(ctx context.Context, userID int64) ([]models.Thread, error) {
	args := m.Called(ctx, userID)
	var list []models.Thread
	if val := args.Get(0); val != nil {
		list = val.([]models.Thread)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error) {
	args := m.Called(ctx, threadID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type PresenceMock struct {
	mock.Mock
}

func (m *PresenceMock) Add(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceMock) Remove(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceMock) Members(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}
