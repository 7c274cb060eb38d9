package services

import (
	"context"
	"time"

	"aponte/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error {
	args := m.Called(ctx, userID, pushToken)
	return args.Error(0)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) Upsert(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, userID, update)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) SetPhotoKey(ctx context.Context, profileID int64, key *string) error {
	args := m.Called(ctx, profileID, key)
	return args.Error(0)
}

type mockMatchStore struct {
	mock.Mock
}

func (m *mockMatchStore) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Match), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMatchStore) ActiveForUser(ctx context.Context, userID int64, now time.Time) (*models.Match, error) {
	args := m.Called(ctx, userID, now)
	if v := args.Get(0); v != nil {
		return v.(*models.Match), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMatchStore) AssignDaily(ctx context.Context, userID int64, now, expiresAt time.Time) (*models.Match, bool, error) {
	args := m.Called(ctx, userID, now, expiresAt)
	if v := args.Get(0); v != nil {
		return v.(*models.Match), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockMessageStore) ListByMatch(ctx context.Context, matchID int64) ([]models.Message, error) {
	args := m.Called(ctx, matchID)
	if v := args.Get(0); v != nil {
		return v.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) MessagesChanged(ctx context.Context, userID, matchID int64, preview string) {
	m.Called(ctx, userID, matchID, preview)
}

func (m *mockNotifier) MatchAssigned(ctx context.Context, userID, matchID int64) {
	m.Called(ctx, userID, matchID)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) AllowMessage(ctx context.Context, userID int64) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
