package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aponte/internal/models"
	"aponte/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterHashesPassword(t *testing.T) {
	store := new(mockUserStore)
	svc := NewUserService(store, "secret")

	store.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "rita@example.com" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	}).Return(nil)

	user, err := svc.Register(context.Background(), " Rita@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	store.AssertExpectations(t)
}

func TestRegisterValidatesInput(t *testing.T) {
	store := new(mockUserStore)
	svc := NewUserService(store, "secret")

	_, err := svc.Register(context.Background(), "rita.example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(context.Background(), "rita@example.com", "12345")
	assert.ErrorIs(t, err, ErrInvalidInput)

	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := new(mockUserStore)
	svc := NewUserService(store, "secret")

	store.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("email rita@example.com: %w", repository.ErrDuplicate))

	_, err := svc.Register(context.Background(), "rita@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesValidToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	store := new(mockUserStore)
	store.On("GetByEmail", mock.Anything, "rita@example.com").
		Return(&models.User{ID: 7, Email: "rita@example.com", PasswordHash: string(hash)}, nil)
	svc := NewUserService(store, "secret")

	sess, err := svc.Login(context.Background(), "rita@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)

	userID, err := svc.ValidateJWT(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	_, err = svc.Login(context.Background(), "rita@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	store := new(mockUserStore)
	store.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, fmt.Errorf("user: %w", repository.ErrNotFound))
	svc := NewUserService(store, "secret")

	_, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	svc := NewUserService(new(mockUserStore), "secret")
	other := NewUserService(new(mockUserStore), "other-secret")

	foreign, err := other.GenerateJWT(7)
	require.NoError(t, err)
	_, err = svc.ValidateJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().AddDate(-2, 0, 0) }
	expired, err := svc.GenerateJWT(7)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateJWT(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSetPushTokenClearsOnEmpty(t *testing.T) {
	store := new(mockUserStore)
	store.On("UpdatePushToken", mock.Anything, int64(7), (*string)(nil)).Return(nil)
	svc := NewUserService(store, "secret")

	require.NoError(t, svc.SetPushToken(context.Background(), 7, "  "))
	store.AssertExpectations(t)
}
