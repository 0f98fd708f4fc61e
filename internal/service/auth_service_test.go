package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/event"
	"go-auth-service/internal/model"
	"go-auth-service/internal/token"
	"go-auth-service/pkg/apierror"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) FindActiveByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindActiveByUUID(ctx context.Context, uuid string) (model.User, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(model.User), args.Error(1)
}

// fastHasher keeps service tests off the bcrypt cost curve.
type fastHasher struct{}

func (fastHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fastHasher) Verify(plain string, hashed string) bool {
	return hashed == "hashed:"+plain
}

func newTestTokens(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return m
}

func activeUser() model.User {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return model.User{
		UUID:      "7b0f4e9a-2a7f-4c26-9a57-57b28e8f3c11",
		Username:  "testuser",
		Email:     "testuser@example.com",
		Password:  "hashed:Password123!",
		Provider:  "local",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Run("hashes password and persists user", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())

		store.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.UUID != "" &&
				u.Username == "newuser" &&
				u.Password == "hashed:Password123!" &&
				u.Provider == "local" &&
				u.IsActive
		})).Return(nil)

		dto, err := svc.Register(context.Background(), model.RegisterRequest{
			Username:  "newuser",
			Email:     "newuser@example.com",
			Password:  "Password123!",
			IsActive:  true,
			CreatedAt: "2026-01-15T10:00:00Z",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, dto.UUID)
		assert.Equal(t, "newuser", dto.Username)
		store.AssertExpectations(t)
	})

	t.Run("duplicate slipping past the pre-check surfaces as taken error", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())

		store.On("Create", mock.Anything, mock.Anything).Return(model.ErrEmailTaken)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Username:  "newuser",
			Email:     "dup@example.com",
			Password:  "Password123!",
			IsActive:  true,
			CreatedAt: "2026-01-15T10:00:00Z",
		})

		assert.ErrorIs(t, err, model.ErrEmailTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success returns user and decodable token pair", func(t *testing.T) {
		store := new(MockUserStore)
		tokens := newTestTokens(t)
		svc := NewAuthService(store, fastHasher{}, tokens, event.NewBus())
		user := activeUser()

		store.On("FindActiveByEmail", mock.Anything, user.Email).Return(user, nil)

		result, err := svc.Login(context.Background(), user.Email, "Password123!")
		require.NoError(t, err)
		assert.Equal(t, user.UUID, result.User.UUID)

		accessClaims, err := tokens.Verify(result.AccessToken, token.ClassAccess)
		require.NoError(t, err)
		assert.Equal(t, user.UUID, accessClaims.UUID)

		refreshClaims, err := tokens.Verify(result.RefreshToken, token.ClassRefresh)
		require.NoError(t, err)
		assert.Equal(t, user.UUID, refreshClaims.UUID)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())
		user := activeUser()

		store.On("FindActiveByEmail", mock.Anything, "nobody@example.com").
			Return(model.User{}, model.ErrUserNotFound)
		store.On("FindActiveByEmail", mock.Anything, user.Email).Return(user, nil)

		_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "Password123!")
		_, wrongErr := svc.Login(context.Background(), user.Email, "WrongPassword!")

		var unknownAPI, wrongAPI *apierror.Error
		require.ErrorAs(t, unknownErr, &unknownAPI)
		require.ErrorAs(t, wrongErr, &wrongAPI)
		assert.Equal(t, 400, unknownAPI.Code)
		assert.Equal(t, unknownAPI.Message, wrongAPI.Message)
	})

	t.Run("storage failure propagates unchanged", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())

		storeErr := errors.New("connection refused")
		store.On("FindActiveByEmail", mock.Anything, mock.Anything).Return(model.User{}, storeErr)

		_, err := svc.Login(context.Background(), "testuser@example.com", "Password123!")
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestAuthService_GetProfile(t *testing.T) {
	t.Run("returns DTO for an active user", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())
		user := activeUser()

		store.On("FindActiveByUUID", mock.Anything, user.UUID).Return(user, nil)

		dto, err := svc.GetProfile(context.Background(), user.UUID)
		require.NoError(t, err)
		assert.Equal(t, user.UUID, dto.UUID)
		assert.Equal(t, user.Username, dto.Username)
	})

	t.Run("missing user is an explicit not-found", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())

		store.On("FindActiveByUUID", mock.Anything, "missing").Return(model.User{}, model.ErrUserNotFound)

		_, err := svc.GetProfile(context.Background(), "missing")

		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 404, apiErr.Code)
		assert.Equal(t, "User not found", apiErr.Message)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("issues a new access token only", func(t *testing.T) {
		store := new(MockUserStore)
		tokens := newTestTokens(t)
		svc := NewAuthService(store, fastHasher{}, tokens, event.NewBus())
		user := activeUser()

		store.On("FindActiveByUUID", mock.Anything, user.UUID).Return(user, nil)

		result, err := svc.RefreshToken(context.Background(), user.UUID)
		require.NoError(t, err)

		claims, err := tokens.Verify(result.AccessToken, token.ClassAccess)
		require.NoError(t, err)
		assert.Equal(t, user.UUID, claims.UUID)
	})

	t.Run("missing user is not-found", func(t *testing.T) {
		store := new(MockUserStore)
		svc := NewAuthService(store, fastHasher{}, newTestTokens(t), event.NewBus())

		store.On("FindActiveByUUID", mock.Anything, "missing").Return(model.User{}, model.ErrUserNotFound)

		_, err := svc.RefreshToken(context.Background(), "missing")

		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 404, apiErr.Code)
	})
}

func TestAuthService_PublishesAuthEvents(t *testing.T) {
	store := new(MockUserStore)
	bus := event.NewBus()
	svc := NewAuthService(store, fastHasher{}, newTestTokens(t), bus)
	user := activeUser()

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	store.On("FindActiveByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), user.Email, "Password123!")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, event.TypeUserLoggedIn, e.Type)
		assert.Equal(t, user.UUID, e.UserUUID)
	case <-time.After(time.Second):
		t.Fatal("expected a login event on the bus")
	}
}
