package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/event"
	"go-auth-service/internal/model"
	"go-auth-service/internal/validation"
	"go-auth-service/pkg/apierror"
)

const invalidCredentialsMessage = "These credentials do not match our records"

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindActiveByEmail(ctx context.Context, email string) (model.User, error)
	FindActiveByUUID(ctx context.Context, uuid string) (model.User, error)
}

// TokenIssuer mints the two token classes.
type TokenIssuer interface {
	IssueAccess(user model.UserResponse) (string, error)
	IssueRefresh(user model.UserResponse) (string, error)
}

// AuthService orchestrates the store, hasher, and token issuer. It holds
// no per-request state; every method is an independent unit of work over
// its explicit inputs.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	bus    event.Bus
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, bus event.Bus) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, bus: bus}
}

// Register hashes the password and persists the user with the supplied
// activity flag and creation timestamp. A duplicate that slipped past
// the validator's pre-check surfaces from the store as a field-level
// taken error.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.UserResponse, error) {
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	createdAt, err := validation.ParseDate(req.CreatedAt)
	if err != nil {
		// The validator checked the shape already; reaching here means
		// the handler skipped validation, which is a programming error.
		return model.UserResponse{}, apierror.New(http.StatusUnprocessableEntity, "created_at must be a valid date")
	}

	user := model.User{
		UUID:      uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		Provider:  model.ProviderLocal,
		IsActive:  req.IsActive,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.UserResponse{}, err
	}

	s.publish(event.TypeUserRegistered, user)
	return user.ToResponse(), nil
}

// Login fails with one uniform message whether the email is unknown, the
// password is wrong, or the user is inactive; callers can never tell
// which. Active lookups treat inactive users as missing, so the first
// two cases collapse naturally.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.LoginResult, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil || !s.hasher.Verify(password, user.Password) {
		if err == nil || isNotFound(err) {
			return model.LoginResult{}, apierror.New(http.StatusBadRequest, invalidCredentialsMessage)
		}
		return model.LoginResult{}, err
	}

	dto := user.ToResponse()

	accessToken, err := s.tokens.IssueAccess(dto)
	if err != nil {
		return model.LoginResult{}, err
	}
	refreshToken, err := s.tokens.IssueRefresh(dto)
	if err != nil {
		return model.LoginResult{}, err
	}

	s.publish(event.TypeUserLoggedIn, user)
	return model.LoginResult{User: dto, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// GetProfile resolves the identity already proven by an access token.
// Unlike login, a miss here is an explicit not-found.
func (s *AuthService) GetProfile(ctx context.Context, userUUID string) (model.UserResponse, error) {
	user, err := s.users.FindActiveByUUID(ctx, userUUID)
	if err != nil {
		if isNotFound(err) {
			return model.UserResponse{}, apierror.New(http.StatusNotFound, "User not found")
		}
		return model.UserResponse{}, err
	}

	return user.ToResponse(), nil
}

// RefreshToken mints a new access token for the identity proven by a
// refresh token. The refresh token itself is not rotated.
func (s *AuthService) RefreshToken(ctx context.Context, userUUID string) (model.RefreshResult, error) {
	user, err := s.users.FindActiveByUUID(ctx, userUUID)
	if err != nil {
		if isNotFound(err) {
			return model.RefreshResult{}, apierror.New(http.StatusNotFound, "User not found")
		}
		return model.RefreshResult{}, err
	}

	accessToken, err := s.tokens.IssueAccess(user.ToResponse())
	if err != nil {
		return model.RefreshResult{}, err
	}

	s.publish(event.TypeTokenRefreshed, user)
	return model.RefreshResult{AccessToken: accessToken}, nil
}

func (s *AuthService) publish(t event.Type, user model.User) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		UserUUID:  user.UUID,
		Username:  user.Username,
		Email:     user.Email,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrUserNotFound)
}
