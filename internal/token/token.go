package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-auth-service/internal/model"
)

// Class discriminates the two token kinds. Each class is signed with
// its own secret, so a token of one class never verifies as the other.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

// schemaVersion is the current claims schema version. Fields are only
// ever added to Claims, never renamed, so tokens carrying an older (or
// absent) version stay verifiable until they expire.
const schemaVersion = 1

var (
	// ErrExpired means the signature checked out but the token is past
	// its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers everything else: bad signature, bad structure,
	// wrong class.
	ErrInvalid = errors.New("token invalid")
)

// Claims is the signed payload identifying the subject.
type Claims struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Type     string `json:"typ"`
	Version  int    `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies access and refresh tokens with distinct
// secrets and lifetimes.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Manager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (m *Manager) IssueAccess(user model.UserResponse) (string, error) {
	return m.sign(user, ClassAccess, m.accessSecret, m.accessTTL)
}

func (m *Manager) IssueRefresh(user model.UserResponse) (string, error) {
	return m.sign(user, ClassRefresh, m.refreshSecret, m.refreshTTL)
}

// Verify checks signature and expiry against the secret matching the
// class. It returns ErrExpired for a validly signed but stale token and
// ErrInvalid for anything else; callers render different messages for
// the two outcomes.
func (m *Manager) Verify(tokenString string, class Class) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secretFor(class), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	if !parsed.Valid || claims.Type != string(class) || claims.UUID == "" {
		return nil, ErrInvalid
	}
	if claims.Version > schemaVersion {
		return nil, ErrInvalid
	}

	return claims, nil
}

func (m *Manager) sign(user model.UserResponse, class Class, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UUID:     user.UUID,
		Username: user.Username,
		Email:    user.Email,
		Provider: user.Provider,
		Type:     string(class),
		Version:  schemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) secretFor(class Class) []byte {
	if class == ClassRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}
