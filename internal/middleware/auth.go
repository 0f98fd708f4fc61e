package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go-auth-service/internal/model"
	"go-auth-service/internal/token"
	"go-auth-service/pkg/apierror"
)

// TokenVerifier checks a token of a given class and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string, class token.Class) (*token.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth gates a route on a bearer access token. Expired and
// malformed tokens both end in 401 but keep distinct messages.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "Unauthorized. Please login to continue.")
			return
		}

		bearer := strings.TrimSpace(header[7:])
		if bearer == "" {
			writeAuthError(w, http.StatusUnauthorized, "Unauthorized. Please login to continue.")
			return
		}

		claims, err := m.verifier.Verify(bearer, token.ClassAccess)
		if err != nil {
			writeVerifyError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefresh gates a route on a body-carried refresh token.
func (m *AuthMiddleware) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var payload model.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)

		payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
		if payload.RefreshToken == "" {
			writeAuthError(w, http.StatusBadRequest, "Refresh token is required")
			return
		}

		claims, err := m.verifier.Verify(payload.RefreshToken, token.ClassRefresh)
		if err != nil {
			writeVerifyError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*token.Claims)
	return claims, ok
}

func writeVerifyError(w http.ResponseWriter, err error) {
	if errors.Is(err, token.ErrExpired) {
		writeAuthError(w, http.StatusUnauthorized, "Token expired. Please login again.")
		return
	}
	writeAuthError(w, http.StatusUnauthorized, "Invalid token. Please login again.")
}

func writeAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Code:    code,
		Status:  apierror.StatusLabel(code),
		Message: message,
	})
}
