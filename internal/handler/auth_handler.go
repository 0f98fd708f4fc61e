package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/service"
	"go-auth-service/internal/validation"
	"go-auth-service/pkg/apierror"
)

const maxBodySize = 1 << 20

type AuthHandler struct {
	service        *service.AuthService
	registerSchema validation.Schema
	loginSchema    validation.Schema
}

func NewAuthHandler(svc *service.AuthService, users validation.UserExistence, policy validation.PasswordPolicy) *AuthHandler {
	return &AuthHandler{
		service:        svc,
		registerSchema: validation.RegisterSchema(users, policy),
		loginSchema:    validation.LoginSchema(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if !h.decodeAndValidate(w, r, h.registerSchema, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, "Success create an account", user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if !h.decodeAndValidate(w, r, h.loginSchema, &payload) {
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success login", result)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New(http.StatusUnauthorized, "Unauthorized. Please login to continue."))
		return
	}

	user, err := h.service.GetProfile(r.Context(), claims.UUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success get user", user)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New(http.StatusBadRequest, "Refresh token is required"))
		return
	}

	result, err := h.service.RefreshToken(r.Context(), claims.UUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success generate access token", result)
}

// decodeAndValidate reads the body once, runs it through the schema as a
// raw map so absent and mistyped fields are visible, and only then
// decodes into the typed request.
func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, schema validation.Schema, out any) bool {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, apierror.New(http.StatusBadRequest, "Invalid JSON body"))
		return false
	}

	payload := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, apierror.New(http.StatusBadRequest, "Invalid JSON body"))
			return false
		}
	}

	fieldErrors, err := schema.Validate(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return false
	}
	if len(fieldErrors) > 0 {
		writeError(w, apierror.NewValidation(fieldErrors))
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		writeError(w, apierror.New(http.StatusBadRequest, "Invalid JSON body"))
		return false
	}

	return true
}
