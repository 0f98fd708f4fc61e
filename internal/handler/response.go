package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

func writeData(w http.ResponseWriter, code int, message string, data any) {
	writeEnvelope(w, model.APIResponse{
		Code:    code,
		Status:  apierror.StatusLabel(code),
		Message: message,
		Data:    data,
	})
}

// writeError renders any error through the uniform envelope. Unclassified
// errors become a 500 carrying the error's own message; driver-level
// errors are masked behind a generic message so internal structure never
// leaks.
func writeError(w http.ResponseWriter, err error) {
	envelope := model.APIResponse{
		Code:    http.StatusInternalServerError,
		Status:  "INTERNAL_SERVER_ERROR",
		Message: err.Error(),
	}

	var apiErr *apierror.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &apiErr):
		envelope.Code = apiErr.Code
		envelope.Status = apiErr.Status
		envelope.Message = apiErr.Message
		envelope.Errors = apiErr.Fields
	case errors.Is(err, model.ErrEmailTaken):
		// A concurrent duplicate slipped past the advisory pre-check;
		// the unique constraint caught it. Same field error as the
		// validator would have produced.
		validationEnvelope(&envelope, map[string]string{"email": "Email already been taken"})
	case errors.Is(err, model.ErrUsernameTaken):
		validationEnvelope(&envelope, map[string]string{"username": "Username already been taken"})
	case errors.As(err, &pgErr):
		envelope.Message = "An unexpected error occurred."
		slog.Error("masked database error", "error", err.Error())
	default:
		slog.Error("unhandled error", "error", err.Error())
	}

	writeEnvelope(w, envelope)
}

func validationEnvelope(envelope *model.APIResponse, fields map[string]string) {
	failure := apierror.NewValidation(fields)
	envelope.Code = failure.Code
	envelope.Status = failure.Status
	envelope.Message = failure.Message
	envelope.Errors = failure.Fields
}

func writeEnvelope(w http.ResponseWriter, envelope model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(envelope.Code)
	_ = json.NewEncoder(w).Encode(envelope)
}
