package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Page is the envelope for paginated list responses.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error writes the response matching err's kind. Unknown errors become a bare 500.
func Error(w http.ResponseWriter, err error) {
	if v, ok := apperr.Violations(err); ok {
		JSONError(w, http.StatusUnprocessableEntity, apperr.ErrValidationFailed.Error(), v)
		return
	}
	var ce *apperr.ConstraintError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.As(err, &ce):
		var details any
		if ce.Field != "" {
			details = map[string]string{"field": ce.Field}
		}
		JSONError(w, http.StatusConflict, apperr.ErrConstraintViolation.Error(), details)
	case errors.Is(err, apperr.ErrInvalidOrExpiredToken):
		JSONError(w, http.StatusBadRequest, apperr.ErrInvalidOrExpiredToken.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, apperr.ErrForbidden):
		JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, apperr.ErrExternalService):
		JSONError(w, http.StatusBadGateway, apperr.ErrExternalService.Error(), nil)
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
