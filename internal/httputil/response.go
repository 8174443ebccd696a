package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/creators-jp/portal-server/internal/errors"
)

// Meta accompanies every response body.
type Meta struct {
	FromCache bool   `json:"fromCache"`
	CachedAt  string `json:"cachedAt,omitempty"`
	RequestID string `json:"requestId"`
}

// SuccessResponse is the generic success envelope.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    Meta `json:"meta"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
	Meta    Meta      `json:"meta"`
}

type ErrorBody struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes data in the success envelope with a 200 status.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    Meta{RequestID: uuid.NewString()},
	})
}

// WriteCached is WriteSuccess with cache provenance in the meta block.
func WriteCached(w http.ResponseWriter, data any, cachedAt string) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    Meta{FromCache: true, CachedAt: cachedAt, RequestID: uuid.NewString()},
	})
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	writeJSON(w, StatusFromCode(appErr.Code), ErrorResponse{
		Success: false,
		Error:   ErrorBody{Code: appErr.Code, Message: appErr.Message},
		Meta:    Meta{RequestID: uuid.NewString()},
	})
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidSite,
		apperrors.ErrCodeInvalidPeriod:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeAuthRequired,
		apperrors.ErrCodeAuthExpired,
		apperrors.ErrCodeAuthInvalid:
		return http.StatusUnauthorized

	// 403 Forbidden
	case apperrors.ErrCodeAdminRequired,
		apperrors.ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	// 502 Bad Gateway
	case apperrors.ErrCodeSync,
		apperrors.ErrCodeGA4,
		apperrors.ErrCodeGSC,
		apperrors.ErrCodeNotify:
		return http.StatusBadGateway

	// 500 Internal Server Error
	case apperrors.ErrCodeConfig,
		apperrors.ErrCodeDatabase,
		apperrors.ErrCodeInternal:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
