package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// apiResponse — единый конверт ответа API.
type apiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Code:    status,
		Message: message,
		Data:    data,
	})
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, "success", data)
}

// writeError переводит доменную ошибку в HTTP статус.
func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("internal error")
		writeJSON(w, status, "internal server error", nil)
		return
	}
	writeJSON(w, status, err.Error(), nil)
}

func statusFromError(err error) int {
	switch {
	case domain.IsValidation(err), isBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsNotFound(err),
		errors.Is(err, domain.ErrIdempotencyKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOrderNotPending),
		errors.Is(err, domain.ErrEmailTaken),
		domain.IsVersionConflict(err),
		errors.Is(err, domain.ErrPersistenceConflict),
		errors.Is(err, domain.ErrIdempotencyHashMismatch),
		errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, domain.ErrIdempotencyKeyRequired) ||
		errors.Is(err, domain.ErrIdempotencyRequestHashRequired)
}
