package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridemate/internal/domain"
	"ridemate/internal/http/middleware"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses. Capacity and
// duplicate-booking failures are client errors (400); persistence
// failures stay generic with details in the logs only.
func RespondDomainError(c *gin.Context, err error) {
	var multi domain.ValidationErrors
	if errors.As(err, &multi) {
		details := make([]gin.H, 0, len(multi.Fields))
		for _, f := range multi.Fields {
			details = append(details, gin.H{"field": f.Field, "message": f.Msg})
		}
		respondError(c, http.StatusBadRequest, "validation_error", "validation failed", details)
		return
	}

	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsCapacity(err):
		respondError(c, http.StatusBadRequest, "insufficient_seats", err.Error(), nil)
	case domain.IsDuplicateBooking(err):
		respondError(c, http.StatusBadRequest, "duplicate_booking", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
