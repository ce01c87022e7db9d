// Package handlers contains the HTTP handlers for the JSON API.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RespondError writes err as {"error": message} with a matching status.
// Auth and store messages pass through so the client can show them inline.
func RespondError(c *gin.Context, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.Request.URL.Path, "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

func classify(err error) (int, string) {
	var authErr *apperrors.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case apperrors.AuthInvalidInput:
			return http.StatusBadRequest, authErr.Message
		case apperrors.AuthAlreadyRegistered:
			return http.StatusConflict, authErr.Message
		default:
			return http.StatusUnauthorized, authErr.Message
		}
	}

	var uploadErr *apperrors.UploadError
	if errors.As(err, &uploadErr) {
		return http.StatusBadGateway, uploadErr.Error()
	}

	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidRow),
		errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrReadOnlyField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusConflict, err.Error()
	}

	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusInternalServerError, storeErr.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
