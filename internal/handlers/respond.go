package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DataResponse wraps a successful payload.
type DataResponse struct {
	Data any `json:"data"`
}

// MessageResponse carries a user-facing confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// respondList writes the result of a parameterless list call.
func respondList[T any](c *gin.Context, list func(context.Context) ([]T, error)) {
	rows, err := list(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: rows})
}
