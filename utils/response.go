package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/internal/apperrors"
)

// RespondError writes a business error with its mapped HTTP status.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	if appErr, ok := apperrors.As(err); ok {
		body := gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		c.JSON(status, body)
		return
	}

	c.JSON(status, gin.H{"error": "internal server error"})
}
