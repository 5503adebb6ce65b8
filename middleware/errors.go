package middleware

import (
	"draftdesk/apperrors"
	"draftdesk/logger"

	"github.com/gin-gonic/gin"
)

// RespondError writes err as {"error", "code"[, "details"]} and aborts the
// chain. Causes behind non-public messages are logged, never returned.
func RespondError(c *gin.Context, err error) {
	typed := apperrors.As(err)
	code := apperrors.CodeInternal
	var details any
	if typed != nil {
		code = typed.Code()
		details = typed.Details()
	}
	meta := apperrors.MetadataFor(code)
	if !meta.ShowMessage || typed == nil {
		logger.Default().Error(c.Request.Context(), "request failed", err)
	}

	body := gin.H{"error": apperrors.PublicMessage(err), "code": code}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}
