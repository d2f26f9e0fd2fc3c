package middleware

import (
	"errors"

	apiError "template-mailer/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			var apiErr *apiError.APIError

			// if it's our custom APIError
			if !errors.As(err, &apiErr) {
				// If it's a raw error we didn't wrap, treat as Internal
				apiErr = apiError.Internal(err)
			}

			fields := []zap.Field{
				zap.String("code", apiErr.Code),
				zap.Int("status", apiErr.Status),
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(RequestIDKey)),
			}
			if apiErr.Internal != nil {
				fields = append(fields, zap.Error(apiErr.Internal))
			}
			if apiErr.Status >= 500 {
				log.Error(apiErr.Message, fields...)
			} else {
				log.Info(apiErr.Message, fields...)
			}

			if c.Writer.Written() {
				return
			}
			c.AbortWithStatusJSON(apiErr.Status, apiErr)
		}
	}
}
