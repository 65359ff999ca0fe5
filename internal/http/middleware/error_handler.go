package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Типизированные ошибки движка переводятся в свой HTTP статус,
// всё остальное маскируется как внутренняя ошибка сервера.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		statusCode := http.StatusInternalServerError
		code := string(apperror.ErrCodeInternal)
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		if errors.As(err.Err, &appErr) {
			statusCode = appErr.HTTPStatus
			code = string(appErr.Code)
			message = appErr.Message
		}

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"code":   code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if statusCode >= http.StatusInternalServerError {
				entry.Error("Request error")
			} else {
				entry.Warn("Request rejected")
			}
		}

		c.JSON(statusCode, gin.H{"error": message, "code": code})
	}
}
