package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// requestLogging logs method, path, status, duration, user agent, and remote addr.
func requestLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			logfields.Method(c.Request.Method),
			logfields.Path(c.Request.URL.Path),
			logfields.Status(c.Writer.Status()),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
			logfields.UserAgent(c.Request.UserAgent()),
			logfields.RemoteAddr(c.ClientIP()))
	}
}

// panicRecovery turns a handler panic into a 500 with a JSON body.
func panicRecovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				panicErr := errors.InternalError("internal server error").
					WithContext("path", c.Request.URL.Path).
					WithContext("method", c.Request.Method).
					WithContext("panic", rec).
					Build()
				logger.Error("HTTP handler panic",
					logfields.Error(panicErr),
					logfields.Path(c.Request.URL.Path),
					logfields.Method(c.Request.Method),
					slog.Any("panic", rec))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": panicErr.Message()})
			}
		}()
		c.Next()
	}
}

// statusFor maps a classified CMS error onto the API's response status.
func statusFor(err error) int {
	switch errors.GetCategory(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
