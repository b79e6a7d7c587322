package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/watchdeck/watchdeck/internal/auth"
	"github.com/watchdeck/watchdeck/internal/logger"
)

const sessionKey = "session"

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// errorHandlerMiddleware handles panics and errors
func errorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "internal server error",
					Message: "an unexpected error occurred",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// sessionMiddleware resolves the opaque session token and attaches the
// session to the request
func sessionMiddleware(sessions *auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Session-Token")
		session, err := sessions.Lookup(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: err.Error(),
			})
			return
		}

		c.Set(sessionKey, session)
		ctx := logger.ContextWithUserID(c.Request.Context(), session.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// currentSession returns the session attached by sessionMiddleware
func currentSession(c *gin.Context) *auth.Session {
	value, _ := c.Get(sessionKey)
	session, _ := value.(*auth.Session)
	return session
}
