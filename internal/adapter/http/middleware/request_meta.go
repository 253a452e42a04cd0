package middleware

import (
	"juragites_estimation/internal/domain/entities"

	"github.com/gin-gonic/gin"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const metaKey = "request.meta"

// RequestMeta captures the client IP and user agent recorded on audit events and consent.
// The IP comes from gin's ClientIP, which honours the trusted proxy settings.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaKey, entities.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Next()
	}
}

func MetaFrom(c *gin.Context) entities.RequestMeta {
	if v, ok := c.Get(metaKey); ok {
		if m, ok := v.(entities.RequestMeta); ok {
			return m
		}
	}
	return entities.RequestMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// RequestID returns the id assigned by chi's RequestID middleware, empty when absent.
func RequestID(c *gin.Context) string {
	return chimw.GetReqID(c.Request.Context())
}
