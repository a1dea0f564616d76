package middleware

import (
	"context"
	"strconv"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader = "X-User-ID"
	callerKey    = "caller"
)

// CallerResolver maps a user id to a caller identity.
type CallerResolver interface {
	Resolve(ctx context.Context, userID int64) entity.CallerIdentity
}

// Identity resolves the X-User-ID header once per request. A missing or
// malformed header yields an unrecognized caller.
func Identity(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := entity.Unrecognized()
		if raw := c.GetHeader(UserIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				caller = resolver.Resolve(c.Request.Context(), id)
			}
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func Caller(c *gin.Context) entity.CallerIdentity {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(entity.CallerIdentity); ok {
			return caller
		}
	}
	return entity.Unrecognized()
}
