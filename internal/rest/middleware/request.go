package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invora/invora/internal/types"
)

// RequestIDMiddleware tags every request with an ID and picks up the
// device identifier sync clients send
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)

	if deviceID := c.GetHeader(types.HeaderDeviceID); deviceID != "" {
		ctx = types.SetDeviceID(ctx, deviceID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
