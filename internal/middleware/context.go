package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/menjil-org/menjil-backend/internal/socket"
	"github.com/menjil-org/menjil-backend/internal/socketdata"
)

// AttachRequestContext gives every request a socket outbox and, once the
// handler has succeeded, publishes what it queued.
func AttachRequestContext(pub socket.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := socketdata.WithSocketData(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		sd := socketdata.GetSocketData(ctx)
		if sd == nil {
			return
		}
		queued := sd.Drain()
		if pub == nil || c.Writer.Status() >= 400 {
			return
		}
		for _, msg := range queued {
			pub.BroadcastGlobal(ctx, msg)
		}
	}
}
