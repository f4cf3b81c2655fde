package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/requestdata"
)

const headerRequestID = "X-Request-ID"

// RequestLogger reads or generates a request ID, echoes it back and logs
// the completed request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		c.Next()

		kv := []interface{}{
			"requestID", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
		}
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
			kv = append(kv, "nickname", rd.Nickname)
		}
		log.Info("request completed", kv...)
	}
}
