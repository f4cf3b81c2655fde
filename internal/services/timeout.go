package services

import (
	"context"
	"time"
)

// boundedCall bounds a single blocking call: a store round trip or an upstream
// request. A non-positive timeout leaves only the parent's deadline.
func boundedCall(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
