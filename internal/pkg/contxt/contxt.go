package contxt

import (
	"context"
	"os"
	"time"
)

// NewContext returns a context that keeps the values of parent but not its
// cancellation, bounded by timeout. Setting CONTEXT_TEST drops the deadline.
func NewContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if os.Getenv("CONTEXT_TEST") != "" {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
