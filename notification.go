package wazeroc

import (
	"context"

	"github.com/wazeroc/wazeroc/internal/close"
)

// CloseNotification is invoked just before a Module is closed, with the exit code passed to CloseWithExitCode (zero
// for a plain Close or a start function that returned normally).
type CloseNotification interface {
	OnClose(ctx context.Context, exitCode uint32)
}

// CloseNotificationFunc adapts a plain function to CloseNotification.
type CloseNotificationFunc func(ctx context.Context, exitCode uint32)

func (f CloseNotificationFunc) OnClose(ctx context.Context, exitCode uint32) { f(ctx, exitCode) }

// WithCloseNotification returns a context that notifies n just before a Module closes when the context is passed to
// that Module's Close or CloseWithExitCode, e.g. to flush metrics or release an embedder-side resource keyed by the
// module's lifetime. The context a Module was instantiated with plays no part.
func WithCloseNotification(ctx context.Context, n CloseNotification) context.Context {
	if n == nil {
		return ctx
	}
	return context.WithValue(ctx, close.NotificationKey{}, closeNotificationAdapter{n})
}

// closeNotificationAdapter lets internal/wasm depend only on internal/close's unexported-friendly key/interface
// pair, without internal/wasm importing this root package (which would cycle back through it).
type closeNotificationAdapter struct{ n CloseNotification }

func (a closeNotificationAdapter) OnClose(ctx context.Context, exitCode uint32) { a.n.OnClose(ctx, exitCode) }

var _ close.Notification = closeNotificationAdapter{}
