// Package notify is the user-visible message channel. Synchronizers report
// blocking alerts and confirmations through a Notifier instead of writing to
// a UI directly.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Level is the severity of a notice.
type Level int

const (
	// Info is a confirmation, e.g. "product added".
	Info Level = iota
	// Alert is a failure the user must see.
	Alert
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Alert:
		return "alert"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Notifier delivers a message to the user.
type Notifier interface {
	Notify(ctx context.Context, level Level, msg string)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, level Level, msg string)

// Notify calls f.
func (f Func) Notify(ctx context.Context, level Level, msg string) { f(ctx, level, msg) }

// Discard drops every notice.
var Discard Notifier = Func(func(context.Context, Level, string) {})

// Log returns a Notifier that writes notices to the logger carried in ctx.
func Log() Notifier {
	return Func(func(ctx context.Context, level Level, msg string) {
		lg := zctx.From(ctx)
		if level == Alert {
			lg.Warn("User alert", zap.String("message", msg))
			return
		}
		lg.Info("User notice", zap.String("message", msg))
	})
}

// Writer returns a Notifier that prints notices line by line to w.
// Alerts are prefixed with "! ".
func Writer(w io.Writer) Notifier {
	var mu sync.Mutex
	return Func(func(_ context.Context, level Level, msg string) {
		mu.Lock()
		defer mu.Unlock()

		prefix := ""
		if level == Alert {
			prefix = "! "
		}
		_, _ = fmt.Fprintln(w, prefix+msg)
	})
}

// Multi fans a notice out to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(ctx context.Context, level Level, msg string) {
		for _, n := range notifiers {
			n.Notify(ctx, level, msg)
		}
	})
}
