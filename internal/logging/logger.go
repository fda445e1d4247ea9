// Package logging defines the structured, context-aware logger used by the
// fintrack server and its middleware.
package logging

import "context"

// Logger takes key/value pairs after the message:
//
//	log.Info(ctx, "entry created", "kind", kind, "owner", ownerID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries args.
	With(args ...any) Logger
}
