package middleware

import (
	"context"
	"log/slog"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/outbox"
)

// Headers stamped on every event a command records.
const (
	HeaderCommand        = "rentcal-command"
	HeaderIdempotencyKey = "rentcal-idempotency-key"
)

// OutboxFlush tags recorded events with the causing command and flushes the
// outbox after success. A failed flush does not fail the command: the
// events are already stored and the relay picks them up on its next pass.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return CommandBusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(outbox.WithHeaders(ctx, commandHeaders(cmd)), cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}

func commandHeaders(cmd commands.Command) map[string]string {
	h := map[string]string{HeaderCommand: cmd.Key()}
	if idem, ok := cmd.(IdempotentCommand); ok && idem.IdempotencyKey() != "" {
		h[HeaderIdempotencyKey] = idem.IdempotencyKey()
	}
	return h
}
