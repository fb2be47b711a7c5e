// Package worker drains recorded audit entries to a downstream publisher on a
// background goroutine, keeping the write path synchronous only up to the
// store append.
package worker

import (
	"context"
	"log/slog"

	audit "practiceops/pkg/platform/audit"
)

// Publisher is implemented by the Kafka publisher; tests supply fakes.
type Publisher interface {
	Publish(ctx context.Context, entry audit.Entry) error
}

// Worker consumes audit entries from a channel and hands them to the
// publisher. It also implements audit.Sink so the Recorder can feed it
// without blocking: when the inbox is full the entry is dropped and counted
// against the log, never against the caller.
type Worker struct {
	publisher Publisher
	inbox     chan audit.Entry
	logger    *slog.Logger
}

func New(publisher Publisher, buffer int, logger *slog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{
		publisher: publisher,
		inbox:     make(chan audit.Entry, buffer),
		logger:    logger,
	}
}

// Deliver enqueues an entry without blocking the recording operation.
func (w *Worker) Deliver(entry audit.Entry) {
	select {
	case w.inbox <- entry:
	default:
		w.logger.Warn("audit delivery inbox full, dropping downstream copy",
			"entry_id", entry.ID.String(),
			"action", string(entry.Action),
		)
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.publisher.Publish(ctx, entry); err != nil {
				w.logger.Error("audit entry publish failed",
					"entry_id", entry.ID.String(),
					"action", string(entry.Action),
					"error", err,
				)
			}
		}
	}
}
