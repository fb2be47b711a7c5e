package audit

import (
	"context"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
)

// Store is the persistence contract for audit entries. Append assigns Seq and
// the hash pair; List returns entries newest-first. There is deliberately no
// update or delete method.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Sink receives a copy of every recorded entry after it has been persisted.
// The notification subsystem consumes audit entries through a Sink; delivery
// is best-effort and never gates the triggering mutation.
type Sink interface {
	Deliver(entry Entry)
}

// Recorder is the fail-closed write path. If the store rejects the append, the
// caller must abort its own mutation: Record returns CodeAuditWriteFailure and
// the enclosing operation fails with it.
type Recorder struct {
	store Store
	sink  Sink
	now   func() time.Time
}

type RecorderOption func(*Recorder)

// WithSink attaches a best-effort delivery sink for recorded entries.
func WithSink(sink Sink) RecorderOption {
	return func(r *Recorder) { r.sink = sink }
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one audit entry. Under SQL stores the append joins any
// transaction carried in ctx, so the entry commits atomically with the
// mutation it describes.
func (r *Recorder) Record(ctx context.Context, actor *domain.StaffID, action Action, targetType, targetID string, details map[string]any, origin string) (Entry, error) {
	if origin == "" {
		origin = OriginSystem
	}
	entry := Entry{
		ID:         domain.NewAuditEntryID(),
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		Origin:     origin,
		Timestamp:  r.now().UTC(),
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		return Entry{}, dErrors.Wrap(err, dErrors.CodeAuditWriteFailure, "audit entry could not be persisted")
	}
	if r.sink != nil {
		r.sink.Deliver(entry)
	}
	return entry, nil
}

// Query returns entries newest-first. The transport layer gates this behind
// the ViewAudit capability; the method itself stays read-only.
func (r *Recorder) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.store.List(ctx, filter)
}
