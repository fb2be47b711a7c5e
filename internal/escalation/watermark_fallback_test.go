package escalation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practiceops/internal/warning"
	"practiceops/pkg/domain"
)

// flakyWatermarks fails every call while broken is set.
type flakyWatermarks struct {
	store  *InMemoryWatermarks
	broken bool
}

func (f *flakyWatermarks) Get(ctx context.Context, staff domain.StaffID, rule string) (Watermark, error) {
	if f.broken {
		return Watermark{}, errors.New("connection refused")
	}
	return f.store.Get(ctx, staff, rule)
}

func (f *flakyWatermarks) Put(ctx context.Context, staff domain.StaffID, rule string, w Watermark) error {
	if f.broken {
		return errors.New("connection refused")
	}
	return f.store.Put(ctx, staff, rule, w)
}

func TestFallbackWatermarksSurvivesPrimaryOutage(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	primary := &flakyWatermarks{store: NewInMemoryWatermarks()}
	store := NewFallbackWatermarks(primary, logger)
	staffID := domain.NewStaffID()

	require.NoError(t, store.Put(ctx, staffID, warning.RuleLateArrivals, Watermark{Count: 1}))

	primary.broken = true
	// Enough failures to trip the breaker; after that, operations succeed on
	// the fallback without surfacing errors.
	for i := 0; i < 5; i++ {
		_ = store.Put(ctx, staffID, warning.RuleLateArrivals, Watermark{Count: 2 + i})
	}
	w, err := store.Get(ctx, staffID, warning.RuleLateArrivals)
	require.NoError(t, err)
	assert.Equal(t, 6, w.Count, "fallback carries the writes made during the outage")

	primary.broken = false
	// Probes against the recovered primary close the breaker again.
	for i := 0; i < 3; i++ {
		_, _ = store.Get(ctx, staffID, warning.RuleLateArrivals)
	}
	require.NoError(t, store.Put(ctx, staffID, warning.RuleLateArrivals, Watermark{Count: 9}))
	got, err := primary.store.Get(ctx, staffID, warning.RuleLateArrivals)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Count, "writes reach the primary after recovery")
}
