package escalation

import (
	"context"
	"log/slog"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/circuit"
)

// FallbackWatermarks fronts a primary watermark store with an in-memory
// fallback behind a circuit breaker. When the primary (Redis) is unreachable
// the rules keep evaluating against local state instead of stalling; the
// worst case during an outage is a duplicate system warning, not a missed
// one. Successful primary calls close the breaker again.
type FallbackWatermarks struct {
	primary  WatermarkStore
	fallback WatermarkStore
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackWatermarks(primary WatermarkStore, logger *slog.Logger) *FallbackWatermarks {
	return &FallbackWatermarks{
		primary:  primary,
		fallback: NewInMemoryWatermarks(),
		breaker:  circuit.New("watermarks"),
		logger:   logger,
	}
}

func (s *FallbackWatermarks) Get(ctx context.Context, staff domain.StaffID, rule string) (Watermark, error) {
	if s.breaker.IsOpen() {
		if w, err := s.primary.Get(ctx, staff, rule); err == nil {
			if usePrimary, change := s.breaker.RecordSuccess(); usePrimary {
				if change.Closed {
					s.logger.Info("watermark store recovered", "breaker", s.breaker.Name())
				}
				return w, nil
			}
		} else {
			s.breaker.RecordFailure()
		}
		return s.fallback.Get(ctx, staff, rule)
	}

	w, err := s.primary.Get(ctx, staff, rule)
	if err == nil {
		s.breaker.RecordSuccess()
		return w, nil
	}
	if useFallback, change := s.breaker.RecordFailure(); useFallback {
		if change.Opened {
			s.logger.Warn("watermark store unavailable, using in-memory fallback",
				"breaker", s.breaker.Name(), "error", err)
		}
		return s.fallback.Get(ctx, staff, rule)
	}
	return Watermark{}, err
}

func (s *FallbackWatermarks) Put(ctx context.Context, staff domain.StaffID, rule string, w Watermark) error {
	// Writes always land in the fallback so a later failover sees current
	// state.
	if err := s.fallback.Put(ctx, staff, rule, w); err != nil {
		return err
	}
	if s.breaker.IsOpen() {
		if err := s.primary.Put(ctx, staff, rule, w); err == nil {
			if _, change := s.breaker.RecordSuccess(); change.Closed {
				s.logger.Info("watermark store recovered", "breaker", s.breaker.Name())
			}
		} else {
			s.breaker.RecordFailure()
		}
		return nil
	}
	if err := s.primary.Put(ctx, staff, rule, w); err != nil {
		if useFallback, change := s.breaker.RecordFailure(); useFallback {
			if change.Opened {
				s.logger.Warn("watermark store unavailable, using in-memory fallback",
					"breaker", s.breaker.Name(), "error", err)
			}
			return nil
		}
		return err
	}
	s.breaker.RecordSuccess()
	return nil
}
