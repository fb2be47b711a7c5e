package escalation

import (
	"context"
	"fmt"
	"log/slog"

	"practiceops/internal/attendance"
	"practiceops/internal/kpi"
	"practiceops/internal/recognition"
	"practiceops/internal/tasks"
	"practiceops/internal/warning"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/keylock"
)

// Config holds the rule thresholds. Zero disables a rule.
type Config struct {
	LatenessCount    int
	OverdueTaskCount int
	KPIThreshold     float64
}

// WarningIssuer is the slice of the warning service the engine writes
// through.
type WarningIssuer interface {
	IssueSystem(ctx context.Context, staff domain.StaffID, rule, reason string) (warning.Record, error)
}

// LatenessSource feeds the late-arrivals rule.
type LatenessSource interface {
	Since(ctx context.Context, staff domain.StaffID, after uint64) ([]attendance.Event, error)
}

// TaskSource feeds the task escalation rule.
type TaskSource interface {
	Since(ctx context.Context, staff domain.StaffID, after uint64) ([]tasks.Event, error)
	OverdueCount(ctx context.Context, staff domain.StaffID) (int, error)
}

// ScoreSource feeds the performance flag rule.
type ScoreSource interface {
	ScoreFor(ctx context.Context, staff domain.StaffID, periodKey string) (kpi.Score, bool, error)
	IsClosed(ctx context.Context, periodKey string) (bool, error)
	BestOfPeriod(ctx context.Context, periodKey string) (kpi.Score, bool, error)
}

// Recognizer grants the best-of-period award on close.
type Recognizer interface {
	Award(ctx context.Context, staff domain.StaffID, periodKey string) (recognition.Event, error)
}

// Engine subscribes to the event feeds and applies the three escalation
// rules. A rule failure is logged and dropped; the triggering mutation has
// already committed and is never unwound.
//
// Each evaluation reads a watermark, consumes events, and writes the
// watermark back, so evaluations for the same (staff, rule) pair serialize
// on a keyed lock. Two racing writers would otherwise both see the same
// pre-update watermark and fire the rule twice off one event set.
type Engine struct {
	cfg          Config
	watermarks   WatermarkStore
	locks        *keylock.Sharded
	warnings     WarningIssuer
	lateness     LatenessSource
	tasks        TaskSource
	scores       ScoreSource
	recognitions Recognizer
	logger       *slog.Logger
}

func NewEngine(cfg Config, watermarks WatermarkStore, locks *keylock.Sharded, warnings WarningIssuer, lateness LatenessSource, taskSource TaskSource, scores ScoreSource, recognitions Recognizer, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		watermarks:   watermarks,
		locks:        locks,
		warnings:     warnings,
		lateness:     lateness,
		tasks:        taskSource,
		scores:       scores,
		recognitions: recognitions,
		logger:       logger,
	}
}

func ruleKey(staff domain.StaffID, rule string) string {
	return staff.String() + "#" + rule
}

// LatenessRecorded applies the late-arrivals rule after a lateness event
// commits.
func (e *Engine) LatenessRecorded(ctx context.Context, event attendance.Event) {
	staff := event.Staff
	err := e.locks.Do(ctx, ruleKey(staff, warning.RuleLateArrivals), func(ctx context.Context) error {
		w, err := e.watermarks.Get(ctx, staff, warning.RuleLateArrivals)
		if err != nil {
			return err
		}

		events, err := e.lateness.Since(ctx, staff, w.LastSeq)
		if err != nil {
			return err
		}

		next, fired := evaluateLateness(w, events, e.cfg.LatenessCount)
		if fired {
			reason := fmt.Sprintf("%d late arrivals since the last warning", e.cfg.LatenessCount)
			if _, err := e.warnings.IssueSystem(ctx, staff, warning.RuleLateArrivals, reason); err != nil {
				return err
			}
		}
		return e.watermarks.Put(ctx, staff, warning.RuleLateArrivals, next)
	})
	if err != nil {
		e.ruleError(ctx, warning.RuleLateArrivals, staff, err)
	}
}

// TaskEventRecorded applies the task escalation rule after a task outcome
// commits.
func (e *Engine) TaskEventRecorded(ctx context.Context, event tasks.Event) {
	staff := event.Staff
	err := e.locks.Do(ctx, ruleKey(staff, warning.RuleTaskEscalation), func(ctx context.Context) error {
		w, err := e.watermarks.Get(ctx, staff, warning.RuleTaskEscalation)
		if err != nil {
			return err
		}

		events, err := e.tasks.Since(ctx, staff, w.LastSeq)
		if err != nil {
			return err
		}
		overdue, err := e.tasks.OverdueCount(ctx, staff)
		if err != nil {
			return err
		}

		next, fired := evaluateTasks(w, events, overdue, e.cfg.OverdueTaskCount)
		if fired {
			reason := fmt.Sprintf("%d tasks currently overdue", overdue)
			if _, err := e.warnings.IssueSystem(ctx, staff, warning.RuleTaskEscalation, reason); err != nil {
				return err
			}
		}
		return e.watermarks.Put(ctx, staff, warning.RuleTaskEscalation, next)
	})
	if err != nil {
		e.ruleError(ctx, warning.RuleTaskEscalation, staff, err)
	}
}

// PeriodClosed applies the performance flag rule to every scored staff member
// of the just-closed period, and grants the best-of-period award.
func (e *Engine) PeriodClosed(ctx context.Context, closed kpi.ClosedPeriod, scores []kpi.Score) {
	period, err := kpi.ParsePeriod(closed.PeriodKey)
	if err != nil {
		e.logger.ErrorContext(ctx, "escalation skipped malformed period", slog.String("period", closed.PeriodKey))
		return
	}
	prevKey := period.Prev().Key()

	prevClosed, err := e.scores.IsClosed(ctx, prevKey)
	if err != nil {
		e.logger.ErrorContext(ctx, "escalation could not read previous period",
			slog.String("period", prevKey), slog.Any("error", err))
		return
	}

	for _, score := range scores {
		staff := score.Staff
		err := e.locks.Do(ctx, ruleKey(staff, warning.RulePerformanceFlag), func(ctx context.Context) error {
			w, err := e.watermarks.Get(ctx, staff, warning.RulePerformanceFlag)
			if err != nil {
				return err
			}

			var previous *kpi.Score
			if prevClosed {
				if prev, ok, err := e.scores.ScoreFor(ctx, staff, prevKey); err != nil {
					return err
				} else if ok {
					previous = &prev
				}
			}

			next, fired := evaluateKPI(w, closed.PeriodKey, score, previous, e.cfg.KPIThreshold)
			if fired {
				reason := fmt.Sprintf("KPI below %.0f%% for two consecutive periods (%s: %.1f%%, %s: %.1f%%)",
					e.cfg.KPIThreshold, prevKey, previous.Percent, closed.PeriodKey, score.Percent)
				if _, err := e.warnings.IssueSystem(ctx, staff, warning.RulePerformanceFlag, reason); err != nil {
					return err
				}
			}
			return e.watermarks.Put(ctx, staff, warning.RulePerformanceFlag, next)
		})
		if err != nil {
			e.ruleError(ctx, warning.RulePerformanceFlag, staff, err)
		}
	}

	if e.recognitions != nil {
		if best, ok, err := e.scores.BestOfPeriod(ctx, closed.PeriodKey); err != nil {
			e.logger.ErrorContext(ctx, "best-of-period lookup failed",
				slog.String("period", closed.PeriodKey), slog.Any("error", err))
		} else if ok {
			if _, err := e.recognitions.Award(ctx, best.Staff, closed.PeriodKey); err != nil {
				e.logger.ErrorContext(ctx, "best-of-period award failed",
					slog.String("period", closed.PeriodKey), slog.Any("error", err))
			}
		}
	}
}

func (e *Engine) ruleError(ctx context.Context, rule string, staff domain.StaffID, err error) {
	e.logger.ErrorContext(ctx, "escalation rule failed",
		slog.String("rule", rule),
		slog.String("staff_id", staff.String()),
		slog.Any("error", err),
	)
}
