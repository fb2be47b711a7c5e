package escalation

import (
	"practiceops/internal/attendance"
	"practiceops/internal/kpi"
	"practiceops/internal/tasks"
)

// The rule evaluators are pure: watermark in, events in, updated watermark
// and a firing decision out. All persistence and side effects live in the
// engine, which keeps these trivially testable.

// evaluateLateness consumes lateness events past the watermark. When the
// accumulated count reaches threshold the rule fires and the count resets to
// zero, so the next warning requires a full new run of late arrivals.
func evaluateLateness(w Watermark, events []attendance.Event, threshold int) (Watermark, bool) {
	for _, e := range events {
		if e.Seq <= w.LastSeq {
			continue
		}
		w.LastSeq = e.Seq
		w.Count++
	}
	if threshold > 0 && w.Count >= threshold {
		w.Count = 0
		return w, true
	}
	return w, false
}

// evaluateTasks consumes task events past the watermark. The rule fires when
// at least one new overdue event arrived and the staff member's currently
// overdue tasks have reached the threshold. Count is not used; the firing
// condition is the live overdue figure, re-armed by the next new overdue
// event.
func evaluateTasks(w Watermark, events []tasks.Event, overdueNow, threshold int) (Watermark, bool) {
	newOverdue := false
	for _, e := range events {
		if e.Seq <= w.LastSeq {
			continue
		}
		w.LastSeq = e.Seq
		if e.Outcome == tasks.OutcomeOverdue {
			newOverdue = true
		}
	}
	if newOverdue && threshold > 0 && overdueNow >= threshold {
		return w, true
	}
	return w, false
}

// evaluateKPI fires when the just-closed period and the period before it are
// both scored below the threshold. A period is evaluated at most once per
// staff member: LastPeriod records it whether or not the rule fired.
func evaluateKPI(w Watermark, periodKey string, current kpi.Score, previous *kpi.Score, threshold float64) (Watermark, bool) {
	if w.LastPeriod == periodKey {
		return w, false
	}
	w.LastPeriod = periodKey
	if previous == nil {
		return w, false
	}
	if current.Percent < threshold && previous.Percent < threshold {
		return w, true
	}
	return w, false
}
