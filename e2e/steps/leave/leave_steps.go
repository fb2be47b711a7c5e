package leave

import (
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the harness these steps need.
type TestContext interface {
	Do(alias, method, path string, body any) error
	StaffID(alias string) (string, error)
	Save(name, field string) error
	SavedValue(name string) (string, error)
}

// RegisterSteps registers leave ledger step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &leaveSteps{tc: tc}

	ctx.Step(`^"([^"]*)" submits "([^"]*)" leave from "([^"]*)" to "([^"]*)"$`, steps.submitLeave)
	ctx.Step(`^"([^"]*)" approves the leave request$`, steps.approveLeave)
	ctx.Step(`^"([^"]*)" rejects the leave request$`, steps.rejectLeave)
	ctx.Step(`^"([^"]*)" lists the leave history of "([^"]*)"$`, steps.listLeave)
}

type leaveSteps struct {
	tc TestContext
}

func (s *leaveSteps) submitLeave(alias, leaveType, start, end string) error {
	body := map[string]any{
		"type":  leaveType,
		"start": start,
		"end":   end,
	}
	if err := s.tc.Do(alias, http.MethodPost, "/leave", body); err != nil {
		return err
	}
	// Remember the interval for the decision steps; submissions that fail
	// validation have no id and that is fine.
	_ = s.tc.Save("interval_id", "id")
	return nil
}

func (s *leaveSteps) decide(alias, decision string) error {
	id, err := s.tc.SavedValue("interval_id")
	if err != nil {
		return err
	}
	return s.tc.Do(alias, http.MethodPost, "/leave/"+id+"/decision",
		map[string]any{"decision": decision})
}

func (s *leaveSteps) approveLeave(alias string) error { return s.decide(alias, "approve") }

func (s *leaveSteps) rejectLeave(alias string) error { return s.decide(alias, "reject") }

func (s *leaveSteps) listLeave(alias, target string) error {
	staffID, err := s.tc.StaffID(target)
	if err != nil {
		return err
	}
	return s.tc.Do(alias, http.MethodGet, "/leave?staff_id="+staffID, nil)
}
