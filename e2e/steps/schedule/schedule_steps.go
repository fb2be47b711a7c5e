package schedule

import (
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the harness these steps need.
type TestContext interface {
	Do(alias, method, path string, body any) error
	StaffID(alias string) (string, error)
	Role(alias string) (string, error)
}

// RegisterSteps registers schedule validator step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &scheduleSteps{tc: tc}

	ctx.Step(`^"([^"]*)" assigns "([^"]*)" to a "([^"]*)" shift on "([^"]*)"$`, steps.assign)
	ctx.Step(`^"([^"]*)" checks the status of "([^"]*)" on "([^"]*)"$`, steps.status)
	ctx.Step(`^"([^"]*)" lists schedule conflicts from "([^"]*)" to "([^"]*)"$`, steps.conflicts)
}

type scheduleSteps struct {
	tc TestContext
}

func (s *scheduleSteps) assign(actor, target, shift, date string) error {
	staffID, err := s.tc.StaffID(target)
	if err != nil {
		return err
	}
	// The member covers their registered role that day.
	role, err := s.tc.Role(target)
	if err != nil {
		return err
	}
	return s.tc.Do(actor, http.MethodPost, "/schedule", map[string]any{
		"staff_id": staffID,
		"date":     date,
		"shift":    shift,
		"role":     role,
	})
}

func (s *scheduleSteps) status(actor, target, date string) error {
	staffID, err := s.tc.StaffID(target)
	if err != nil {
		return err
	}
	return s.tc.Do(actor, http.MethodGet, "/schedule/status?staff_id="+staffID+"&date="+date, nil)
}

func (s *scheduleSteps) conflicts(actor, from, to string) error {
	return s.tc.Do(actor, http.MethodGet, "/schedule/conflicts?from="+from+"&to="+to, nil)
}
