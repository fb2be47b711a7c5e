package e2e

import (
	"github.com/cucumber/godog"

	"practiceops/e2e/steps/leave"
	"practiceops/e2e/steps/schedule"
)

// RegisterSteps wires all step definitions plus the generic assertions shared
// by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^a staff member "([^"]*)" with role "([^"]*)"$`, tc.RegisterMember)
	ctx.Step(`^the response status is (\d+)$`, tc.AssertStatus)
	ctx.Step(`^the response field "([^"]*)" is "([^"]*)"$`, tc.AssertField)

	leave.RegisterSteps(ctx, tc)
	schedule.RegisterSteps(ctx, tc)
}
