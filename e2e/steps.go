package e2e

import (
	"github.com/cucumber/godog"

	"medgate/e2e/steps/alerts"
	"medgate/e2e/steps/auth"
	"medgate/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register session and page guard steps
	auth.RegisterSteps(ctx, tc)

	// Register emergency alert steps
	alerts.RegisterSteps(ctx, tc)
}
