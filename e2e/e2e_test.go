package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the gherkin scenarios against a running server.
// Set MEDGATE_E2E=1 and optionally MEDGATE_BASE_URL to enable.
func TestFeatures(t *testing.T) {
	if os.Getenv("MEDGATE_E2E") == "" {
		t.Skip("MEDGATE_E2E not set")
	}

	suite := godog.TestSuite{
		Name: "medgate",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			tc := NewTestContext()
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
