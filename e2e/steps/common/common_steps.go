package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastStatus() int
	GetLastHeader(name string) string
	GetLastBody() []byte
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers background, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the medgate server is running$`, steps.serverIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^I should be redirected to "([^"]*)"$`, steps.redirectedTo)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should be (\d+)$`, steps.fieldShouldBeNumber)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serverIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	if s.tc.GetLastStatus() != http.StatusNoContent {
		return fmt.Errorf("health check returned %d", s.tc.GetLastStatus())
	}
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.GetLastStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.GetLastBody())
	}
	return nil
}

func (s *commonSteps) redirectedTo(ctx context.Context, location string) error {
	if err := s.statusShouldBe(ctx, http.StatusSeeOther); err != nil {
		return err
	}
	if got := s.tc.GetLastHeader("Location"); got != location {
		return fmt.Errorf("expected redirect to %q, got %q", location, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if str, ok := value.(string); !ok || str != expected {
		return fmt.Errorf("expected %s to be %q, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if b, ok := value.(bool); !ok || b != (expected == "true") {
		return fmt.Errorf("expected %s to be %s, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNumber(ctx context.Context, field string, expected int) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if n, ok := value.(float64); !ok || int(n) != expected {
		return fmt.Errorf("expected %s to be %d, got %v", field, expected, value)
	}
	return nil
}
