package alerts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetLastStatus() int
	GetResponseField(field string) (interface{}, error)
	GetAlertID() string
	SetAlertID(id string)
}

// RegisterSteps registers emergency alert step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &alertSteps{tc: tc}

	ctx.Step(`^I trigger an emergency alert$`, steps.trigger)
	ctx.Step(`^I trigger an emergency alert at "([^"]*)"$`, steps.triggerAt)
	ctx.Step(`^I cancel the alert$`, steps.cancel)
	ctx.Step(`^I resolve the alert$`, steps.resolve)
	ctx.Step(`^the alert should reach "([^"]*)" within (\d+) seconds$`, steps.reachesStatus)
}

type alertSteps struct {
	tc TestContext
}

func (s *alertSteps) trigger(ctx context.Context) error {
	return s.afterTrigger(s.tc.POST("/emergency/alerts", nil))
}

func (s *alertSteps) triggerAt(ctx context.Context, address string) error {
	return s.afterTrigger(s.tc.POST("/emergency/alerts", map[string]interface{}{
		"location": map[string]interface{}{
			"latitude":  37.7749,
			"longitude": -122.4194,
			"address":   address,
		},
	}))
}

func (s *alertSteps) afterTrigger(err error) error {
	if err != nil {
		return err
	}
	if s.tc.GetLastStatus() != http.StatusCreated {
		return nil
	}
	id, err := s.tc.GetResponseField("alert.id")
	if err != nil {
		return err
	}
	s.tc.SetAlertID(id.(string))
	return nil
}

func (s *alertSteps) cancel(ctx context.Context) error {
	return s.tc.POST("/emergency/alerts/"+s.tc.GetAlertID()+"/cancel", nil)
}

func (s *alertSteps) resolve(ctx context.Context) error {
	return s.tc.POST("/emergency/alerts/"+s.tc.GetAlertID()+"/resolve", nil)
}

// reachesStatus polls the active alert because lifecycle steps run on timers.
func (s *alertSteps) reachesStatus(ctx context.Context, status string, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	var last interface{}
	for time.Now().Before(deadline) {
		if err := s.tc.GET("/emergency/alerts/active", nil); err != nil {
			return err
		}
		got, err := s.tc.GetResponseField("alert.status")
		if err == nil {
			last = got
			if got == status {
				return nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("alert did not reach %q within %ds, last status %v", status, seconds, last)
}
