package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cucumber/godog"
)

const defaultDemoPassword = "password123"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetLastStatus() int
	GetResponseField(field string) (interface{}, error)
	GetAccessToken() string
	SetAccessToken(token string)
}

// RegisterSteps registers session and page guard step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	// Session steps
	ctx.Step(`^I am signed in as "([^"]*)"$`, steps.signedInAs)
	ctx.Step(`^I sign in with email "([^"]*)" and password "([^"]*)"$`, steps.signInWith)
	ctx.Step(`^I sign out$`, steps.signOut)
	ctx.Step(`^I request my session$`, steps.requestSession)

	// Guard steps
	ctx.Step(`^I open the page "([^"]*)"$`, steps.openPage)
	ctx.Step(`^I GET "([^"]*)" with invalid token "([^"]*)"$`, steps.getWithInvalidToken)
}

type authSteps struct {
	tc TestContext
}

func demoPassword() string {
	if pw := os.Getenv("MEDGATE_DEMO_PASSWORD"); pw != "" {
		return pw
	}
	return defaultDemoPassword
}

func (s *authSteps) signedInAs(ctx context.Context, email string) error {
	if err := s.signInWith(ctx, email, demoPassword()); err != nil {
		return err
	}
	if s.tc.GetLastStatus() != http.StatusOK {
		return fmt.Errorf("sign in as %s returned %d", email, s.tc.GetLastStatus())
	}
	return nil
}

func (s *authSteps) signInWith(ctx context.Context, email, password string) error {
	s.tc.SetAccessToken("")
	if err := s.tc.POST("/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}); err != nil {
		return err
	}
	if s.tc.GetLastStatus() != http.StatusOK {
		return nil
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(token.(string))
	return nil
}

func (s *authSteps) signOut(ctx context.Context) error {
	return s.tc.POST("/auth/logout", nil)
}

func (s *authSteps) requestSession(ctx context.Context) error {
	return s.tc.GET("/auth/me", nil)
}

func (s *authSteps) openPage(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *authSteps) getWithInvalidToken(ctx context.Context, path, token string) error {
	s.tc.SetAccessToken("")
	return s.tc.GET(path, map[string]string{
		"Authorization": "Bearer " + token,
	})
}
