package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// TestContext holds the HTTP client and the last response of a scenario.
// Redirects are not followed so guard decisions stay observable.
type TestContext struct {
	BaseURL string
	client  *http.Client

	token       string
	lastStatus  int
	lastHeaders http.Header
	lastBody    []byte
	lastAlertID string
}

func NewTestContext() *TestContext {
	base := os.Getenv("MEDGATE_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	return &TestContext{
		BaseURL: strings.TrimRight(base, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
	tc.lastAlertID = ""
}

func (tc *TestContext) POST(path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return tc.do(req, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req, headers)
}

func (tc *TestContext) do(req *http.Request, headers map[string]string) error {
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastStatus() int { return tc.lastStatus }

func (tc *TestContext) GetLastHeader(name string) string {
	if tc.lastHeaders == nil {
		return ""
	}
	return tc.lastHeaders.Get(name)
}

func (tc *TestContext) GetLastBody() []byte { return tc.lastBody }

// GetResponseField resolves a dotted path such as "alert.status" in the last
// JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response: %s", field, tc.lastBody)
		}
	}
	return cur, nil
}

func (tc *TestContext) GetAccessToken() string      { return tc.token }
func (tc *TestContext) SetAccessToken(token string) { tc.token = token }
func (tc *TestContext) GetAlertID() string          { return tc.lastAlertID }
func (tc *TestContext) SetAlertID(id string)        { tc.lastAlertID = id }
