// Package testkit runs JSON-described HTTP scenarios against an
// http.Handler.
//
// A scenario file holds an array of steps executed in order against the
// same handler, so later steps can use values captured from earlier
// responses:
//
//	[
//	  {
//	    "name": "login",
//	    "method": "POST",
//	    "url": "/api/auth/login",
//	    "body": {"email": "ravi@example.com", "password": "secret1"},
//	    "expectedCode": 200,
//	    "capture": {"token": "token"}
//	  },
//	  {
//	    "name": "dashboard",
//	    "url": "/api/orders/my-orders",
//	    "headers": {"Authorization": "Bearer {{token}}"},
//	    "expectedCode": 200,
//	    "response": []
//	  }
//	]
//
// Files live in testdata/ next to the test:
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Step is one request and its expectations.
type Step struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`

	ExpectedCode int `json:"expectedCode"`
	// Response, when set, must equal the response body as JSON.
	Response json.RawMessage `json:"response"`
	// Contains, when set, must be a subset of the response body: every
	// object key present must match, arrays must match element-wise.
	Contains json.RawMessage `json:"contains"`

	// Capture maps variable names to dotted paths into the response body
	// ("id", "items.0.id"). Captured values substitute {{name}} in the
	// url, headers and body of later steps.
	Capture map[string]string `json:"capture"`
}

// Scenario is an ordered list of steps loaded from one file.
type Scenario struct {
	Name  string
	Steps []Step
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", path, err)
	}

	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", path, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("testkit: %q has no steps", path)
	}
	for i := range steps {
		if err := steps[i].validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q step %d: %w", path, i, err)
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Scenario{Name: name, Steps: steps}, nil
}

func (s *Step) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	s.Method = strings.ToUpper(s.Method)
	return nil
}
