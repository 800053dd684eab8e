package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes one scenario file as a subtest. A failing step stops the
// scenario, since later steps usually depend on it.
func Run(t *testing.T, handler http.Handler, path string) {
	t.Helper()

	s, err := Load(path)
	require.NoError(t, err)

	t.Run(s.Name, func(t *testing.T) {
		vars := map[string]string{}
		for _, step := range s.Steps {
			if !runStep(t, handler, step, vars) {
				return
			}
		}
	})
}

// RunDir runs every *.json file in dir.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "testkit: no scenario files in %q", dir)

	for _, p := range paths {
		Run(t, handler, p)
	}
}

func runStep(t *testing.T, handler http.Handler, step Step, vars map[string]string) bool {
	t.Helper()

	var body io.Reader
	if len(step.Body) > 0 {
		body = strings.NewReader(expand(string(step.Body), vars))
	}
	req := httptest.NewRequest(step.Method, expand(step.URL, vars), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range step.Headers {
		req.Header.Set(k, expand(v, vars))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	ok := assert.Equal(t, step.ExpectedCode, rec.Code,
		"[%s] status mismatch, body: %s", step.Name, rec.Body.String())

	if len(step.Response) > 0 {
		ok = assert.JSONEq(t, expand(string(step.Response), vars), rec.Body.String(),
			"[%s] response mismatch", step.Name) && ok
	}
	if len(step.Contains) > 0 {
		ok = AssertContainsJSON(t, step.Name, []byte(expand(string(step.Contains), vars)), rec.Body.Bytes()) && ok
	}

	for name, path := range step.Capture {
		v, err := lookup(rec.Body.Bytes(), path)
		if !assert.NoError(t, err, "[%s] capture %q", step.Name, name) {
			return false
		}
		vars[name] = v
	}
	return ok
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// expand replaces {{name}} with captured values. Unknown names are left
// untouched so the mismatch shows up in the assertion.
func expand(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// lookup follows a dotted path through a JSON document and returns the
// value as a string.
func lookup(doc []byte, path string) (string, error) {
	var cur interface{}
	if err := json.Unmarshal(doc, &cur); err != nil {
		return "", fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return "", fmt.Errorf("no key %q", part)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return "", fmt.Errorf("bad index %q", part)
			}
			cur = node[i]
		default:
			return "", fmt.Errorf("cannot descend into %T at %q", cur, part)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(bytes.TrimSpace(b)), nil
	}
}
