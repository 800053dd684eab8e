package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertContainsJSON checks that expected is a subset of actual.
func AssertContainsJSON(t *testing.T, name string, expected, actual []byte) bool {
	t.Helper()

	var exp, act interface{}
	if err := json.Unmarshal(expected, &exp); err != nil {
		return assert.Fail(t, fmt.Sprintf("[%s] expected value is not JSON: %v", name, err))
	}
	if err := json.Unmarshal(actual, &act); err != nil {
		return assert.Fail(t, fmt.Sprintf("[%s] response is not JSON: %v\nbody: %s", name, err, actual))
	}

	if diffs := DiffJSON("", exp, act); len(diffs) > 0 {
		return assert.Fail(t, fmt.Sprintf("[%s] response does not contain expected JSON:\n%s\nbody: %s",
			name, strings.Join(diffs, "\n"), actual))
	}
	return true
}

// DiffJSON lists where actual departs from expected. Keys absent from
// expected are ignored.
func DiffJSON(path string, expected, actual interface{}) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	default:
		if !assert.ObjectsAreEqual(expected, actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
