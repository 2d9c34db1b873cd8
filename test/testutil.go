//go:build e2e

package test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPJSONStep is one request in a scripted scenario
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	Validator      func(*testing.T, any) // optional, receives the decoded body
}

// ExecuteHTTPJSONStep runs step against baseURL and returns the decoded body,
// which is a map for objects and a slice for arrays.
func ExecuteHTTPJSONStep(t *testing.T, step HTTPJSONStep, baseURL string) any {
	t.Helper()
	t.Logf("step: %s", step.Name)

	resp, err := httpJSON(step.Method, baseURL+step.URL, step.Body, step.Headers)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	assert.Equal(t, step.ExpectedStatus, resp.StatusCode, step.Name)

	var body any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	if step.Validator != nil {
		step.Validator(t, body)
	}
	return body
}

// ExecuteHTTPJSONSteps runs steps in order
func ExecuteHTTPJSONSteps(t *testing.T, steps []HTTPJSONStep, baseURL string) []any {
	t.Helper()
	results := make([]any, 0, len(steps))
	for _, step := range steps {
		results = append(results, ExecuteHTTPJSONStep(t, step, baseURL))
	}
	return results
}

func asObject(t *testing.T, body any) map[string]any {
	t.Helper()
	m, ok := body.(map[string]any)
	require.True(t, ok, "expected a JSON object, got %T", body)
	return m
}

// ErrorMessageValidator checks the {"error": ...} body
func ErrorMessageValidator(expected string) func(*testing.T, any) {
	return func(t *testing.T, body any) {
		t.Helper()
		assert.Equal(t, expected, asObject(t, body)["error"])
	}
}

// MessageValidator checks the {"message": ...} body
func MessageValidator(expected string) func(*testing.T, any) {
	return func(t *testing.T, body any) {
		t.Helper()
		assert.Equal(t, expected, asObject(t, body)["message"])
	}
}

// UserFieldValidator checks body.user[field]
func UserFieldValidator(field string, expected any) func(*testing.T, any) {
	return func(t *testing.T, body any) {
		t.Helper()
		user, ok := asObject(t, body)["user"].(map[string]any)
		require.True(t, ok, "response has no user object")
		assert.EqualValues(t, expected, user[field], "user.%s", field)
	}
}

// SearchNamesValidator checks that body.users holds exactly names, in order
func SearchNamesValidator(names ...string) func(*testing.T, any) {
	return func(t *testing.T, body any) {
		t.Helper()
		list, ok := asObject(t, body)["users"].([]any)
		require.True(t, ok, "response has no users array")

		got := make([]string, 0, len(list))
		for _, u := range list {
			got = append(got, u.(map[string]any)["name"].(string))
		}
		if len(names) == 0 {
			assert.Empty(t, got)
			return
		}
		assert.Equal(t, names, got)
	}
}
