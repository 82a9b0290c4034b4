//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// testContext holds state shared across step definitions within a scenario.
// Each scenario gets a fresh stack: an empty SQLite file and a fake feed.
type testContext struct {
	stack        *stack
	response     *http.Response
	responseBody []byte
}

func (tc *testContext) start() error {
	dir, err := os.MkdirTemp("", "quote-godog-*")
	if err != nil {
		return err
	}

	tc.stack, err = startStack(dir, nil, stackOptions{maxAttempts: 1})

	return err
}

func (tc *testContext) stop() error {
	tc.response = nil
	tc.responseBody = nil

	if tc.stack == nil {
		return nil
	}

	err := tc.stack.destroy()
	tc.stack = nil

	return err
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.start()
	})

	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		return ctx, tc.stop()
	})

	ctx.Step(`^the service is running$`, tc.theServiceIsRunning)
	ctx.Step(`^the remote feed serves:$`, tc.theRemoteFeedServes)
	ctx.Step(`^the remote feed is down$`, tc.theRemoteFeedIsDown)
	ctx.Step(`^I request (GET|POST|PUT|DELETE) "([^"]*)"$`, tc.iRequest)
	ctx.Step(`^I request (POST|PUT) "([^"]*)" with body:$`, tc.iRequestWithBody)
	ctx.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the JSON field "([^"]*)" should be (-?\d+)$`, tc.theJSONFieldShouldBeNumber)
	ctx.Step(`^the JSON field "([^"]*)" should equal "([^"]*)"$`, tc.theJSONFieldShouldEqual)
	ctx.Step(`^the remote feed should have received (\d+) posts?$`, tc.theRemoteFeedShouldHaveReceived)
	ctx.Step(`^the service restarts$`, tc.theServiceRestarts)
}

// theServiceIsRunning verifies the service is reachable.
func (tc *testContext) theServiceIsRunning() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, _, err := tc.stack.do(ctx, http.MethodGet, "/-/live", nil)
	if err != nil {
		return fmt.Errorf("service is not running: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("liveness probe failed with status %d", resp.StatusCode)
	}

	return nil
}

func (tc *testContext) theRemoteFeedServes(posts *godog.DocString) error {
	return tc.stack.feed.setPosts([]byte(posts.Content))
}

func (tc *testContext) theRemoteFeedIsDown() error {
	tc.stack.feed.setDown(true)
	return nil
}

// theServiceRestarts reopens the same database with a fresh process state.
func (tc *testContext) theServiceRestarts() error {
	dir, feed := tc.stack.dir, tc.stack.feed

	if err := tc.stack.close(); err != nil {
		return err
	}

	next, err := startStack(dir, feed, stackOptions{maxAttempts: 1})
	if err != nil {
		return err
	}

	tc.stack = next

	return nil
}

func (tc *testContext) iRequest(method, path string) error {
	return tc.send(method, path, nil)
}

func (tc *testContext) iRequestWithBody(method, path string, body *godog.DocString) error {
	return tc.send(method, path, strings.NewReader(body.Content))
}

func (tc *testContext) send(method, path string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, data, err := tc.stack.do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	tc.response = resp
	tc.responseBody = data

	return nil
}

// theResponseStatusShouldBe asserts the response status code.
func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}

	if tc.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, tc.response.StatusCode, string(tc.responseBody))
	}

	return nil
}

// theResponseShouldContain asserts the response body contains the given text.
func (tc *testContext) theResponseShouldContain(text string) error {
	if tc.responseBody == nil {
		return fmt.Errorf("no response body")
	}

	if !bytes.Contains(tc.responseBody, []byte(text)) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, tc.responseBody)
	}

	return nil
}

func (tc *testContext) theJSONFieldShouldBeNumber(path string, want int) error {
	v, err := tc.field(path)
	if err != nil {
		return err
	}

	got, ok := v.(float64)
	if !ok || int(got) != want {
		return fmt.Errorf("field %q is %v, want %d", path, v, want)
	}

	return nil
}

func (tc *testContext) theJSONFieldShouldEqual(path, want string) error {
	v, err := tc.field(path)
	if err != nil {
		return err
	}

	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q is %q, want %q", path, got, want)
	}

	return nil
}

// field resolves a dotted path such as "error.code" or "items.0.text".
func (tc *testContext) field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.responseBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	for _, part := range strings.Split(path, ".") {
		switch node := doc.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.responseBody)
			}

			doc = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}

			doc = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %q", part, path)
		}
	}

	return doc, nil
}

func (tc *testContext) theRemoteFeedShouldHaveReceived(n int) error {
	if got := tc.stack.feed.pushedCount(); got != n {
		return fmt.Errorf("remote feed received %d posts, want %d", got, n)
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
