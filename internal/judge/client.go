// Package judge wraps the external code-execution provider. The provider is
// opaque, possibly slow, and possibly failing; callers must treat any error
// as a non-passing attempt, never as a pass.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/model"
)

// Runner executes a code submission against a problem's test cases.
type Runner interface {
	Execute(ctx context.Context, code, language string, testCases []model.TestCase) (*Result, error)
}

// Result is the judged outcome of one submission.
type Result struct {
	Passed  int          `json:"passed"`
	Total   int          `json:"total"`
	PerCase []CaseResult `json:"per_case,omitempty"`
}

// CaseResult is the outcome of a single test case.
type CaseResult struct {
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// Accepted reports whether every test case passed.
func (r *Result) Accepted() bool {
	return r.Total > 0 && r.Passed == r.Total
}

// Client calls the judge provider over HTTP.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a judge client with the configured endpoint and timeout.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		url:    cfg.JudgeURL,
		client: &http.Client{Timeout: cfg.JudgeTimeout},
	}
}

type executeRequest struct {
	Code      string           `json:"code"`
	Language  string           `json:"language"`
	TestCases []model.TestCase `json:"test_cases"`
}

// Execute submits code for judging and returns the per-case results.
func (c *Client) Execute(ctx context.Context, code, language string, testCases []model.TestCase) (*Result, error) {
	body, err := json.Marshal(executeRequest{
		Code:      code,
		Language:  language,
		TestCases: testCases,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}

	return &result, nil
}
