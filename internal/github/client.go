// Package github is a small GitHub REST client for the pull requests and
// issues the wrapper opens after a run.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// Client talks to the GitHub REST API with a static token.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL means DefaultAPIURL.
func NewClient(ctx context.Context, token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    oauth2.NewClient(ctx, src),
	}
}

// PullRequest is the create-pull-request payload.
type PullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// Issue is the create-issue payload.
type Issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// Created is the subset of the API response the wrapper uses.
type Created struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreatePullRequest opens a pull request in owner/repo.
func (c *Client) CreatePullRequest(ctx context.Context, repoRef string, pr PullRequest) (*Created, error) {
	return c.post(ctx, "/repos/"+repoRef+"/pulls", pr)
}

// CreateIssue opens an issue in owner/repo.
func (c *Client) CreateIssue(ctx context.Context, repoRef string, issue Issue) (*Created, error) {
	return c.post(ctx, "/repos/"+repoRef+"/issues", issue)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*Created, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var created Created
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &created, nil
}
