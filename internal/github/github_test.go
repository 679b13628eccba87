package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopkgwrapper/internal/git"
	"autopkgwrapper/internal/recipe"
)

type captured struct {
	path string
	auth string
	body map[string]interface{}
}

func newServer(t *testing.T, status int, number int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		w.WriteHeader(status)
		if status == http.StatusCreated {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"number": number, "html_url": "ignored"})
			return
		}
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

var remote = git.RemoteInfo{URL: "https://github.com/o/r", Ref: "o/r"}

func TestTrustPullRequester(t *testing.T) {
	srv, got := newServer(t, http.StatusCreated, 7)
	p := &TrustPullRequester{
		Client: NewClient(context.Background(), "tok", srv.URL),
		Remote: remote,
		Branch: "fix/update_trust_information/2024",
	}

	url, err := p.OpenPullRequest(context.Background(), recipe.New("Firefox.upload.jamf", nil))
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/o/r/pull/7", url)
	assert.Equal(t, "/repos/o/r/pulls", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "Update Trust Information: Firefox", got.body["title"])
	assert.Equal(t, "main", got.body["base"])
	assert.Equal(t, "fix/update_trust_information/2024", got.body["head"])
	assert.Contains(t, got.body["body"], "out-of-date for Firefox")
}

func TestFailureIssueReporter(t *testing.T) {
	srv, got := newServer(t, http.StatusCreated, 123)
	p := &FailureIssueReporter{Client: NewClient(context.Background(), "tok", srv.URL), Remote: remote}

	bad := recipe.New("BadRecipe.download", nil)
	bad.Results.Failures = []recipe.Failure{{Message: "trust error", Traceback: "tb"}}

	url, err := p.ReportFailures(context.Background(), []*recipe.Recipe{bad})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/o/r/issues/123", url)
	assert.Equal(t, "/repos/o/r/issues", got.path)
	assert.Equal(t, IssueTitle, got.body["title"])
	assert.Contains(t, got.body["body"], "BadRecipe")
	assert.Equal(t, []interface{}{"autopkg-failure"}, got.body["labels"])
}

func TestFailureIssueReporter_NoFailures(t *testing.T) {
	p := &FailureIssueReporter{Client: NewClient(context.Background(), "tok", "http://127.0.0.1:1"), Remote: remote}
	url, err := p.ReportFailures(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestClientErrorStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnprocessableEntity, 0)
	c := NewClient(context.Background(), "tok", srv.URL)

	_, err := c.CreateIssue(context.Background(), "o/r", Issue{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Validation Failed")
}

func TestFailureIssueBody(t *testing.T) {
	withFailures := recipe.New("Foo.download", nil)
	withFailures.Results.Failures = []recipe.Failure{{Message: "Download failed", Traceback: "Traceback...\n"}}
	withMessage := recipe.New("Bar.pkg", nil)
	withMessage.Error = true
	withMessage.Results.Message = "exit status 1"
	unknown := recipe.New("Baz.pkg", nil)
	unknown.Error = true

	body := FailureIssueBody([]*recipe.Recipe{withFailures, withMessage, unknown})
	assert.Contains(t, body, "3 recipe(s) failed")
	assert.Contains(t, body, "### Foo\n")
	assert.Contains(t, body, "- Recipe: `Foo.download`")
	assert.Contains(t, body, "- Error: Download failed")
	assert.Contains(t, body, "```\nTraceback...\n```")
	assert.Contains(t, body, "- Error: exit status 1")
	assert.Contains(t, body, "- Error: Unknown error")
}
