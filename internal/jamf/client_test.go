package jamf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopkgwrapper/internal/report"
)

var _ report.Inventory = (*Client)(nil)

// fakeJamf serves the token, packages and policies endpoints. Packages are
// served in pages of the requested size.
func fakeJamf(t *testing.T, packages []Package) (*httptest.Server, *int32) {
	t.Helper()
	var tokens int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokens, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok",
			"token_type":   "Bearer",
			"expires_in":   300,
		})
	})
	mux.HandleFunc("/api/v1/packages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page-size"))
		start, end := page*size, page*size+size
		if start > len(packages) {
			start = len(packages)
		}
		if end > len(packages) {
			end = len(packages)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"totalCount": len(packages),
			"results":    packages[start:end],
		})
	})
	mux.HandleFunc("/JSSResource/policies", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"policies": [{"id": 7, "name": "Install Firefox"}, {"id": 8, "name": "Install Firefox"}, {"id": 9, "name": ""}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokens
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://jss.example.com", NormalizeURL("jss.example.com/"))
	assert.Equal(t, "http://localhost:8080", NormalizeURL(" http://localhost:8080// "))
	assert.Equal(t, "", NormalizeURL(""))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://jss/view/settings/computer-management/packages/12", PackageURL("https://jss", "12"))
	assert.Equal(t, "https://jss/policies.html?id=7", PolicyURL("https://jss", "7"))
}

func TestPackageLinks_Paginates(t *testing.T) {
	srv, tokens := fakeJamf(t, []Package{
		{ID: "1", PackageName: "Firefox-126.pkg"},
		{ID: "2", PackageName: "Chrome-125.pkg"},
		{ID: "3", PackageName: "Firefox-126.pkg"},
		{ID: "4", PackageName: " "},
		{ID: "5", PackageName: "Slack.pkg"},
	})
	c := New(srv.URL, "id", "secret", 5*time.Second)
	c.PageSize = 2

	links, err := c.PackageLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Firefox-126.pkg": PackageURL(srv.URL, "1"),
		"Chrome-125.pkg":  PackageURL(srv.URL, "2"),
		"Slack.pkg":       PackageURL(srv.URL, "5"),
	}, links)
	assert.Equal(t, int32(1), atomic.LoadInt32(tokens), "token is cached across pages")
}

func TestPolicyLinks(t *testing.T) {
	srv, _ := fakeJamf(t, nil)
	c := New(srv.URL, "id", "secret", 5*time.Second)

	links, err := c.PolicyLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Install Firefox": PolicyURL(srv.URL, "7")}, links)
}

func TestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/oauth/token" {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	c := New(srv.URL, "id", "bad", 5*time.Second)
	_, err := c.PackageLinks(context.Background())
	assert.Error(t, err)
	_, err = c.PolicyLinks(context.Background())
	assert.Error(t, err)
}

func TestFlexID(t *testing.T) {
	var p struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "12", "b": 34}`), &p))
	assert.Equal(t, flexID("12"), p.A)
	assert.Equal(t, flexID("34"), p.B)
}
