// Package jamf looks up package and policy ids in Jamf Pro so report rows can
// link to them. It implements report.Inventory.
package jamf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"autopkgwrapper/internal/logging"
)

// DefaultPageSize is the page size used for the paged packages endpoint.
const DefaultPageSize = 200

// Client talks to the Jamf Pro API with an OAuth client credentials grant.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	PageSize int
}

// New creates a client for the instance at baseURL. A bare host gets https.
func New(baseURL, clientID, clientSecret string, timeout time.Duration) *Client {
	base := NormalizeURL(baseURL)
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/api/oauth/token",
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(ctx)
	httpClient.Timeout = timeout
	return &Client{BaseURL: base, HTTP: httpClient, PageSize: DefaultPageSize}
}

// NormalizeURL trims trailing slashes and adds an https scheme when missing.
func NormalizeURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u != "" && !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return u
}

// PackageURL is the Jamf Pro UI page for a package.
func PackageURL(base, id string) string {
	return fmt.Sprintf("%s/view/settings/computer-management/packages/%s", base, id)
}

// PolicyURL is the Jamf Pro UI page for a policy.
func PolicyURL(base, id string) string {
	return fmt.Sprintf("%s/policies.html?id=%s", base, id)
}

// Package is one entry of /api/v1/packages.
type Package struct {
	ID          flexID `json:"id"`
	PackageName string `json:"packageName"`
	FileName    string `json:"fileName"`
}

// Policy is one entry of the classic /JSSResource/policies list.
type Policy struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("jamf id %s: %w", string(b), err)
	}
	*f = flexID(n.String())
	return nil
}

// Packages returns every package, following pagination.
func (c *Client) Packages(ctx context.Context) ([]Package, error) {
	size := c.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	var all []Package
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page-size", strconv.Itoa(size))
		var resp struct {
			TotalCount int       `json:"totalCount"`
			Results    []Package `json:"results"`
		}
		if err := c.get(ctx, "/api/v1/packages?"+q.Encode(), &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)
		if len(resp.Results) < size || (resp.TotalCount > 0 && len(all) >= resp.TotalCount) {
			break
		}
	}
	logging.JamfDebug("Fetched %d package(s)", len(all))
	return all, nil
}

// Policies returns every policy from the classic API.
func (c *Client) Policies(ctx context.Context) ([]Policy, error) {
	var resp struct {
		Policies []Policy `json:"policies"`
	}
	if err := c.get(ctx, "/JSSResource/policies", &resp); err != nil {
		return nil, err
	}
	logging.JamfDebug("Fetched %d polic(ies)", len(resp.Policies))
	return resp.Policies, nil
}

// PackageLinks maps package names to their UI pages. The first id seen for a
// name wins.
func (c *Client) PackageLinks(ctx context.Context) (map[string]string, error) {
	pkgs, err := c.Packages(ctx)
	if err != nil {
		return nil, err
	}
	links := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		name, id := strings.TrimSpace(p.PackageName), strings.TrimSpace(string(p.ID))
		if name == "" || id == "" {
			continue
		}
		if _, ok := links[name]; !ok {
			links[name] = PackageURL(c.BaseURL, id)
		}
	}
	logging.Jamf("Loaded %d package link(s) from %s", len(links), c.BaseURL)
	return links, nil
}

// PolicyLinks maps policy names to their UI pages. The first id seen for a
// name wins.
func (c *Client) PolicyLinks(ctx context.Context) (map[string]string, error) {
	policies, err := c.Policies(ctx)
	if err != nil {
		return nil, err
	}
	links := make(map[string]string, len(policies))
	for _, p := range policies {
		name, id := strings.TrimSpace(p.Name), strings.TrimSpace(string(p.ID))
		if name == "" || id == "" {
			continue
		}
		if _, ok := links[name]; !ok {
			links[name] = PolicyURL(c.BaseURL, id)
		}
	}
	logging.Jamf("Loaded %d policy link(s) from %s", len(links), c.BaseURL)
	return links, nil
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("jamf GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("jamf GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("jamf GET %s: decode: %w", path, err)
	}
	return nil
}
