package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writePlist(t *testing.T, path string, v interface{}, format int) {
	t.Helper()
	data, err := plist.Marshal(v, format)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// uploadReport is a JamfUploader style report with one package upload and
// one failure.
func uploadReport() map[string]interface{} {
	return map[string]interface{}{
		"failures": []interface{}{
			map[string]interface{}{"message": "Code signature verification failed", "recipe": "Firefox.upload.jamf"},
		},
		"summary_results": map[string]interface{}{
			keyPackageUploader: map[string]interface{}{
				"summary_text": "The following packages were uploaded to Jamf Pro:",
				"header":       []interface{}{"name", "version", "pkg_name", "pkg_path"},
				"data_rows": []interface{}{
					map[string]interface{}{
						"name":     "Firefox",
						"version":  "126.0.1",
						"pkg_name": "Firefox-126.0.1.pkg",
						"pkg_path": "/Users/runner/Library/AutoPkg/Cache/cache/local.jamf.Firefox/Firefox-126.0.1.pkg",
					},
				},
			},
		},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want Category
	}{
		{"Recipe trust verification failed", CategoryTrust},
		{"codesign check failed", CategorySignature},
		{"Bad Signature", CategorySignature},
		{"HTTP 401 Unauthorized", CategoryAuth},
		{"Token expired", CategoryAuth},
		{"permission denied", CategoryAuth},
		{"curl: (6) could not resolve", CategoryDownload},
		{"Failed to fetch https://example.com", CategoryDownload},
		{"connection timeout", CategoryNetwork},
		{"proxy refused", CategoryNetwork},
		{"DNS lookup failed", CategoryNetwork},
		{"Jamf upload rejected", CategoryJamf},
		{"policy scope invalid", CategoryJamf},
		{"something odd", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.msg))
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	// trust wins over everything, auth wins over download.
	assert.Equal(t, CategoryTrust, Classify("trust token download"))
	assert.Equal(t, CategoryAuth, Classify("download returned 403"))
	assert.Equal(t, CategoryDownload, Classify("download url broken"))
}

func TestInferRecipeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/tmp/Firefox.upload.jamf-2024-05-01T09-30-00.plist", want: "Firefox.upload.jamf"},
		{in: "Firefox.upload.jamf.plist", want: "Firefox.upload.jamf"},
		{in: "Foo.upload.jamf.recipe.yaml.plist", want: "Foo.upload.jamf"},
		{in: "Foo.upload.jamf.recipe-2024-05-01T09-30-00.plist", want: "Foo.upload.jamf"},
		{in: "reports/autopkg_report-1/Bar.pkg.recipe.yaml-2023-12-31T23-59-59.plist", want: "Bar.pkg"},
		{in: "Baz-2024-05-01.plist", want: "Baz-2024-05-01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferRecipeIdentifier(tt.in), tt.in)
	}
}

func TestPlausibleAppName(t *testing.T) {
	for _, name := range []string{"", "-", "apps", "Packages", "PKG", "file", "37", "1.2.3"} {
		assert.False(t, plausibleAppName(name), name)
	}
	for _, name := range []string{"Firefox", "7zip", "Google Chrome"} {
		assert.True(t, plausibleAppName(name), name)
	}
}

func TestFindRoots(t *testing.T) {
	t.Run("missing base", func(t *testing.T) {
		assert.Empty(t, FindRoots(filepath.Join(t.TempDir(), "nope")))
	})

	t.Run("marked directories sorted", func(t *testing.T) {
		base := t.TempDir()
		for _, d := range []string{"autopkg_report-b", "nested/autopkg_report-a", "other"} {
			require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0755))
		}
		writeFile(t, filepath.Join(base, "loose.txt"), "x")

		want := []string{
			filepath.Join(base, "autopkg_report-b"),
			filepath.Join(base, "nested/autopkg_report-a"),
		}
		if diff := cmp.Diff(want, FindRoots(base)); diff != "" {
			t.Errorf("FindRoots mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("flat directory", func(t *testing.T) {
		base := t.TempDir()
		writeFile(t, filepath.Join(base, "Foo.plist"), "x")
		assert.Equal(t, []string{base}, FindRoots(base))
	})

	t.Run("empty directory", func(t *testing.T) {
		assert.Empty(t, FindRoots(t.TempDir()))
	})
}

func TestBuildLinkMap(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "Firefox/Firefox.upload.jamf.recipe.yaml"), "x")
	writeFile(t, filepath.Join(repo, "Chrome/GoogleChrome.pkg.recipe"), "x")
	writeFile(t, filepath.Join(repo, "README.md"), "x")

	links := BuildLinkMap(repo, "https://github.com/org/overrides/", "main")
	assert.Equal(t, LinkMap{
		"Firefox.upload.jamf": "https://github.com/org/overrides/blob/main/Firefox/Firefox.upload.jamf.recipe.yaml",
		"GoogleChrome.pkg":    "https://github.com/org/overrides/blob/main/Chrome/GoogleChrome.pkg.recipe",
	}, links)

	assert.Empty(t, BuildLinkMap(repo, "", "main"))
	assert.Empty(t, BuildLinkMap(filepath.Join(repo, "missing"), "u", "main"))
}

func TestLinkMapResolve(t *testing.T) {
	links := LinkMap{
		"Firefox.upload.jamf": "u1",
		"Chrome.upload.jamf":  "u2",
		"Chrome.self_service": "u3",
	}
	assert.Equal(t, "Firefox.upload.jamf", links.Resolve("Firefox.upload.jamf"))
	assert.Equal(t, "Firefox.upload.jamf", links.Resolve("Firefox"))
	assert.Equal(t, "Chrome", links.Resolve("Chrome"), "ambiguous names stay as is")
	assert.Equal(t, "Slack", links.Resolve("Slack"))
	assert.Equal(t, "Slack", LinkMap(nil).Resolve("Slack"))
	assert.Equal(t, "u1", links.URL("Firefox.upload.jamf"))
	assert.Empty(t, links.URL("Slack"))
}
