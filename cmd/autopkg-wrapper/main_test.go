package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopkgwrapper/internal/config"
	"autopkgwrapper/internal/recipe"
)

// isolateEnv blanks every variable the config layer reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AW_RECIPES", "AW_RECIPE_FILE", "AW_RECIPE_PROCESSING_ORDER",
		"AW_AUTOPKG_BIN", "AW_AUTOPKG_PREFS_FILE", "AW_POST_PROCESSORS",
		"AW_CONCURRENCY", "AW_DEBUG", "AW_TRUST_BRANCH", "AW_CREATE_PR",
		"AW_OVERRIDES_REPO_PATH", "SLACK_WEBHOOK_TOKEN", "GITHUB_TOKEN", "GH_TOKEN",
		"AUTOPKG_JSS_URL", "AUTOPKG_CLIENT_ID", "AUTOPKG_CLIENT_SECRET",
		"AW_REPORTS_ZIP", "AW_REPORTS_EXTRACT_DIR", "AW_REPORTS_DIR",
		"AW_REPORTS_OUT_DIR", "AW_REPORTS_RUN_DATE", "AW_REPORTS_ENVIRONMENT",
		"AW_REPORTS_STRICT",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := root.Execute()
	return out.String(), err
}

func TestPlan_Ordered(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "plan",
		"--recipes", "Zoom.upload.jamf,Chrome.self_service.jamf.recipe.yaml,Arc.upload.jamf,Slack.download",
		"--recipe-processing-order", "upload,self_service",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "4 recipe(s) in 3 batch(es)")
	upload := strings.Index(out, "Batch 1: upload.jamf")
	self := strings.Index(out, "Batch 2: self_service.jamf")
	download := strings.Index(out, "Batch 3: download")
	require.True(t, upload >= 0 && self > upload && download > self, out)
	assert.True(t, strings.Index(out, "Arc.upload.jamf") < strings.Index(out, "Zoom.upload.jamf"))
	assert.Contains(t, out, "Chrome.self_service.jamf\n")
}

func TestPlan_Unordered(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "plan", "B.upload.jamf", "A.download")
	require.NoError(t, err)
	assert.Contains(t, out, "2 recipe(s) in 1 batch(es)")
	assert.True(t, strings.Index(out, "B.upload.jamf") < strings.Index(out, "A.download"))
}

func TestRun_NoRecipes(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "--dry-run")
	assert.True(t, errors.Is(err, recipe.ErrNoRecipes))
}

func TestRun_DryRunWithReports(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reports, 0755))
	outDir := filepath.Join(dir, "summary")

	out, err := execute(t,
		"--recipes", "Foo.download Bar.upload.jamf",
		"--dry-run", "--disable-git-commands",
		"--process-reports", "--reports-dir", reports, "--reports-out-dir", outDir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "2 recipe(s), 0 failed")
	assert.FileExists(t, filepath.Join(outDir, "job_summary.md"))
}

func TestReports_Strict(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reports, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(reports, "run.log"), []byte("ERROR: trust info mismatch\n"), 0644))
	outDir := filepath.Join(dir, "summary")

	out, err := execute(t, "reports", "--reports-dir", reports, "--reports-out-dir", outDir, "--reports-strict")
	var ee *exitError
	require.True(t, errors.As(err, &ee), "expected exit error, got %v", err)
	assert.Equal(t, 1, ee.code)
	assert.Contains(t, out, "Errors file: errors_issue.md")
	assert.FileExists(t, filepath.Join(outDir, "errors_issue.md"))

	_, err = execute(t, "reports", "--reports-dir", reports, "--reports-out-dir", outDir)
	assert.NoError(t, err)
}

func TestReports_Show(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reports, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(reports, "run.log"), []byte("Uploaded Firefox version 126.0\n"), 0644))

	out, err := execute(t, "reports", "--reports-dir", reports, "--reports-out-dir", filepath.Join(dir, "summary"), "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "Autopkg Report Summary")
}

func TestReports_MissingZip(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	_, err := execute(t, "reports", "--reports-zip", filepath.Join(dir, "missing.zip"), "--reports-out-dir", dir)
	assert.Error(t, err)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AW_CONCURRENCY", "3")
	t.Setenv("AW_TRUST_BRANCH", "from-env")

	root, a := newApp()
	require.NoError(t, root.ParseFlags([]string{"--concurrency", "5", "--create-issues", "--reports-environment", "prod"}))

	cfg, err := config.Load("")
	require.NoError(t, err)
	a.opts.apply(root, cfg)

	assert.Equal(t, 5, cfg.Autopkg.Concurrency)
	assert.Equal(t, "from-env", cfg.Trust.BranchName)
	assert.True(t, cfg.Trust.CreateIssues)
	assert.Equal(t, "prod", cfg.Reports.Environment)
	assert.False(t, cfg.Autopkg.DryRun)
}

func TestPlanRecipes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Recipes = []string{"Foo.upload.jamf.recipe, Bar.download"}
	cfg.Autopkg.PostProcessors = []string{"com.example/Post"}

	recipes, ordered, err := planRecipes(cfg, nil)
	require.NoError(t, err)
	assert.False(t, ordered)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Foo.upload.jamf", recipes[0].Identifier())
	assert.Equal(t, []string{"com.example/Post"}, recipes[0].PostProcessors)

	cfg.RecipeProcessingOrder = []string{"download"}
	recipes, ordered, err = planRecipes(cfg, nil)
	require.NoError(t, err)
	assert.True(t, ordered)
	assert.Equal(t, "Bar.download", recipes[0].Identifier())
}

func TestPlanRecipes_EnvListWithArgs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Recipes = []string{"A.download,B.download"}

	recipes, _, err := planRecipes(cfg, []string{"C.download"})
	require.NoError(t, err)
	var ids []string
	for _, r := range recipes {
		ids = append(ids, r.Identifier())
	}
	assert.Equal(t, []string{"A.download", "B.download", "C.download"}, ids)
}
