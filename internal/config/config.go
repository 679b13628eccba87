// Package config provides configuration management for autopkg-wrapper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConcurrency is returned by Validate when the worker count is not positive.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// BranchTimeFormat is the timestamp layout used in default trust branch names.
const BranchTimeFormat = "2006-01-02T15-04-05"

// Config holds all configuration for autopkg-wrapper.
type Config struct {
	// Recipe selection
	Recipes               []string `yaml:"recipes" json:"recipes,omitempty"`
	RecipeFile            string   `yaml:"recipe_file" json:"recipe_file,omitempty"`
	RecipeProcessingOrder []string `yaml:"recipe_processing_order" json:"recipe_processing_order,omitempty"`

	Autopkg AutopkgConfig `yaml:"autopkg" json:"autopkg"`
	Trust   TrustConfig   `yaml:"trust" json:"trust"`
	GitHub  GitHubConfig  `yaml:"github" json:"github"`
	Slack   SlackConfig   `yaml:"slack" json:"slack"`
	Reports ReportsConfig `yaml:"reports" json:"reports"`
	Jamf    JamfConfig    `yaml:"jamf" json:"jamf"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Autopkg: AutopkgConfig{
			Bin:         "/usr/local/bin/autopkg",
			Concurrency: 1,
			ReportDir:   "/private/tmp/autopkg",
			RunTimeout:  "60m",
		},
		Trust: TrustConfig{
			BranchName: DefaultBranchName(time.Now()),
		},
		GitHub: GitHubConfig{
			APIURL:     "https://api.github.com",
			IssueLabel: "autopkg-failure",
		},
		Reports: ReportsConfig{
			ExtractDir: "autopkg_reports_summary/reports",
			OutDir:     "autopkg_reports_summary/summary",
		},
		Jamf: JamfConfig{
			Timeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultBranchName returns the trust update branch used when none is configured.
func DefaultBranchName(now time.Time) string {
	return "fix/update_trust_information/" + now.Format(BranchTimeFormat)
}

// Load loads configuration from a YAML file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Recipe selection
	if v := os.Getenv("AW_RECIPES"); v != "" {
		c.Recipes = []string{v}
	}
	if v := os.Getenv("AW_RECIPE_FILE"); v != "" {
		c.RecipeFile = v
	}
	if v := os.Getenv("AW_RECIPE_PROCESSING_ORDER"); v != "" {
		c.RecipeProcessingOrder = []string{v}
	}

	// autopkg
	if v := os.Getenv("AW_AUTOPKG_BIN"); v != "" {
		c.Autopkg.Bin = v
	}
	if v := os.Getenv("AW_AUTOPKG_PREFS_FILE"); v != "" {
		c.Autopkg.PrefsFile = v
	}
	if v := os.Getenv("AW_POST_PROCESSORS"); v != "" {
		c.Autopkg.PostProcessors = []string{v}
	}
	if v := os.Getenv("AW_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Autopkg.Concurrency = n
		}
	}
	if b, ok := envBool("AW_DEBUG"); ok {
		c.Logging.Debug = b
	}

	// Trust / git
	if v := os.Getenv("AW_TRUST_BRANCH"); v != "" {
		c.Trust.BranchName = v
	}
	if b, ok := envBool("AW_CREATE_PR"); ok {
		c.Trust.CreatePR = b
	}
	if v := os.Getenv("AW_OVERRIDES_REPO_PATH"); v != "" {
		c.Trust.OverridesRepoPath = v
	}

	// Integrations
	if v := os.Getenv("SLACK_WEBHOOK_TOKEN"); v != "" {
		c.Slack.WebhookURL = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	} else if v := os.Getenv("GH_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("AUTOPKG_JSS_URL"); v != "" {
		c.Jamf.URL = v
	}
	if v := os.Getenv("AUTOPKG_CLIENT_ID"); v != "" {
		c.Jamf.ClientID = v
	}
	if v := os.Getenv("AUTOPKG_CLIENT_SECRET"); v != "" {
		c.Jamf.ClientSecret = v
	}

	// Reports
	if v := os.Getenv("AW_REPORTS_ZIP"); v != "" {
		c.Reports.Zip = v
	}
	if v := os.Getenv("AW_REPORTS_EXTRACT_DIR"); v != "" {
		c.Reports.ExtractDir = v
	}
	if v := os.Getenv("AW_REPORTS_DIR"); v != "" {
		c.Reports.Dir = v
	}
	if v := os.Getenv("AW_REPORTS_OUT_DIR"); v != "" {
		c.Reports.OutDir = v
	}
	if v := os.Getenv("AW_REPORTS_RUN_DATE"); v != "" {
		c.Reports.RunDate = v
	}
	if v := os.Getenv("AW_REPORTS_ENVIRONMENT"); v != "" {
		c.Reports.Environment = v
	}
	if b, ok := envBool("AW_REPORTS_STRICT"); ok {
		c.Reports.Strict = b
	}
}

// envBool reads a boolean environment variable. The second return is false
// when the variable is unset or not a recognised boolean spelling.
func envBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	return ParseBool(v)
}

// ParseBool accepts the spellings 1/true/yes/t and 0/false/no/f, case-insensitively.
func ParseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "t":
		return true, true
	case "0", "false", "no", "f":
		return false, true
	default:
		return false, false
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Autopkg.Concurrency < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidConcurrency, c.Autopkg.Concurrency)
	}
	if c.Autopkg.Bin == "" {
		return fmt.Errorf("autopkg binary path not configured (set AW_AUTOPKG_BIN)")
	}
	if c.Trust.CreatePR && c.GitHub.Token == "" {
		return fmt.Errorf("pull request creation requires a GitHub token (set GITHUB_TOKEN or GH_TOKEN)")
	}
	return nil
}

// ReportsSource returns the directory report processing reads when no zip is
// given: the configured reports dir, else the autopkg report plist dir.
func (c *Config) ReportsSource() string {
	if c.Reports.Dir != "" {
		return c.Reports.Dir
	}
	return c.Autopkg.ReportDir
}

// GetRunTimeout returns the per-recipe autopkg timeout as a duration.
func (c *Config) GetRunTimeout() time.Duration {
	d, err := time.ParseDuration(c.Autopkg.RunTimeout)
	if err != nil {
		return 60 * time.Minute
	}
	return d
}

// GetJamfTimeout returns the Jamf Pro HTTP timeout as a duration.
func (c *Config) GetJamfTimeout() time.Duration {
	d, err := time.ParseDuration(c.Jamf.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
