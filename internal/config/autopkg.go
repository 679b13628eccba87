package config

// AutopkgConfig configures how recipes are executed.
type AutopkgConfig struct {
	Bin            string   `yaml:"bin" json:"bin,omitempty"`                         // autopkg executable
	PrefsFile      string   `yaml:"prefs_file" json:"prefs_file,omitempty"`           // --prefs
	PostProcessors []string `yaml:"post_processors" json:"post_processors,omitempty"` // --post, per run
	Concurrency    int      `yaml:"concurrency" json:"concurrency,omitempty"`         // workers per batch
	ReportDir      string   `yaml:"report_dir" json:"report_dir,omitempty"`           // --report-plist target dir
	RunTimeout     string   `yaml:"run_timeout" json:"run_timeout,omitempty"`         // e.g. "60m"
	DryRun         bool     `yaml:"dry_run" json:"dry_run,omitempty"`

	// Trust verification
	DisableTrustCheck bool `yaml:"disable_trust_check" json:"disable_trust_check,omitempty"`
}

// TrustConfig configures how updated trust information is committed.
type TrustConfig struct {
	OverridesRepoPath  string `yaml:"overrides_repo_path" json:"overrides_repo_path,omitempty"`
	BranchName         string `yaml:"branch_name" json:"branch_name,omitempty"`
	DisableGitCommands bool   `yaml:"disable_git_commands" json:"disable_git_commands,omitempty"`
	CreatePR           bool   `yaml:"create_pr" json:"create_pr,omitempty"`
	CreateIssues       bool   `yaml:"create_issues" json:"create_issues,omitempty"`
}
