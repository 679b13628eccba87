package config

// ReportsConfig configures report aggregation.
type ReportsConfig struct {
	Process     bool   `yaml:"process" json:"process,omitempty"` // run aggregation after recipes
	Zip         string `yaml:"zip" json:"zip,omitempty"`
	ExtractDir  string `yaml:"extract_dir" json:"extract_dir,omitempty"`
	Dir         string `yaml:"dir" json:"dir,omitempty"`
	OutDir      string `yaml:"out_dir" json:"out_dir,omitempty"`
	RunDate     string `yaml:"run_date" json:"run_date,omitempty"`
	Environment string `yaml:"environment" json:"environment,omitempty"`
	Strict      bool   `yaml:"strict" json:"strict,omitempty"`

	// Recipe links
	RepoURL    string `yaml:"repo_url" json:"repo_url,omitempty"`
	RepoBranch string `yaml:"repo_branch" json:"repo_branch,omitempty"`
	RepoPath   string `yaml:"repo_path" json:"repo_path,omitempty"`
}
