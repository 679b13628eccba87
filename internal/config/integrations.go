package config

// GitHubConfig configures the GitHub REST client.
type GitHubConfig struct {
	Token      string `yaml:"token" json:"-"`
	APIURL     string `yaml:"api_url" json:"api_url,omitempty"`
	IssueLabel string `yaml:"issue_label" json:"issue_label,omitempty"`
}

// SlackConfig configures webhook notifications. An empty URL disables them.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"-"`
}

// JamfConfig configures the Jamf Pro inventory used to link report rows.
type JamfConfig struct {
	URL          string `yaml:"url" json:"url,omitempty"`
	ClientID     string `yaml:"client_id" json:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret" json:"-"`
	Timeout      string `yaml:"timeout" json:"timeout,omitempty"`
}

// Enabled reports whether enough credentials are present to query Jamf Pro.
func (j JamfConfig) Enabled() bool {
	return j.URL != "" && j.ClientID != "" && j.ClientSecret != ""
}
