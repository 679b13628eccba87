package tactile

import "regexp"

var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(https://)[^/@\s]+(@)`),                         // credentials in URLs
	regexp.MustCompile(`(hooks\.slack\.com/services/)\S+`),              // webhook paths
	regexp.MustCompile(`((?:gh[pousr]|github_pat)_)[A-Za-z0-9_]+`),      // GitHub tokens
	regexp.MustCompile(`(?i)(authorization:\s*(?:token|bearer)\s+)\S+`), // auth headers
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]+`),                // bearer tokens
	regexp.MustCompile(`(?i)((?:token|secret|password)[=:]\s*)[^\s&]+`), // key=value secrets
}

// Redact masks credentials that may appear in command lines or output.
func Redact(s string) string {
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, "${1}***${2}")
	}
	return s
}
