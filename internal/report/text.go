package report

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"autopkgwrapper/internal/logging"
)

var (
	reError   = regexp.MustCompile(`(?i)ERROR[:\s-]+(.+)`)
	reUpload  = regexp.MustCompile(`(?i)(uploading|uploaded|upload)(.*)$`)
	rePolicy  = regexp.MustCompile(`(?i)Policy (created|updated):\s*(.+)`)
	reVersion = regexp.MustCompile(`(?i)\s+version\b`)
	reNumeric = regexp.MustCompile(`^\D*(\d+(?:\.\d+)+)`)
	// An app name is the trailing run of these characters before "version".
	reAppName = regexp.MustCompile(`[A-Za-z0-9 ._+\-]+$`)
)

const maxTextLine = 1 << 20

// ParseText scans a free-form log line by line. Each line yields at most one
// fact, checked in the order error, upload, policy. It never fails; a read
// error keeps whatever was parsed before it.
func ParseText(path string) Result {
	var res Result
	f, err := os.Open(path)
	if err != nil {
		logging.ReportsWarn("Failed to open %s: %v", path, err)
		return res
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxTextLine)
	for sc.Scan() {
		parseTextLine(strings.ToValidUTF8(sc.Text(), ""), &res)
	}
	if err := sc.Err(); err != nil {
		logging.ReportsWarn("Stopped reading %s: %v", path, err)
	}
	return res
}

func parseTextLine(line string, res *Result) {
	if m := reError.FindStringSubmatch(line); m != nil {
		res.Errors = append(res.Errors, strings.TrimSpace(m[1]))
		return
	}
	if u, ok := parseUploadLine(line); ok {
		res.Uploads = append(res.Uploads, u)
		return
	}
	if m := rePolicy.FindStringSubmatch(line); m != nil {
		res.Policies = append(res.Policies, Policy{
			Name:   strings.TrimSpace(m[2]),
			Action: strings.ToLower(m[1]),
		})
	}
}

// parseUploadLine extracts the name and optional dotted version that follow
// an upload keyword: "Uploaded Firefox version 126.0.1".
func parseUploadLine(line string) (Upload, bool) {
	m := reUpload.FindStringSubmatch(line)
	if m == nil {
		return Upload{}, false
	}
	rest := m[2]
	before, after := rest, ""
	if loc := reVersion.FindStringIndex(rest); loc != nil {
		before, after = rest[:loc[0]], rest[loc[1]:]
	}

	name := strings.TrimSpace(reAppName.FindString(before))
	if name == "" {
		return Upload{}, false
	}
	version := "-"
	if m := reNumeric.FindStringSubmatch(after); m != nil {
		version = m[1]
	}
	return Upload{Name: name, Version: version}, true
}
