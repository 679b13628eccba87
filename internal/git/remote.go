package git

import (
	"fmt"
	"strings"
)

// RemoteInfo describes a GitHub remote.
type RemoteInfo struct {
	URL string // https://github.com/owner/repo
	Ref string // owner/repo
}

// ParseRemote accepts https and scp-style ssh GitHub remotes.
func ParseRemote(remote string) (RemoteInfo, error) {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), "/")
	remote = strings.TrimSuffix(remote, ".git")

	var host, path string
	switch {
	case strings.HasPrefix(remote, "https://"), strings.HasPrefix(remote, "http://"):
		rest := remote[strings.Index(remote, "://")+3:]
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		host, path, _ = strings.Cut(rest, "/")
	case strings.HasPrefix(remote, "ssh://"):
		rest := strings.TrimPrefix(remote, "ssh://")
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		host, path, _ = strings.Cut(rest, "/")
		host, _, _ = strings.Cut(host, ":")
	case strings.Contains(remote, "@") && strings.Contains(remote, ":"):
		rest := remote[strings.Index(remote, "@")+1:]
		host, path, _ = strings.Cut(rest, ":")
	default:
		return RemoteInfo{}, fmt.Errorf("unrecognised git remote %q", remote)
	}

	if host == "" || strings.Count(path, "/") != 1 {
		return RemoteInfo{}, fmt.Errorf("unrecognised git remote %q", remote)
	}
	return RemoteInfo{URL: "https://" + host + "/" + path, Ref: path}, nil
}
