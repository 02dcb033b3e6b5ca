// Package ownership decides whether a repository is a fork of someone else's project
package ownership

import (
	"net/url"
	"strings"
)

// HostRule recognizes remotes on one hosting service and extracts the owner
type HostRule struct {
	Host string
}

// Hosts lists the hosting services whose remotes carry an owner segment we trust.
// Remotes on any other host are treated as owned.
var Hosts = []HostRule{
	{Host: "github.com"},
}

// ParseRemote splits a remote URL into host and owner.
// Accepts scp-like "git@host:owner/repo.git" and URL forms with a scheme.
func ParseRemote(remote string) (host, owner string, ok bool) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", "", false
	}

	var path string
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil || u.Hostname() == "" {
			return "", "", false
		}
		host, path = u.Hostname(), u.Path
	} else {
		hostPart, p, found := strings.Cut(remote, ":")
		if !found {
			return "", "", false
		}
		if at := strings.LastIndex(hostPart, "@"); at >= 0 {
			hostPart = hostPart[at+1:]
		}
		host, path = hostPart, p
	}

	owner, _, _ = strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if host == "" || owner == "" {
		return "", "", false
	}
	return strings.ToLower(host), owner, true
}

// Owner returns the owner segment of a remote on a recognized host
func Owner(remote string) (string, bool) {
	host, owner, ok := ParseRemote(remote)
	if !ok {
		return "", false
	}
	for _, h := range Hosts {
		if h.Host == host {
			return owner, true
		}
	}
	return "", false
}

// IsFork reports whether the remote's owner differs from identity.
// Missing input, unknown hosts and unparsable remotes are never forks.
func IsFork(remoteURL, identity *string) bool {
	if remoteURL == nil || identity == nil || strings.TrimSpace(*identity) == "" {
		return false
	}
	owner, ok := Owner(*remoteURL)
	if !ok {
		return false
	}
	return !strings.EqualFold(owner, strings.TrimSpace(*identity))
}
