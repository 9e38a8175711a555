package apiclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint describes how a provider's base URL is configured and which hosts it
// may point at.
type Endpoint struct {
	// EnvName is used in error messages, e.g. "OPENAI_BASE_URL".
	EnvName      string
	AllowEnvName string
	DefaultURL   string
	DefaultHosts []string
}

func (e Endpoint) Normalize(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = e.DefaultURL
	}
	return strings.TrimRight(baseURL, "/")
}

func (e Endpoint) Validate(baseURL string, allowedHosts []string) error {
	baseURL = e.Normalize(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", e.EnvName, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", e.EnvName, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", e.EnvName, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", e.EnvName, baseURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", e.EnvName, baseURL)
	}

	switch scheme {
	case "https":
	default:
		return fmt.Errorf("invalid %s %q: https is required", e.EnvName, baseURL)
	}

	allowed := e.allowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in %s", e.EnvName, baseURL, host, e.AllowEnvName)
	}
	return nil
}

func (e Endpoint) allowedHosts(allowedHosts []string) map[string]struct{} {
	out := normalizeHosts(allowedHosts)
	if len(out) == 0 {
		return normalizeHosts(e.DefaultHosts)
	}
	return out
}

func normalizeHosts(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}
