package userfetch

import (
	"net/url"
	"strings"
)

// sensitiveParams are matched case-insensitively as substrings of query
// parameter names.
var sensitiveParams = []string{
	"api_key",
	"apikey",
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
}

const redacted = "[REDACTED]"

// SanitizeURL returns raw with the userinfo password and sensitive query
// parameters redacted, for use in logs and events. Unparseable input
// is returned as the fixed string "[unparseable url]".
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable url]"
	}

	safe := *u
	if safe.RawQuery != "" {
		q := safe.Query()
		changed := false
		for param := range q {
			if isSensitiveParam(param) {
				q.Set(param, redacted)
				changed = true
			}
		}
		if changed {
			safe.RawQuery = q.Encode()
		}
	}
	return safe.Redacted()
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
