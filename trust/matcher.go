package trust

import (
	"net/url"
	"regexp"
	"strings"
)

// Self is the resource URL pattern matching the policy's own origin.
const Self = "'self'"

// matcher tests resource URLs against one allow or block list entry.
type matcher struct {
	re   *regexp.Regexp
	self bool
}

// compileMatcher converts a pattern into a matcher. In a pattern, "**"
// matches any run of characters and "*" matches any run not containing
// one of ":/.?&;". Patterns match the whole URL.
func compileMatcher(pattern string) matcher {
	if pattern == Self {
		return matcher{self: true}
	}

	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\*`, `[^:/.?&;]*`)

	return matcher{re: regexp.MustCompile("^" + quoted + "$")}
}

func compileMatchers(patterns []string) []matcher {
	m := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		m = append(m, compileMatcher(p))
	}

	return m
}

func (m matcher) match(raw string, u *url.URL, origin *url.URL) bool {
	if !m.self {
		return m.re.MatchString(raw)
	}

	if u == nil {
		return false
	}

	if u.Scheme == "" && u.Host == "" {
		return true
	}

	return origin != nil &&
		strings.EqualFold(u.Scheme, origin.Scheme) &&
		strings.EqualFold(u.Host, origin.Host)
}

func matchAny(list []matcher, raw string, origin *url.URL) bool {
	u, err := url.Parse(raw)
	if err != nil {
		u = nil
	}

	for _, m := range list {
		if m.match(raw, u, origin) {
			return true
		}
	}

	return false
}
