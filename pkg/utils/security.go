package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseInt reads a query parameter such as a thumbnail size. Missing or
// malformed values give def; others are clamped to [lo, hi].
func ParseInt(value string, def, lo, hi int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return min(max(i, lo), hi)
}

// SanitizeFilename maps every character outside [A-Za-z0-9_.-] to '_'.
// Performance: O(n) - No Regex overhead.
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	for _, r := range name {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('_')
	}
	return sb.String()
}

// DownloadName builds the attachment name for an exported project image.
func DownloadName(name, id string) string {
	if strings.TrimSpace(name) == "" {
		name = "project-" + id
	}
	return SanitizeFilename(name) + ".jpg"
}

// IsAllowedOrigin reports whether a browser Origin header matches one of
// the configured patterns. Patterns are exact origins, "*", or a scheme plus
// wildcard subdomain such as "https://*.example.com".
func IsAllowedOrigin(origin string, patterns []string) bool {
	if origin == "" {
		return false
	}
	origin = normalizeOrigin(origin)
	for _, pattern := range patterns {
		if MatchOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// normalizeOrigin drops any path or query a client may have sent.
func normalizeOrigin(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return origin
	}
	return u.Scheme + "://" + u.Host
}

func MatchOrigin(origin, pattern string) bool {
	if pattern == "*" || origin == pattern {
		return true
	}

	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok || !strings.HasPrefix(suffix, ".") {
		return false
	}
	if len(origin) <= len(prefix)+len(suffix) || !strings.HasPrefix(origin, prefix) || !strings.HasSuffix(origin, suffix) {
		return false
	}

	// The wildcard covers exactly one host label chain, never a path.
	sub := origin[len(prefix) : len(origin)-len(suffix)]
	return !strings.ContainsAny(sub, "/:")
}
