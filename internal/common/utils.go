package common

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues
// in env files: surrounding whitespace, quotes and stray brackets.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Example: "\"https://suumo.jp/jj/...\";" -> "https://suumo.jp/jj/..."
	// Wrappers can nest in any order, so trim until nothing changes.
	for {
		before := cleaned
		for _, char := range []string{"\"", "'", "<", "(", "["} {
			cleaned = strings.TrimPrefix(cleaned, char)
		}
		for _, char := range []string{"\"", "'", ">", ")", "]", ";"} {
			cleaned = strings.TrimSuffix(cleaned, char)
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == before {
			return cleaned
		}
	}
}

// ValidateHTTPURL checks that raw is an absolute http(s) URL with a host.
func ValidateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is not set", name)
	}
	if strings.Contains(raw, " ") {
		return fmt.Errorf("%s %q contains spaces", name, raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is not a valid URL: %w", name, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s %q must use http or https", name, raw)
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return fmt.Errorf("%s %q has no valid host", name, raw)
	}
	return nil
}
