package license

import (
	"regexp"
	"strings"
)

// Matches reports whether requestDomain is covered by the license's
// domain pattern. A plain pattern matches by exact equality only. A
// "*.base" pattern additionally matches the bare base domain and any
// subdomain depth under it. Comparison is byte-for-byte; callers are
// expected to lowercase domains before handing them in.
func Matches(pattern, requestDomain string) bool {
	if pattern == requestDomain {
		return true
	}

	if strings.HasPrefix(pattern, "*.") {
		base := pattern[2:]
		if requestDomain == base {
			return true
		}
		if strings.HasSuffix(requestDomain, "."+base) {
			return true
		}
	}

	return false
}

// Labels of alphanumerics/hyphens (no leading/trailing hyphen) separated
// by dots, ending in an alphabetic TLD of at least two characters.
var domainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// ValidPattern checks the shape of a license domain pattern at create and
// edit time. Accepts example.com, sub.example.com and *.example.com forms.
// Matching itself never validates format.
func ValidPattern(pattern string) bool {
	if pattern == "" {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		pattern = pattern[2:]
	}

	return domainPattern.MatchString(pattern)
}
