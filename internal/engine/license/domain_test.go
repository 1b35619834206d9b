package license

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		domain   string
		expected bool
	}{
		{"exact match", "example.com", "example.com", true},
		{"exact match subdomain pattern", "app.example.com", "app.example.com", true},
		{"trailing garbage", "example.com", "example.comx", false},
		{"plain pattern does not cover subdomains", "example.com", "a.example.com", false},
		{"wildcard covers bare base", "*.example.com", "example.com", true},
		{"wildcard covers subdomain", "*.example.com", "a.example.com", true},
		{"wildcard covers nested subdomain", "*.example.com", "a.b.example.com", true},
		{"wildcard rejects suffix lookalike", "*.example.com", "notexample.com", false},
		{"wildcard rejects different domain", "*.example.com", "example.org", false},
		{"case sensitive as given", "example.com", "Example.com", false},
		{"empty domain", "example.com", "", false},
		{"empty pattern", "", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.pattern, tt.domain); got != tt.expected {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.pattern, tt.domain, got, tt.expected)
			}
		})
	}
}

func TestValidPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		expected bool
	}{
		{"example.com", true},
		{"sub.example.com", true},
		{"sub.sub.example.com", true},
		{"*.example.com", true},
		{"my-site.co.uk", true},
		{"", false},
		{"*.", false},
		{"example", false},
		{"example.c", false},
		{"example.123", false},
		{"-bad.example.com", false},
		{"bad-.example.com", false},
		{".example.com", false},
		{"example..com", false},
		{"*.*.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := ValidPattern(tt.pattern); got != tt.expected {
				t.Errorf("ValidPattern(%q) = %v, want %v", tt.pattern, got, tt.expected)
			}
		})
	}
}
