package heuristics

import "testing"

func TestIsKnownSafe(t *testing.T) {
	tests := map[string]bool{
		"google.com":          true,
		"www.google.com":      true,
		"Mail.Google.com.":    true,
		"google.com.evil.io":  false,
		"notgoogle.com":       false,
		"netflix.com":         true,
		"dropbox.com":         false, // shares the "x.com" suffix without a dot
		"":                    false,
	}
	for host, want := range tests {
		if got := IsKnownSafe(host); got != want {
			t.Errorf("IsKnownSafe(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestIsShortenerHost(t *testing.T) {
	tests := map[string]bool{
		"bit.ly":       true,
		"www.bit.ly":   true,
		"TinyURL.com":  true,
		"t.co":         true,
		"example.com":  false,
		"bit.ly.evil":  false,
	}
	for host, want := range tests {
		if got := IsShortenerHost(host); got != want {
			t.Errorf("IsShortenerHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestHasUrgencyLanguage(t *testing.T) {
	tests := map[string]bool{
		"https://www.google.com/":                  false,
		"http://badsite-login.com/verify-account":  true,
		"https://example.com/RESET-Password":       true,
		"https://shop.example.com/items/42":        false,
		"https://example.com/?claim=now":           true,
	}
	for text, want := range tests {
		if got := HasUrgencyLanguage(text); got != want {
			t.Errorf("HasUrgencyLanguage(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestEstimateDomainAge(t *testing.T) {
	if got := EstimateDomainAge("www.google.com"); got != knownDomainAgeDays {
		t.Errorf("known domain age = %d, want %d", got, knownDomainAgeDays)
	}
	if got := EstimateDomainAge("new-shop.io"); got != youngDomainAgeDays {
		t.Errorf("new- marker age = %d, want %d", got, youngDomainAgeDays)
	}
	if got := EstimateDomainAge("recently.example"); got != youngDomainAgeDays {
		t.Errorf("recent marker age = %d, want %d", got, youngDomainAgeDays)
	}

	// 11 characters: 1095 - 660
	if got := EstimateDomainAge("example.com"); got != 435 {
		t.Errorf("EstimateDomainAge(example.com) = %d, want 435", got)
	}
	// badsite-login.com is 17 characters: 1095 - 1020
	if got := EstimateDomainAge("badsite-login.com"); got != 75 {
		t.Errorf("EstimateDomainAge(badsite-login.com) = %d, want 75", got)
	}

	hosts := []string{"", "a", "a.b", "averyveryveryverylongsubdomain.example-domain.org"}
	for _, h := range hosts {
		got := EstimateDomainAge(h)
		if got < minDomainAgeDays || got > maxDomainAgeDays {
			t.Errorf("EstimateDomainAge(%q) = %d, out of [%d, %d]", h, got, minDomainAgeDays, maxDomainAgeDays)
		}
	}

	if EstimateDomainAge("stable.example") != EstimateDomainAge("stable.example") {
		t.Error("EstimateDomainAge is not deterministic")
	}
}

func TestEstimateSSLValidity(t *testing.T) {
	tests := map[string]bool{
		"https://www.google.com/":         true,
		"http://example.com":              false,
		"HTTP://EXAMPLE.COM":              false,
		"example.com":                     true,
		"https://expired.badssl.com/":     false,
		"https://self-signed.example.org": false,
	}
	for u, want := range tests {
		if got := EstimateSSLValidity(u); got != want {
			t.Errorf("EstimateSSLValidity(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestEstimateBlacklisted(t *testing.T) {
	tests := map[string]bool{
		"badsite-login.com":   true,
		"secure-phishing.net": true,
		"free-money.biz":      true,
		"example.com":         false,
		"www.google.com":      false,
	}
	for host, want := range tests {
		if got := EstimateBlacklisted(host); got != want {
			t.Errorf("EstimateBlacklisted(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestEstimateExcessiveRedirects(t *testing.T) {
	tests := []struct {
		url  string
		host string
		want bool
	}{
		{"https://example.com/out?url=https://evil.io", "example.com", true},
		{"https://example.com/redirect/abc", "example.com", true},
		{"https://bit.ly/3xyz", "bit.ly", true},
		{"https://example.com/about", "example.com", false},
	}
	for _, tt := range tests {
		if got := EstimateExcessiveRedirects(tt.url, tt.host); got != tt.want {
			t.Errorf("EstimateExcessiveRedirects(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsCleanDomainShape(t *testing.T) {
	tests := map[string]bool{
		"www.google.com":                true,
		"accounts.login.google.com":     true, // allow-listed despite four labels
		"example.com":                   true,
		"shop.example.co":               true,
		"a.b.c.d":                       false,
		"badsite-login.com":             false,
		"averyveryverylongname.com":     false, // 25 characters
		"":                              false,
	}
	for host, want := range tests {
		if got := IsCleanDomainShape(host); got != want {
			t.Errorf("IsCleanDomainShape(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestPlaceholderMatchesPredicates(t *testing.T) {
	var s Signals = Placeholder{}
	if s.DomainAgeDays("example.com") != EstimateDomainAge("example.com") {
		t.Error("Placeholder.DomainAgeDays diverges from EstimateDomainAge")
	}
	if s.SSLValid("http://example.com") {
		t.Error("Placeholder.SSLValid should be false for plaintext")
	}
	if !s.Blacklisted("scam.example") {
		t.Error("Placeholder.Blacklisted should flag scam marker")
	}
	if !s.ExcessiveRedirects("https://bit.ly/x", "bit.ly") {
		t.Error("Placeholder.ExcessiveRedirects should flag shortener")
	}
}
