// Package heuristics holds the local URL checks used by the scorer.
//
// Every predicate is pure. Domain age, SSL validity, blacklist membership and
// redirect behaviour are placeholders derived from the URL text; Signals lets
// a caller swap in real lookups without touching the scorer.
package heuristics

import (
	"strings"
)

// knownSafe are major domains that short-circuit several checks
var knownSafe = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"microsoft.com",
	"apple.com",
	"amazon.com",
	"wikipedia.org",
	"github.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"netflix.com",
	"yahoo.com",
	"bing.com",
	"reddit.com",
	"paypal.com",
}

var shorteners = map[string]bool{
	"bit.ly":      true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"t.co":        true,
	"ow.ly":       true,
	"is.gd":       true,
	"buff.ly":     true,
	"rebrand.ly":  true,
	"cutt.ly":     true,
	"shorturl.at": true,
	"tiny.cc":     true,
	"rb.gy":       true,
	"s.id":        true,
}

var urgencyKeywords = []string{
	"verify",
	"reset",
	"password",
	"suspend",
	"malware",
	"urgent",
	"login",
	"signin",
	"confirm",
	"unlock",
	"locked",
	"account",
	"winner",
	"prize",
	"gift",
	"claim",
	"billing",
	"update-payment",
}

var badCertMarkers = []string{"expired", "self-signed", "selfsigned", "invalid-cert", "badssl", "untrusted"}

var blacklistMarkers = []string{"badsite", "phish", "malware", "scam", "fraud", "free-money", "hack", "stealer"}

var redirectMarkers = []string{"redirect", "redir=", "url=", "goto=", "next=", "return_to=", "dest="}

const (
	knownDomainAgeDays = 3650
	youngDomainAgeDays = 30
	minDomainAgeDays   = 10
	maxDomainAgeDays   = 1095
)

// IsKnownSafe reports whether host is, or is a subdomain of, a major domain
func IsKnownSafe(host string) bool {
	host = normalizeHost(host)
	for _, d := range knownSafe {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// KnownSafeDomains returns a copy of the built-in allow-list
func KnownSafeDomains() []string {
	return append([]string(nil), knownSafe...)
}

// IsShortenerHost reports whether host is a known URL shortener
func IsShortenerHost(host string) bool {
	host = strings.TrimPrefix(normalizeHost(host), "www.")
	return shorteners[host]
}

// HasUrgencyLanguage reports whether text contains a high-pressure keyword
func HasUrgencyLanguage(text string) bool {
	return containsAny(strings.ToLower(text), urgencyKeywords)
}

// EstimateDomainAge returns a day count standing in for a WHOIS lookup
func EstimateDomainAge(host string) int {
	host = normalizeHost(host)
	if IsKnownSafe(host) {
		return knownDomainAgeDays
	}
	if strings.Contains(host, "new-") || strings.Contains(host, "recent") {
		return youngDomainAgeDays
	}

	days := maxDomainAgeDays - 60*len(host)
	if days < minDomainAgeDays {
		return minDomainAgeDays
	}
	return days
}

// EstimateSSLValidity is false for plaintext URLs or URLs carrying bad-certificate markers
func EstimateSSLValidity(rawURL string) bool {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if strings.HasPrefix(lower, "http://") {
		return false
	}
	return !containsAny(lower, badCertMarkers)
}

// EstimateBlacklisted reports whether host matches a known-bad marker
func EstimateBlacklisted(host string) bool {
	return containsAny(normalizeHost(host), blacklistMarkers)
}

// EstimateExcessiveRedirects reports redirect parameters or a shortener host
func EstimateExcessiveRedirects(rawURL string, host string) bool {
	if containsAny(strings.ToLower(rawURL), redirectMarkers) {
		return true
	}
	return IsShortenerHost(host)
}

// IsCleanDomainShape is true for major domains, or for short hosts with at
// most three labels and no hyphen
func IsCleanDomainShape(host string) bool {
	host = normalizeHost(host)
	if IsKnownSafe(host) {
		return true
	}
	if host == "" || strings.Contains(host, "-") {
		return false
	}
	return len(strings.Split(host, ".")) <= 3 && len(host) < 25
}

func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
