// Package urlnorm turns raw user input into a host and path, a canonical URL,
// and a storage-safe key. None of the parsing helpers fail: malformed input
// degrades to a best-effort split.
package urlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// Target is the parsed form of a raw URL
type Target struct {
	Scheme    string // Lowercased; "https" when the input had none
	HadScheme bool   // Whether the raw input carried an explicit scheme
	Host      string // Lowercased host, including port when present
	Path      string // Always starts with "/"
	Query     string
}

// Hostname returns the host without any port
func (t Target) Hostname() string {
	if h, _, err := net.SplitHostPort(t.Host); err == nil {
		return h
	}
	return strings.Trim(t.Host, "[]")
}

// HasScheme reports whether raw starts with a recognized scheme
func HasScheme(raw string) bool {
	return schemeRe.MatchString(strings.TrimSpace(raw))
}

// Parse splits raw input into host and path, prepending https:// when no
// scheme is present. It never fails.
func Parse(raw string) Target {
	raw = strings.TrimSpace(raw)
	hadScheme := HasScheme(raw)

	withScheme := raw
	if !hadScheme {
		withScheme = "https://" + raw
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return fallback(raw, hadScheme)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return Target{
		Scheme:    strings.ToLower(u.Scheme),
		HadScheme: hadScheme,
		Host:      strings.ToLower(u.Host),
		Path:      path,
		Query:     u.RawQuery,
	}
}

// fallback approximates host and path by splitting on the first "/"
func fallback(raw string, hadScheme bool) Target {
	scheme := "https"
	rest := raw
	if hadScheme {
		idx := strings.Index(raw, "://")
		scheme = strings.ToLower(raw[:idx])
		rest = raw[idx+3:]
	}

	host, path := rest, "/"
	if idx := strings.Index(rest, "/"); idx >= 0 {
		host, path = rest[:idx], rest[idx:]
	}

	query := ""
	if idx := strings.Index(path, "?"); idx >= 0 {
		path, query = path[:idx], path[idx+1:]
	}
	if idx := strings.Index(host, "?"); idx >= 0 {
		host, query = host[:idx], host[idx+1:]
	}

	return Target{
		Scheme:    scheme,
		HadScheme: hadScheme,
		Host:      strings.ToLower(host),
		Path:      path,
		Query:     query,
	}
}

// Canonical returns raw with its scheme lowercased, or with https://
// prepended when no scheme is present
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if HasScheme(raw) {
		idx := strings.Index(raw, "://")
		return strings.ToLower(raw[:idx]) + raw[idx:]
	}
	return "https://" + raw
}

// keyReplacer substitutes characters that are not allowed in store path segments
var keyReplacer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
	"/", "_",
	"?", "_",
	":", "_",
	"%", "_",
	" ", "_",
)

// Keys longer than maxKeyLength keep a readable prefix and a digest of the
// whole key so they stay usable as file names.
const (
	maxKeyLength = 128
	keyPrefixLen = 80
)

// StorageKey derives the community key for a URL from its host and path.
// Scheme, a trailing slash and host case do not change the key.
func StorageKey(raw string) string {
	t := Parse(raw)
	path := strings.TrimRight(t.Path, "/")
	key := keyReplacer.Replace(t.Host + path)
	if len(key) <= maxKeyLength {
		return key
	}
	cut := keyPrefixLen
	for cut > 0 && !utf8.RuneStart(key[cut]) {
		cut--
	}
	sum := sha256.Sum256([]byte(key))
	return key[:cut] + "_" + hex.EncodeToString(sum[:16])
}

// Registrable returns the eTLD+1 for host, or host itself when it has none
func Registrable(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// ErrInvalidAddress is returned by Validate for input that is not a usable address
var ErrInvalidAddress = errors.New("invalid address")

// Validate checks that raw names a plausible host before any network work
func Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty input", ErrInvalidAddress)
	}

	t := Parse(raw)
	if t.Scheme != "http" && t.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, t.Scheme)
	}

	host := t.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	if strings.ContainsAny(host, " \t\r\n") {
		return fmt.Errorf("%w: host contains whitespace", ErrInvalidAddress)
	}
	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !strings.Contains(strings.Trim(host, "."), ".") {
		return fmt.Errorf("%w: host %q has no domain suffix", ErrInvalidAddress, host)
	}

	return nil
}

// ErrPrivateAddress is returned by ValidatePublic for loopback, private and
// other non-routable targets
var ErrPrivateAddress = errors.New("address is not publicly routable")

// ValidatePublic is Validate plus a rejection of localhost and IP literals
// outside public unicast space. Names are not resolved.
func ValidatePublic(raw string) error {
	if err := Validate(raw); err != nil {
		return err
	}

	host := strings.TrimSuffix(Parse(raw).Hostname(), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	if ip := net.ParseIP(host); ip != nil && !IsPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

// IsPublicIP reports whether ip is a global unicast address outside the
// private, loopback, link-local and unspecified ranges
func IsPublicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	}
	return ip.IsGlobalUnicast()
}
