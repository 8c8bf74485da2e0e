package urlnorm

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw       string
		host      string
		path      string
		scheme    string
		hadScheme bool
	}{
		{"https://www.google.com/", "www.google.com", "/", "https", true},
		{"http://badsite-login.com/verify-account", "badsite-login.com", "/verify-account", "http", true},
		{"example.com", "example.com", "/", "https", false},
		{"Example.COM/Path?q=1", "example.com", "/Path", "https", false},
		{"  github.com/ppiankov  ", "github.com", "/ppiankov", "https", false},
		{"HTTP://Example.com", "example.com", "/", "http", true},
		{"localhost:8080/health", "localhost:8080", "/health", "https", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Host != tt.host {
				t.Errorf("Host = %q, want %q", got.Host, tt.host)
			}
			if got.Path != tt.path {
				t.Errorf("Path = %q, want %q", got.Path, tt.path)
			}
			if got.Scheme != tt.scheme {
				t.Errorf("Scheme = %q, want %q", got.Scheme, tt.scheme)
			}
			if got.HadScheme != tt.hadScheme {
				t.Errorf("HadScheme = %v, want %v", got.HadScheme, tt.hadScheme)
			}
		})
	}
}

func TestParse_Fallback(t *testing.T) {
	// Spaces in the host make url.Parse fail
	got := Parse("https://exa mple.com/a/b")
	if got.Host != "exa mple.com" {
		t.Errorf("Host = %q, want %q", got.Host, "exa mple.com")
	}
	if got.Path != "/a/b" {
		t.Errorf("Path = %q, want /a/b", got.Path)
	}

	got = Parse("bad host/x?y=1")
	if got.Host != "bad host" || got.Path != "/x" || got.Query != "y=1" {
		t.Errorf("unexpected fallback result: %+v", got)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{"", "://", "https://", "/", "%%%", "http://[::1", "a/b/c", "\x00", "https://%zz/"}
	for _, in := range inputs {
		_ = Parse(in)
		_ = StorageKey(in)
		_ = Canonical(in)
	}
}

func TestHostname(t *testing.T) {
	if got := Parse("127.0.0.1:9000/x").Hostname(); got != "127.0.0.1" {
		t.Errorf("Hostname = %q, want 127.0.0.1", got)
	}
	if got := Parse("example.com").Hostname(); got != "example.com" {
		t.Errorf("Hostname = %q, want example.com", got)
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"example.com":           "https://example.com",
		"http://example.com":    "http://example.com",
		" https://a.b/c ":       "https://a.b/c",
		"ftp://files.example":   "ftp://files.example",
		"www.google.com/search": "https://www.google.com/search",
		"HTTP://X.com":          "http://X.com",
		"HttpS://a.b/Path":      "https://a.b/Path",
	}
	for in, want := range tests {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStorageKey_RoundTripVariants(t *testing.T) {
	variants := []string{
		"https://www.example.com/login",
		"http://www.example.com/login/",
		"www.example.com/login",
		"WWW.Example.com/login/",
	}
	want := StorageKey(variants[0])
	for _, v := range variants[1:] {
		if got := StorageKey(v); got != want {
			t.Errorf("StorageKey(%q) = %q, want %q", v, got, want)
		}
	}
	if want != "www_example_com_login" {
		t.Errorf("unexpected key %q", want)
	}
}

func TestStorageKey_NoIllegalCharacters(t *testing.T) {
	key := StorageKey("https://a.b:8080/x/y.html?q=$1#frag[0]")
	for _, c := range ".#$[]/?:" {
		for _, k := range key {
			if k == c {
				t.Fatalf("key %q contains illegal character %q", key, c)
			}
		}
	}
}

func TestStorageKey_LongURLIsBounded(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 300)

	key := StorageKey(long)
	if len(key) > maxKeyLength {
		t.Fatalf("key length = %d, want <= %d", len(key), maxKeyLength)
	}
	if !strings.HasPrefix(key, "example_com_aaa") {
		t.Errorf("key %q lost its readable prefix", key)
	}

	// Variants of the same link share the key; a different tail does not
	if got := StorageKey("http://EXAMPLE.com/" + strings.Repeat("a", 300) + "/"); got != key {
		t.Errorf("variant key = %q, want %q", got, key)
	}
	if other := StorageKey(long + "b"); other == key {
		t.Errorf("distinct long URLs share key %q", key)
	}

	short := StorageKey("https://example.com/login")
	if short != "example_com_login" {
		t.Errorf("short key changed: %q", short)
	}
}

func TestStorageKey_LongUnicodePathStaysValidUTF8(t *testing.T) {
	key := StorageKey("https://example.com/" + strings.Repeat("ж", 200))
	if !utf8.ValidString(key) {
		t.Errorf("key %q is not valid UTF-8", key)
	}
	if len(key) > maxKeyLength {
		t.Errorf("key length = %d", len(key))
	}
}

func TestRegistrable(t *testing.T) {
	tests := map[string]string{
		"www.google.com":      "google.com",
		"a.b.example.co.uk":   "example.co.uk",
		"localhost":           "localhost",
		"Mail.Example.Org.":   "example.org",
	}
	for in, want := range tests {
		if got := Registrable(in); got != want {
			t.Errorf("Registrable(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := []string{
		"https://www.google.com/",
		"example.com",
		"http://127.0.0.1:8080",
		"localhost",
		"bücher.de",
	}
	for _, v := range valid {
		if err := Validate(v); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"notadomain",
		"ftp://example.com",
		"https://exa mple.com",
		"https://",
	}
	for _, v := range invalid {
		err := Validate(v)
		if err == nil {
			t.Errorf("Validate(%q) = nil, want error", v)
			continue
		}
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Validate(%q) error %v does not wrap ErrInvalidAddress", v, err)
		}
	}
}

func TestValidatePublic(t *testing.T) {
	tests := []struct {
		in      string
		private bool
	}{
		{"https://example.com/login", false},
		{"http://93.184.216.34/", false},
		{"http://localhost:8080/admin", true},
		{"http://api.localhost/", true},
		{"http://127.0.0.1/", true},
		{"http://10.1.2.3:9200/_cat", true},
		{"http://192.168.0.1/", true},
		{"http://169.254.169.254/latest/meta-data/", true},
		{"http://0.0.0.0/", true},
		{"http://[::1]:8080/", true},
		{"http://[fd00::1]/", true},
	}
	for _, tt := range tests {
		err := ValidatePublic(tt.in)
		if got := errors.Is(err, ErrPrivateAddress); got != tt.private {
			t.Errorf("ValidatePublic(%q) = %v, want private=%v", tt.in, err, tt.private)
		}
		if !tt.private && err != nil {
			t.Errorf("ValidatePublic(%q) = %v", tt.in, err)
		}
	}

	if err := ValidatePublic("ftp://example.com"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("ftp err = %v, want ErrInvalidAddress", err)
	}
	if err := Validate("http://localhost:8080/"); err != nil {
		t.Errorf("Validate(localhost) = %v, local use stays allowed", err)
	}
}
