package score

import (
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/safelink/internal/model"
)

// fixedSignals answers every signal with a preset value
type fixedSignals struct {
	age       int
	ssl       bool
	listed    bool
	redirects bool
}

func (f fixedSignals) DomainAgeDays(string) int { return f.age }
func (f fixedSignals) SSLValid(string) bool { return f.ssl }
func (f fixedSignals) Blacklisted(string) bool { return f.listed }
func (f fixedSignals) ExcessiveRedirects(string, string) bool { return f.redirects }

func newTestScorer() *Scorer {
	s := NewScorer(nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	s.newID = func() string { return "fixed-id" }
	return s
}

func TestScorer_Score_KnownSafeDomain(t *testing.T) {
	result := newTestScorer().Score("https://www.google.com/")

	if result.Safety != 10 {
		t.Errorf("Safety = %d, want 10 (breakdown %v)", result.Safety, result.Breakdown)
	}
	if result.Tier != model.TierSafe || result.Color != ColorSafe {
		t.Errorf("Tier = %s/%s, want Safe/%s", result.Tier, result.Color, ColorSafe)
	}
	for check, v := range result.Breakdown {
		if v <= 0 {
			t.Errorf("breakdown[%s] = %d, want positive", check, v)
		}
	}
	if result.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", result.Confidence)
	}
	if result.URL != "https://www.google.com/" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.APICheck != nil {
		t.Error("APICheck should be nil after scoring")
	}
	if result.ID != "fixed-id" || result.Likes != 0 || result.Dislikes != 0 || result.Reaction != model.ReactionNone {
		t.Errorf("unexpected initial fields: %+v", result)
	}
	if len(result.Reasons) != 7 || result.Reasons[0] != ConfirmationText(model.CheckHTTPS) {
		t.Errorf("Reasons = %v, want seven confirmations led by HTTPS", result.Reasons)
	}
}

func TestScorer_Score_PhishingURL(t *testing.T) {
	result := newTestScorer().Score("http://badsite-login.com/verify-account")

	if result.Safety != 0 {
		t.Errorf("Safety = %d, want 0 (breakdown %v)", result.Safety, result.Breakdown)
	}
	if result.Tier != model.TierHighRisk {
		t.Errorf("Tier = %s, want High Risk", result.Tier)
	}

	want := model.Breakdown{
		model.CheckHTTPS:       0,
		model.CheckSSL:         0,
		model.CheckBlacklist:   -2,
		model.CheckCleanDomain: 0,
		model.CheckKeywords:    -1,
		model.CheckDomainAge:   0,
		model.CheckRedirects:   1,
	}
	if !reflect.DeepEqual(result.Breakdown, want) {
		t.Errorf("Breakdown = %v, want %v", result.Breakdown, want)
	}

	wantReasons := []string{
		CautionText(model.CheckBlacklist),
		CautionText(model.CheckKeywords),
		CautionText(model.CheckHTTPS),
		CautionText(model.CheckSSL),
		CautionText(model.CheckDomainAge),
	}
	if !reflect.DeepEqual(result.Reasons, wantReasons) {
		t.Errorf("Reasons = %v, want %v", result.Reasons, wantReasons)
	}

	if result.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", result.Confidence)
	}
}

func TestScorer_Score_SchemelessInput(t *testing.T) {
	s := newTestScorer()

	known := s.Score("google.com")
	if known.Breakdown[model.CheckHTTPS] != 2 {
		t.Errorf("known-safe host without scheme should earn HTTPS points, got %d", known.Breakdown[model.CheckHTTPS])
	}
	if known.URL != "https://google.com" {
		t.Errorf("URL = %q, want https://google.com", known.URL)
	}

	unknown := s.Score("example.com")
	if unknown.Breakdown[model.CheckHTTPS] != 0 {
		t.Errorf("unknown host without scheme should not earn HTTPS points, got %d", unknown.Breakdown[model.CheckHTTPS])
	}

	plain := s.Score("http://google.com")
	if plain.Breakdown[model.CheckHTTPS] != 0 {
		t.Errorf("explicit plaintext must not earn HTTPS points, got %d", plain.Breakdown[model.CheckHTTPS])
	}
}

func TestScorer_Score_MiddleTierCautions(t *testing.T) {
	result := newTestScorer().Score("http://example.com")

	if result.Safety != 6 || result.Tier != model.TierBeCareful {
		t.Fatalf("Safety/Tier = %d/%s, want 6/Be Careful (breakdown %v)", result.Safety, result.Tier, result.Breakdown)
	}
	want := []string{CautionText(model.CheckHTTPS), CautionText(model.CheckSSL)}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", result.Reasons, want)
	}
}

func TestScorer_Score_SafeTierListsOnlyConfirmations(t *testing.T) {
	result := newTestScorer().Score("https://bit.ly/abc")

	if result.Safety != 8 {
		t.Fatalf("Safety = %d, want 8 (breakdown %v)", result.Safety, result.Breakdown)
	}
	for _, r := range result.Reasons {
		if r == CautionText(model.CheckRedirects) {
			t.Errorf("safe result should not list cautions, got %v", result.Reasons)
		}
	}
	if len(result.Reasons) != 6 {
		t.Errorf("Reasons = %v, want six confirmations", result.Reasons)
	}
}

func TestScorer_Score_UsesSignalStrategy(t *testing.T) {
	s := NewScorer(fixedSignals{age: 5, ssl: false, listed: true, redirects: true})
	result := s.Score("https://example.com")

	if result.Breakdown[model.CheckSSL] != 0 {
		t.Errorf("ssl = %d, want 0 from strategy", result.Breakdown[model.CheckSSL])
	}
	if result.Breakdown[model.CheckBlacklist] != -2 {
		t.Errorf("blacklist = %d, want -2 from strategy", result.Breakdown[model.CheckBlacklist])
	}
	if result.Breakdown[model.CheckDomainAge] != 0 {
		t.Errorf("domain_age = %d, want 0 from strategy", result.Breakdown[model.CheckDomainAge])
	}
	if result.Breakdown[model.CheckRedirects] != -1 {
		t.Errorf("redirects = %d, want -1 from strategy", result.Breakdown[model.CheckRedirects])
	}
}

func TestScorer_Score_Bounds(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"https://www.google.com/",
		"http://badsite-login.com/verify-account",
		"http://new-scam-phish.xyz/login?redirect=1&url=x",
		"https://expired.badssl.com/",
		"ftp://weird",
		"%%%",
		"https://a.b.c.d.e.f.g.example-long-host-name.io/reset/password",
		"bit.ly/x",
		"https://[::1]:8443/",
	}
	s := NewScorer(nil)
	for _, in := range inputs {
		r := s.Score(in)
		if r.Safety < MinSafety || r.Safety > MaxSafety {
			t.Errorf("Score(%q).Safety = %d, out of range", in, r.Safety)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("Score(%q).Confidence = %v, out of range", in, r.Confidence)
		}
		if len(r.Reasons) == 0 {
			t.Errorf("Score(%q) produced no reasons", in)
		}
		tier, color := TierOf(r.Safety)
		if r.Tier != tier || r.Color != color {
			t.Errorf("Score(%q) tier/color %s/%s inconsistent with safety %d", in, r.Tier, r.Color, r.Safety)
		}
		if r.ID == "" {
			t.Errorf("Score(%q) has empty id", in)
		}
	}
}

func TestScorer_Score_Deterministic(t *testing.T) {
	s := newTestScorer()
	a := s.Score("https://shop.example.com/cart")
	b := s.Score("https://shop.example.com/cart")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("scores differ for identical input:\n%+v\n%+v", a, b)
	}
}

func TestReasons_Fallback(t *testing.T) {
	got := Reasons(0, model.Breakdown{})
	if len(got) != 1 || got[0] != FallbackReason {
		t.Errorf("Reasons = %v, want fallback", got)
	}
}
