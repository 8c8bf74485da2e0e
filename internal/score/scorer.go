package score

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/safelink/internal/heuristics"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/urlnorm"
)

// Check weights
const (
	httpsPoints       = 2
	sslPoints         = 2
	blacklistPoints   = 2
	cleanDomainPoints = 1
	keywordPoints     = 1
	domainAgePoints   = 1
	redirectPoints    = 1

	// matureDomainDays is the age above which a domain earns its point
	matureDomainDays = 180

	// maxPositive is the sum of all positive weights
	maxPositive = 10.0
)

// FallbackReason is emitted when no check produced an explanation
const FallbackReason = "No specific flags, but score is 0"

// Scorer turns a raw URL into a scored ScanResult
type Scorer struct {
	signals heuristics.Signals
	now     func() time.Time
	newID   func() string
}

// NewScorer creates a scorer over the given signal strategy (placeholder when nil)
func NewScorer(signals heuristics.Signals) *Scorer {
	if signals == nil {
		signals = heuristics.Placeholder{}
	}
	return &Scorer{
		signals: signals,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Score evaluates raw and returns a fresh result with no external check.
// It never fails: malformed input is scored on the normalizer's best guess.
func (s *Scorer) Score(raw string) model.ScanResult {
	raw = strings.TrimSpace(raw)
	breakdown := s.Breakdown(raw)

	safety := Clamp(breakdown.Total())
	confidence := math.Min(1, math.Max(0, float64(breakdown.PositiveSum())/maxPositive))

	result := model.ScanResult{
		ID:         s.newID(),
		URL:        urlnorm.Canonical(raw),
		Safety:     safety,
		Confidence: confidence,
		Breakdown:  breakdown,
		Reasons:    Reasons(safety, breakdown),
		Timestamp:  s.now(),
		Likes:      0,
		Dislikes:   0,
		Reaction:   model.ReactionNone,
		APICheck:   nil,
	}
	ApplyTier(&result)

	return result
}

// Breakdown runs every weighted check against raw
func (s *Scorer) Breakdown(raw string) model.Breakdown {
	target := urlnorm.Parse(raw)
	host := target.Hostname()
	knownSafe := heuristics.IsKnownSafe(host)

	b := make(model.Breakdown, 7)

	// 1. HTTPS (explicit, or implied for a known-safe domain typed without a scheme)
	explicitHTTPS := target.HadScheme && target.Scheme == "https"
	if explicitHTTPS || (!target.HadScheme && knownSafe) {
		b[model.CheckHTTPS] = httpsPoints
	} else {
		b[model.CheckHTTPS] = 0
	}

	// 2. SSL validity
	if s.signals.SSLValid(raw) {
		b[model.CheckSSL] = sslPoints
	} else {
		b[model.CheckSSL] = 0
	}

	// 3. Blacklist (penalty when listed)
	if s.signals.Blacklisted(host) {
		b[model.CheckBlacklist] = -blacklistPoints
	} else {
		b[model.CheckBlacklist] = blacklistPoints
	}

	// 4. Domain shape
	if heuristics.IsCleanDomainShape(host) {
		b[model.CheckCleanDomain] = cleanDomainPoints
	} else {
		b[model.CheckCleanDomain] = 0
	}

	// 5. Urgency keywords (host and full URL)
	if heuristics.HasUrgencyLanguage(host) || heuristics.HasUrgencyLanguage(raw) {
		b[model.CheckKeywords] = -keywordPoints
	} else {
		b[model.CheckKeywords] = keywordPoints
	}

	// 6. Domain age
	if s.signals.DomainAgeDays(host) > matureDomainDays {
		b[model.CheckDomainAge] = domainAgePoints
	} else {
		b[model.CheckDomainAge] = 0
	}

	// 7. Redirects (penalty when present)
	if s.signals.ExcessiveRedirects(raw, host) {
		b[model.CheckRedirects] = -redirectPoints
	} else {
		b[model.CheckRedirects] = redirectPoints
	}

	return b
}
