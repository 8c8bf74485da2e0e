package model

import "time"

// ScanResult is a scored URL together with its community state
type ScanResult struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`                // Canonical URL (https:// when no scheme was given)
	Safety     int        `json:"safety"`             // 0-10, never raised after reconciliation
	Tier       Tier       `json:"tier"`               // Derived from Safety
	Color      string     `json:"color"`              // Derived from Tier
	Confidence float64    `json:"confidence"`         // Fraction of the maximum positive score earned
	Reasons    []string   `json:"reasons"`            // Human-readable explanation, display order
	Breakdown  Breakdown  `json:"breakdown"`          // Per-check signed contribution
	Timestamp  time.Time  `json:"timestamp"`          // Creation time
	Likes      int        `json:"likes"`              // Community-owned
	Dislikes   int        `json:"dislikes"`           // Community-owned
	Reaction   Reaction   `json:"-"`                  // Per-viewer, never persisted
	Comments   []Comment  `json:"comments,omitempty"` // Append-only
	APICheck   *APICheck  `json:"apiCheck,omitempty"` // nil until reconciliation runs
	Gate       *GateCheck `json:"gate,omitempty"`     // nil when the existence gate did not run
}

// DisplayTime formats the creation time for list views
func (r ScanResult) DisplayTime() string {
	return r.Timestamp.Local().Format("2006-01-02 15:04:05")
}

// Tier is the risk classification derived from a safety score
type Tier string

const (
	TierHighRisk  Tier = "High Risk"
	TierBeCareful Tier = "Be Careful"
	TierSafe      Tier = "Safe"
)

// Severity orders tiers riskiest first (High Risk = 0)
func (t Tier) Severity() int {
	switch t {
	case TierHighRisk:
		return 0
	case TierBeCareful:
		return 1
	case TierSafe:
		return 2
	default:
		return 3
	}
}

// Check names used as Breakdown keys
const (
	CheckHTTPS       = "https"
	CheckSSL         = "ssl"
	CheckBlacklist   = "blacklist"
	CheckCleanDomain = "clean_domain"
	CheckKeywords    = "keywords"
	CheckDomainAge   = "domain_age"
	CheckRedirects   = "redirects"
)

// Breakdown maps a check name to its signed contribution
type Breakdown map[string]int

// PositiveSum returns the sum of strictly positive contributions
func (b Breakdown) PositiveSum() int {
	sum := 0
	for _, v := range b {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

// Total returns the signed sum of all contributions
func (b Breakdown) Total() int {
	sum := 0
	for _, v := range b {
		sum += v
	}
	return sum
}

// Reaction is a viewer's like/dislike state for a link
type Reaction string

const (
	ReactionNone    Reaction = ""
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Valid reports whether r is one of the known reactions
func (r Reaction) Valid() bool {
	return r == ReactionNone || r == ReactionLike || r == ReactionDislike
}

// Comment is a community note attached to a link
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`           // Pseudonymous, device-local
	Images    []string  `json:"images,omitempty"` // Inline data URIs, at most 3
}

// APICheck records the outcome of the external verdict reconciliation
type APICheck struct {
	Done   bool                     `json:"done"`
	Failed bool                     `json:"failed"`
	Note   string                   `json:"note"`
	Checks map[string]ExternalCheck `json:"checks"`
}

// ExternalCheck is one sub-check reported by the reputation service
type ExternalCheck struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Checked *bool  `json:"checked,omitempty"`
}

// GateCheck records how the existence gate judged the host
type GateCheck struct {
	Host        string `json:"host"`
	AllowListed bool   `json:"allowListed,omitempty"` // Passed without probing
	ProbeURL    string `json:"probeUrl,omitempty"`    // The probe that answered
	StatusCode  int    `json:"statusCode,omitempty"`
	Attempts    int    `json:"attempts"`

	// CrawlAllowed reflects the host's robots.txt for our user agent
	// (true when none was served)
	CrawlAllowed bool `json:"crawlAllowed"`
}

// Clone returns a deep copy of r
func (r ScanResult) Clone() ScanResult {
	out := r
	if r.Reasons != nil {
		out.Reasons = append([]string(nil), r.Reasons...)
	}
	if r.Breakdown != nil {
		out.Breakdown = make(Breakdown, len(r.Breakdown))
		for k, v := range r.Breakdown {
			out.Breakdown[k] = v
		}
	}
	if r.Comments != nil {
		out.Comments = make([]Comment, len(r.Comments))
		for i, c := range r.Comments {
			c.Images = append([]string(nil), c.Images...)
			out.Comments[i] = c
		}
	}
	if r.APICheck != nil {
		check := *r.APICheck
		if r.APICheck.Checks != nil {
			check.Checks = make(map[string]ExternalCheck, len(r.APICheck.Checks))
			for k, v := range r.APICheck.Checks {
				check.Checks[k] = v
			}
		}
		out.APICheck = &check
	}
	if r.Gate != nil {
		g := *r.Gate
		out.Gate = &g
	}
	return out
}
