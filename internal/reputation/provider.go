package reputation

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/safelink/internal/model"
)

// Verdict values returned by reputation services
const (
	VerdictMalicious  = "malicious"
	VerdictSuspicious = "suspicious"
	VerdictClean      = "clean"
)

// failedStatuses are sub-check statuses that count as a failure
var failedStatuses = map[string]bool{
	"error":       true,
	"failed":      true,
	"unavailable": true,
}

// Provider defines the interface for remote reputation services
type Provider interface {
	// Name returns the provider name
	Name() string

	// Check asks the service for a verdict on rawURL. Any transport error or
	// non-success status is returned as an error.
	Check(ctx context.Context, rawURL string) (*Verdict, error)
}

// Verdict is the response of a reputation service. It is untrusted input.
type Verdict struct {
	FinalVerdict string                         `json:"finalVerdict"`
	Summary      string                         `json:"summary"`
	Checks       map[string]model.ExternalCheck `json:"checks"`
}

// Normalized returns the verdict lowercased and trimmed
func (v *Verdict) Normalized() string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.FinalVerdict))
}

// AllChecksFailed reports whether the verdict has sub-checks and every one failed
func (v *Verdict) AllChecksFailed() bool {
	if v == nil || len(v.Checks) == 0 {
		return false
	}
	for _, c := range v.Checks {
		if !failedStatuses[strings.ToLower(strings.TrimSpace(c.Status))] {
			return false
		}
	}
	return true
}

// Config holds reputation provider configuration
type Config struct {
	// Provider name: "http", "openai", "anthropic", "ollama", "" (disabled)
	Provider string

	BaseURL string
	APIKey  string
	Model   string

	// Timeout for a single request
	Timeout int // seconds

	HTTP model.HTTPConfig
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
