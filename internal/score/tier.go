package score

import "github.com/ppiankov/safelink/internal/model"

// Tier thresholds (inclusive upper bounds)
const (
	HighRiskMax  = 3
	BeCarefulMax = 6

	MinSafety = 0
	MaxSafety = 10
)

// Tier colors
const (
	ColorHighRisk  = "#e53935"
	ColorBeCareful = "#fb8c00"
	ColorSafe      = "#43a047"
)

// TierOf maps a safety score to its tier and display color.
// It is the only place the thresholds are applied.
func TierOf(safety int) (model.Tier, string) {
	switch {
	case safety <= HighRiskMax:
		return model.TierHighRisk, ColorHighRisk
	case safety <= BeCarefulMax:
		return model.TierBeCareful, ColorBeCareful
	default:
		return model.TierSafe, ColorSafe
	}
}

// ApplyTier recomputes Tier and Color from Safety
func ApplyTier(r *model.ScanResult) {
	r.Tier, r.Color = TierOf(r.Safety)
}

// Clamp bounds a raw score to [MinSafety, MaxSafety]
func Clamp(score int) int {
	if score < MinSafety {
		return MinSafety
	}
	if score > MaxSafety {
		return MaxSafety
	}
	return score
}
