// Package reconcile folds an external reputation verdict into a scored
// result. The external verdict can only lower a score, and a result is
// reconciled at most once.
package reconcile

import (
	"context"
	"errors"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/reputation"
	"github.com/ppiankov/safelink/internal/score"
)

// FailureNote is recorded when the external check could not be used
const FailureNote = "External API scan failed"

// Verdict ceilings
const (
	maliciousCeiling  = 1
	suspiciousCeiling = 4
)

// ErrSuppressed is returned when a manual check is not allowed for a result
var ErrSuppressed = errors.New("external check not available for this result")

// Done reports whether r has already been reconciled
func Done(r model.ScanResult) bool {
	return r.APICheck != nil && r.APICheck.Done
}

// ShouldAutoCheck reports whether a fresh result triggers an automatic check
// (the ambiguous middle tier).
func ShouldAutoCheck(r model.ScanResult) bool {
	return !Done(r) && r.Safety > score.HighRiskMax && r.Safety <= score.BeCarefulMax
}

// CanManualCheck returns nil when a user may request a check for r
func CanManualCheck(r model.ScanResult) error {
	if Done(r) || r.Safety <= score.HighRiskMax {
		return ErrSuppressed
	}
	return nil
}

// Apply returns r updated with the outcome of an external check. callErr is
// the error from the provider call, if any. A result that is already done is
// returned unchanged.
func Apply(r model.ScanResult, verdict *reputation.Verdict, callErr error) model.ScanResult {
	if Done(r) {
		return r
	}

	out := r.Clone()

	if callErr != nil || verdict == nil || verdict.AllChecksFailed() {
		out.APICheck = &model.APICheck{
			Done:   true,
			Failed: true,
			Note:   FailureNote,
			Checks: map[string]model.ExternalCheck{},
		}
		return out
	}

	checks := make(map[string]model.ExternalCheck, len(verdict.Checks))
	for name, c := range verdict.Checks {
		checks[name] = c
	}
	out.APICheck = &model.APICheck{
		Done:   true,
		Failed: false,
		Note:   verdict.Summary,
		Checks: checks,
	}

	switch verdict.Normalized() {
	case reputation.VerdictMalicious:
		out.Safety = min(out.Safety, maliciousCeiling)
	case reputation.VerdictSuspicious:
		out.Safety = min(out.Safety, suspiciousCeiling)
	}
	score.ApplyTier(&out)

	return out
}

// Run calls provider for r and applies the outcome. A nil provider counts
// as a failed call. Run never returns an error: failures are recorded on
// the result.
func Run(ctx context.Context, provider reputation.Provider, r model.ScanResult) model.ScanResult {
	if Done(r) {
		return r
	}
	if provider == nil {
		return Apply(r, nil, errors.New("no reputation provider configured"))
	}

	verdict, err := provider.Check(ctx, r.URL)
	return Apply(r, verdict, err)
}
