// Package pipeline runs a URL through validation, the existence gate,
// scoring, the automatic external check and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/safelink/internal/community"
	"github.com/ppiankov/safelink/internal/gate"
	"github.com/ppiankov/safelink/internal/heuristics"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/reconcile"
	"github.com/ppiankov/safelink/internal/reputation"
	"github.com/ppiankov/safelink/internal/score"
	"github.com/ppiankov/safelink/internal/store"
	"github.com/ppiankov/safelink/internal/urlnorm"
	"github.com/ppiankov/safelink/internal/worker"
)

var (
	// ErrInvalidInput is returned for input that is not a usable address
	ErrInvalidInput = errors.New("invalid URL")

	// ErrUnreachable is returned when the host fails the existence gate
	ErrUnreachable = errors.New("domain does not appear to exist or is unreachable")

	// ErrNoProvider is returned for a manual check with no reputation service configured
	ErrNoProvider = errors.New("no reputation provider configured")
)

// Gate checks that a host exists before it is scored
type Gate interface {
	Check(ctx context.Context, host string) gate.Verdict
}

// Prefetcher resolves network-backed signals before scoring
type Prefetcher interface {
	Prefetch(ctx context.Context, rawURL string) error
}

// Deps are the components a Pipeline runs. Nil Gate, Signals, Reputation
// or Community disable that step.
type Deps struct {
	Scorer     *score.Scorer
	Gate       Gate
	Signals    Prefetcher
	Reputation reputation.Provider
	Community  *community.Service
	Warn       io.Writer
}

// Options adjust a single scan
type Options struct {
	// SkipGate scores without the existence check
	SkipGate bool

	// ForceCheck runs the external check for any result it is allowed for,
	// not only the ambiguous middle tier
	ForceCheck bool

	// PublicOnly rejects localhost and non-public IP literals before any
	// network step runs
	PublicOnly bool
}

// Pipeline orchestrates the complete scan process
type Pipeline struct {
	scorer     *score.Scorer
	gate       Gate
	signals    Prefetcher
	reputation reputation.Provider
	community  *community.Service
	warn       io.Writer
}

// New creates a pipeline from explicit components
func New(d Deps) *Pipeline {
	if d.Scorer == nil {
		d.Scorer = score.NewScorer(nil)
	}
	if d.Warn == nil {
		d.Warn = os.Stderr
	}
	return &Pipeline{
		scorer:     d.Scorer,
		gate:       d.Gate,
		signals:    d.Signals,
		reputation: d.Reputation,
		community:  d.Community,
		warn:       d.Warn,
	}
}

// FromConfig wires a pipeline from configuration over st
func FromConfig(cfg *model.Config, st store.Store, warn io.Writer) *Pipeline {
	if warn == nil {
		warn = os.Stderr
	}
	d := Deps{Warn: warn}

	limiter := worker.LimiterFromConfig(cfg.RateLimiting)
	if cfg.Gate.Enabled {
		d.Gate = gate.New(cfg, limiter)
	}

	var signals heuristics.Signals = heuristics.Placeholder{}
	if strings.EqualFold(cfg.Heuristics.Mode, "live") {
		live := heuristics.NewLiveSignals(heuristics.Placeholder{}, cfg.Heuristics.WhoisTimeout)
		signals = live
		d.Signals = live
	}
	d.Scorer = score.NewScorer(signals)

	provider, err := reputation.NewProvider(reputation.ConfigFromModel(cfg))
	if err != nil {
		// Don't fail the pipeline, external checks are best-effort
		_, _ = fmt.Fprintf(warn, "Warning: Failed to initialize reputation provider: %v\n", err)
	} else {
		d.Reputation = provider
	}

	if st != nil {
		d.Community = community.NewService(st)
		d.Community.SetWarnings(warn)
	}

	return New(d)
}

// Community returns the community service (nil when persistence is off)
func (p *Pipeline) Community() *community.Service {
	return p.community
}

// Scan validates, gates, scores and persists raw. Only invalid input and an
// unreachable host are errors; external-check and storage failures degrade
// to a warning and still return the result.
func (p *Pipeline) Scan(ctx context.Context, raw string, opts Options) (model.ScanResult, error) {
	raw = strings.TrimSpace(raw)

	// 1. Validate
	validate := urlnorm.Validate
	if opts.PublicOnly {
		validate = urlnorm.ValidatePublic
	}
	if err := validate(raw); err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	host := urlnorm.Parse(raw).Host

	// 2. Existence gate
	var gateCheck *model.GateCheck
	if p.gate != nil && !opts.SkipGate {
		verdict := p.gate.Check(ctx, host)
		if !verdict.Reachable {
			return model.ScanResult{}, fmt.Errorf("%w: %s", ErrUnreachable, urlnorm.Parse(raw).Hostname())
		}
		gateCheck = verdict.Record()
	}

	// 3. Network-backed signals
	if p.signals != nil {
		if err := p.signals.Prefetch(ctx, raw); err != nil {
			_, _ = fmt.Fprintf(p.warn, "Warning: signal lookup failed: %v\n", err)
		}
	}

	// 4. Score
	result := p.scorer.Score(raw)
	result.Gate = gateCheck

	// 5. External check (AFTER scoring, can only lower the score)
	if p.reputation != nil {
		if reconcile.ShouldAutoCheck(result) || (opts.ForceCheck && reconcile.CanManualCheck(result) == nil) {
			result = p.check(ctx, result)
		}
	}

	// 6. Persist
	p.save(ctx, result)

	return result, nil
}

// Recheck runs the external check on demand for a stored result
func (p *Pipeline) Recheck(ctx context.Context, id string) (model.ScanResult, error) {
	if p.community == nil {
		return model.ScanResult{}, fmt.Errorf("recheck %s: %w", id, store.ErrNotFound)
	}

	result, err := p.community.Result(ctx, id, "")
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("load result %s: %w", id, err)
	}

	if err := reconcile.CanManualCheck(result); err != nil {
		return result, err
	}
	if p.reputation == nil {
		return result, ErrNoProvider
	}

	result = p.check(ctx, result)
	p.save(ctx, result)

	return result, nil
}

func (p *Pipeline) check(ctx context.Context, result model.ScanResult) model.ScanResult {
	checked := reconcile.Run(ctx, p.reputation, result)
	if checked.APICheck != nil && checked.APICheck.Failed {
		_, _ = fmt.Fprintf(p.warn, "Warning: external check failed for %s\n", result.URL)
	}
	return checked
}

func (p *Pipeline) save(ctx context.Context, result model.ScanResult) {
	if p.community == nil {
		return
	}
	if err := p.community.SaveResult(ctx, result); err != nil {
		// Storage failures never discard the in-memory result
		_, _ = fmt.Fprintf(p.warn, "Warning: failed to save result %s: %v\n", result.ID, err)
	}
}
