// Package gate decides whether a host is plausible enough to score. It
// short-circuits for allow-listed domains and otherwise probes the host's
// /robots.txt over a few scheme and www. variants, one at a time.
package gate

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"

	"github.com/ppiankov/safelink/internal/heuristics"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/util"
	"github.com/ppiankov/safelink/internal/worker"
)

// maxRobotsBytes caps how much of a robots.txt body is read
const maxRobotsBytes = 64 << 10

// Verdict is the outcome of a gate check
type Verdict struct {
	Host      string `json:"host"`
	Reachable bool   `json:"reachable"`

	// AllowListed is set when the host passed without probing
	AllowListed bool `json:"allowListed,omitempty"`

	// ProbeURL is the probe that succeeded
	ProbeURL   string `json:"probeUrl,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`

	// CrawlAllowed reflects the host's robots.txt for our user agent
	// (true when no robots.txt was served)
	CrawlAllowed bool `json:"crawlAllowed"`

	Attempts int `json:"attempts"`
}

// Record converts the verdict for storage on a scan result
func (v Verdict) Record() *model.GateCheck {
	return &model.GateCheck{
		Host:         v.Host,
		AllowListed:  v.AllowListed,
		ProbeURL:     v.ProbeURL,
		StatusCode:   v.StatusCode,
		Attempts:     v.Attempts,
		CrawlAllowed: v.CrawlAllowed,
	}
}

// Gate checks host reachability with bounded sequential probes
type Gate struct {
	client    *http.Client
	limiter   *worker.Limiter
	verdicts  *cache.Cache
	allowList []string
	userAgent string
	timeout   time.Duration
	schemes   []string
}

// New creates a gate from configuration. limiter may be nil.
func New(cfg *model.Config, limiter *worker.Limiter) *Gate {
	timeout := cfg.Gate.ProbeTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ttl := cfg.Gate.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	allow := make([]string, 0, len(cfg.Gate.AllowList))
	for _, h := range cfg.Gate.AllowList {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allow = append(allow, h)
		}
	}

	return &Gate{
		client:    util.NewHTTPClient(cfg.HTTP, timeout, 3),
		limiter:   limiter,
		verdicts:  cache.New(ttl, 2*ttl),
		allowList: allow,
		userAgent: cfg.HTTP.UserAgent,
		timeout:   timeout,
		schemes:   []string{"https", "http"},
	}
}

// Reachable reports whether host passes the gate
func (g *Gate) Reachable(ctx context.Context, host string) bool {
	return g.Check(ctx, host).Reachable
}

// Check runs the gate for host. host may carry a port.
func (g *Gate) Check(ctx context.Context, host string) Verdict {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return Verdict{}
	}

	if g.isAllowListed(host) {
		return Verdict{Host: host, Reachable: true, AllowListed: true, CrawlAllowed: true}
	}

	if cached, ok := g.verdicts.Get(host); ok {
		return cached.(Verdict)
	}

	verdict := Verdict{Host: host}
	for _, probeURL := range g.candidates(host) {
		if ctx.Err() != nil {
			break
		}
		verdict.Attempts++

		status, robots, err := g.probe(ctx, probeURL)
		if err != nil {
			continue
		}

		verdict.Reachable = true
		verdict.ProbeURL = probeURL
		verdict.StatusCode = status
		verdict.CrawlAllowed = robots == nil || robots.TestAgent("/", g.userAgent)
		break
	}

	// A cancelled caller says nothing about the host
	if ctx.Err() == nil {
		g.verdicts.Set(host, verdict, cache.DefaultExpiration)
	}

	return verdict
}

func (g *Gate) isAllowListed(host string) bool {
	name := hostname(host)
	if heuristics.IsKnownSafe(name) {
		return true
	}
	for _, d := range g.allowList {
		if name == d || strings.HasSuffix(name, "."+d) {
			return true
		}
	}
	return false
}

// candidates lists probe URLs: each scheme against host, then www.host
func (g *Gate) candidates(host string) []string {
	hosts := []string{host}
	name := hostname(host)
	if !strings.HasPrefix(name, "www.") && net.ParseIP(name) == nil && name != "localhost" {
		hosts = append(hosts, "www."+host)
	}

	var out []string
	for _, h := range hosts {
		for _, scheme := range g.schemes {
			out = append(out, fmt.Sprintf("%s://%s/robots.txt", scheme, h))
		}
	}
	return out
}

// probe fetches robotsURL under its own timeout. Any HTTP response below
// 500 counts as reachable.
func (g *Gate) probe(ctx context.Context, robotsURL string) (int, *robotstxt.RobotsData, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, robotsURL); err != nil {
			return 0, nil, err
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("probe %s: %w", robotsURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, nil, fmt.Errorf("probe %s: HTTP %d", robotsURL, resp.StatusCode)
	}

	var robots *robotstxt.RobotsData
	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
		if err == nil {
			if data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body); err == nil {
				robots = data
			}
		}
	}

	return resp.StatusCode, robots, nil
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
