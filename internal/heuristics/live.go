package heuristics

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/safelink/internal/urlnorm"
)

// whoisLookupFunc queries WHOIS for a registrable domain (injectable for tests)
var whoisLookupFunc = func(domain string) (string, error) {
	return whois.Whois(domain)
}

// tlsProbeFunc performs a verified TLS handshake against host:443 (injectable for tests)
var tlsProbeFunc = func(ctx context.Context, host string, timeout time.Duration) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    &tls.Config{ServerName: host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return err
	}
	return conn.Close()
}

// whoisDateLayouts are the creation-date formats seen across registries
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// Lookup lifetimes. A failed handshake is kept only briefly so a transient
// network error does not mark a host invalid for long.
const (
	ageTTL        = 24 * time.Hour
	tlsTTL        = time.Hour
	tlsFailureTTL = 5 * time.Minute
)

// LiveSignals answers domain age from WHOIS and SSL validity from a real
// handshake once Prefetch has run for a URL. Anything it could not look up
// is answered by the fallback.
type LiveSignals struct {
	fallback Signals
	timeout  time.Duration
	now      func() time.Time

	ages *cache.Cache // registrable domain -> age in days
	tls  *cache.Cache // hostname -> handshake verified

	tlsFailureTTL time.Duration
}

// NewLiveSignals creates live signals with the given per-lookup timeout
func NewLiveSignals(fallback Signals, timeout time.Duration) *LiveSignals {
	if fallback == nil {
		fallback = Placeholder{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LiveSignals{
		fallback:      fallback,
		timeout:       timeout,
		now:           time.Now,
		ages:          cache.New(ageTTL, time.Hour),
		tls:           cache.New(tlsTTL, 10*time.Minute),
		tlsFailureTTL: tlsFailureTTL,
	}
}

// Prefetch resolves WHOIS age and TLS validity for rawURL concurrently.
// Lookup failures are not errors: the fallback answers for them.
func (l *LiveSignals) Prefetch(ctx context.Context, rawURL string) error {
	target := urlnorm.Parse(rawURL)
	host := target.Hostname()
	if host == "" {
		return nil
	}
	registrable := urlnorm.Registrable(host)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if _, cached := l.ages.Get(registrable); !cached {
		g.Go(func() error {
			if days, ok := l.lookupAge(gctx, registrable); ok {
				l.ages.SetDefault(registrable, days)
			}
			return nil
		})
	}

	if _, cached := l.tls.Get(host); !cached && target.Scheme == "https" {
		probe := tlsProbeFunc
		g.Go(func() error {
			if err := probe(gctx, host, l.timeout); err != nil {
				l.tls.Set(host, false, l.tlsFailureTTL)
			} else {
				l.tls.SetDefault(host, true)
			}
			return nil
		})
	}

	return g.Wait()
}

// lookupAge runs WHOIS in a goroutine so the context deadline bounds it
func (l *LiveSignals) lookupAge(ctx context.Context, domain string) (int, bool) {
	type answer struct {
		raw string
		err error
	}
	lookup := whoisLookupFunc
	ch := make(chan answer, 1)
	go func() {
		raw, err := lookup(domain)
		ch <- answer{raw: raw, err: err}
	}()

	var a answer
	select {
	case <-ctx.Done():
		return 0, false
	case a = <-ch:
	}
	if a.err != nil {
		return 0, false
	}

	info, err := whoisparser.Parse(a.raw)
	if err != nil || info.Domain == nil {
		return 0, false
	}

	created := parseWhoisDate(info.Domain.CreatedDate)
	if created.IsZero() {
		return 0, false
	}
	return int(l.now().Sub(created).Hours() / 24), true
}

func parseWhoisDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DomainAgeDays implements Signals
func (l *LiveSignals) DomainAgeDays(host string) int {
	if days, ok := l.ages.Get(urlnorm.Registrable(host)); ok {
		return days.(int)
	}
	return l.fallback.DomainAgeDays(host)
}

// SSLValid implements Signals
func (l *LiveSignals) SSLValid(rawURL string) bool {
	target := urlnorm.Parse(rawURL)
	if target.HadScheme && target.Scheme == "http" {
		return false
	}
	if valid, ok := l.tls.Get(target.Hostname()); ok {
		return valid.(bool)
	}
	return l.fallback.SSLValid(rawURL)
}

// Blacklisted implements Signals
func (l *LiveSignals) Blacklisted(host string) bool {
	return l.fallback.Blacklisted(host)
}

// ExcessiveRedirects implements Signals
func (l *LiveSignals) ExcessiveRedirects(rawURL string, host string) bool {
	return l.fallback.ExcessiveRedirects(rawURL, host)
}
