package heuristics

// Signals provides the network-flavoured checks the scorer consumes.
// Implementations must be safe to call from the scorer without blocking.
type Signals interface {
	// DomainAgeDays returns the estimated age of host in days
	DomainAgeDays(host string) int

	// SSLValid reports whether rawURL is expected to present a valid certificate
	SSLValid(rawURL string) bool

	// Blacklisted reports whether host appears on a threat list
	Blacklisted(host string) bool

	// ExcessiveRedirects reports whether rawURL is expected to bounce through redirects
	ExcessiveRedirects(rawURL string, host string) bool
}

// Placeholder answers every signal from the URL text alone
type Placeholder struct{}

// DomainAgeDays implements Signals
func (Placeholder) DomainAgeDays(host string) int { return EstimateDomainAge(host) }

// SSLValid implements Signals
func (Placeholder) SSLValid(rawURL string) bool { return EstimateSSLValidity(rawURL) }

// Blacklisted implements Signals
func (Placeholder) Blacklisted(host string) bool { return EstimateBlacklisted(host) }

// ExcessiveRedirects implements Signals
func (Placeholder) ExcessiveRedirects(rawURL string, host string) bool {
	return EstimateExcessiveRedirects(rawURL, host)
}
