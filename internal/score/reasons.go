package score

import "github.com/ppiankov/safelink/internal/model"

// cautionOrder is the display order for negative or zero factors
var cautionOrder = []string{
	model.CheckBlacklist,
	model.CheckKeywords,
	model.CheckRedirects,
	model.CheckHTTPS,
	model.CheckSSL,
	model.CheckDomainAge,
}

// confirmationOrder is the display order for positive factors
var confirmationOrder = []string{
	model.CheckHTTPS,
	model.CheckSSL,
	model.CheckBlacklist,
	model.CheckCleanDomain,
	model.CheckKeywords,
	model.CheckDomainAge,
	model.CheckRedirects,
}

var cautions = map[string]string{
	model.CheckBlacklist: "Domain matches a known blacklist pattern",
	model.CheckKeywords:  "URL contains urgency or phishing keywords",
	model.CheckRedirects: "URL shows signs of redirects or link shortening",
	model.CheckHTTPS:     "Connection is not secured with HTTPS",
	model.CheckSSL:       "SSL certificate could not be validated",
	model.CheckDomainAge: "Domain appears to be recently registered",
}

var confirmations = map[string]string{
	model.CheckHTTPS:       "Uses a secure HTTPS connection",
	model.CheckSSL:         "SSL certificate looks valid",
	model.CheckBlacklist:   "Not found on known blacklists",
	model.CheckCleanDomain: "Domain name has a clean structure",
	model.CheckKeywords:    "No urgency or phishing keywords found",
	model.CheckDomainAge:   "Domain has been registered for a long time",
	model.CheckRedirects:   "No suspicious redirects detected",
}

// CautionText returns the caution message for a check
func CautionText(check string) string { return cautions[check] }

// ConfirmationText returns the confirmation message for a check
func ConfirmationText(check string) string { return confirmations[check] }

// Reasons explains a score. Risky and middling scores lead with cautions;
// safe scores, or scores with nothing to caution about, list confirmations.
func Reasons(safety int, breakdown model.Breakdown) []string {
	var reasons []string

	if safety <= BeCarefulMax {
		for _, check := range cautionOrder {
			if v, ok := breakdown[check]; ok && v <= 0 {
				reasons = append(reasons, cautions[check])
			}
		}
	}

	if len(reasons) == 0 {
		for _, check := range confirmationOrder {
			if breakdown[check] > 0 {
				reasons = append(reasons, confirmations[check])
			}
		}
	}

	if len(reasons) == 0 {
		reasons = []string{FallbackReason}
	}

	return reasons
}
