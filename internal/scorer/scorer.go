// Package scorer computes the confidence score between a business fingerprint
// and a candidate profile found during discovery.
package scorer

import (
	"strings"

	"github.com/sells-group/presence-scanner/internal/fingerprint"
	"github.com/sells-group/presence-scanner/internal/model"
)

// AcceptThreshold is the minimum score required to accept a candidate when
// acceptance is score-gated. Both perfect-match rules yield 100, so only the
// name+city rule (70) and the no-match rule (0) are meaningfully compared
// against it; the gap leaves room for partial-credit rules.
const AcceptThreshold = 40

// Score returns a confidence score in [0,100] for the candidate being the
// fingerprinted business.
//
// Four criteria are evaluated: phone, domain, address, and name. Two or more
// matching criteria, or a phone or domain match alone, score 100. An exact
// name match whose city also matches scores 70. Anything else scores 0.
func Score(fp fingerprint.Fingerprint, c model.CandidateProfile) int {
	phone := fingerprint.NormalizePhone(c.Phone)
	domain := fingerprint.RootDomain(c.Website)
	if domain == "" {
		domain = fingerprint.RootDomain(c.URL)
	}
	name := fingerprint.NormalizeText(c.Name)
	address := fingerprint.NormalizeText(c.Address)
	city := fingerprint.NormalizeText(c.City)

	phoneMatch := fp.Phone != "" && phone != "" && strings.Contains(phone, fp.Phone)
	domainMatch := fp.Domain != "" && domain != "" && domain == fp.Domain
	addressMatch := fp.Address != "" && address != "" && containsEither(address, fp.Address)
	nameMatch := fp.Name != "" && name != "" && containsEither(name, fp.Name)

	matches := 0
	for _, m := range []bool{phoneMatch, domainMatch, addressMatch, nameMatch} {
		if m {
			matches++
		}
	}
	if matches >= 2 {
		return 100
	}

	// A phone or domain match is a strong enough signal on its own.
	if domainMatch || phoneMatch {
		return 100
	}

	if fp.Name != "" && name == fp.Name && fp.City != "" && city != "" && strings.Contains(city, fp.City) {
		return 70
	}

	return 0
}

// containsEither reports whether either string contains the other.
func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
