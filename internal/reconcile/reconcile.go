// Package reconcile merges harvested facts with the user-supplied business
// record into one canonical, verified output.
package reconcile

import (
	"strings"

	"github.com/sells-group/presence-scanner/internal/fingerprint"
	"github.com/sells-group/presence-scanner/internal/model"
)

// Reconcile combines the original business input with everything harvested
// during a scan. It is a pure function: the same inputs always produce the
// same output, and neither argument is mutated.
//
// For each contact field the user-supplied value stays primary when present;
// the field is marked verified when any harvested entry corroborates it.
// With no user value, the first harvested entry becomes primary. Remaining
// entries populate the secondary list, deduplicated and excluding the primary.
func Reconcile(business model.BusinessInput, harvested model.HarvestedData) *model.ReconciledOutput {
	out := &model.ReconciledOutput{
		BusinessInfo: model.BusinessInfo{
			BusinessInput:  business,
			VerifiedFields: []string{},
		},
		ContactDetails: model.ContactDetails{
			Emails:    model.ContactField{Primary: business.Email, Secondary: []string{}},
			Phones:    model.ContactField{Primary: business.Phone, Secondary: []string{}},
			Addresses: model.ContactField{Primary: business.Address, Secondary: []string{}},
		},
		SocialLinks: harvested.Social,
		// Kept at zero: a real aggregate was never computed upstream and
		// downstream consumers key off verified_fields instead.
		ConfidenceScore: 0,
	}
	if out.SocialLinks == nil {
		out.SocialLinks = []model.SocialEntry{}
	}

	reconcileEmails(business, harvested.Emails, out)
	reconcilePhones(business, harvested.Phones, out)
	reconcileAddresses(business, harvested.Addresses, out)

	// A user-supplied website is self-verifying: the crawl targeted it
	// directly, so its mere presence counts.
	if business.Website != "" {
		out.BusinessInfo.VerifiedFields = append(out.BusinessInfo.VerifiedFields, "website")
	}

	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func reconcileEmails(business model.BusinessInput, scraped []string, out *model.ReconciledOutput) {
	if len(scraped) == 0 {
		return
	}

	emails := make([]string, 0, len(scraped))
	for _, e := range scraped {
		emails = append(emails, normalizeEmail(e))
	}

	userEmail := normalizeEmail(business.Email)
	if userEmail != "" {
		for _, e := range emails {
			if e == userEmail {
				out.ContactDetails.Emails.Verified = true
				out.BusinessInfo.VerifiedFields = append(out.BusinessInfo.VerifiedFields, "email")
				break
			}
		}
	} else {
		out.ContactDetails.Emails.Primary = emails[0]
		emails = emails[1:]
	}

	primary := normalizeEmail(out.ContactDetails.Emails.Primary)
	seen := map[string]bool{}
	for _, e := range emails {
		if e != primary && !seen[e] {
			seen[e] = true
			out.ContactDetails.Emails.Secondary = append(out.ContactDetails.Emails.Secondary, e)
		}
	}
}

func reconcilePhones(business model.BusinessInput, scraped []string, out *model.ReconciledOutput) {
	if len(scraped) == 0 {
		return
	}

	userPhone := fingerprint.NormalizePhone(business.Phone)
	if userPhone != "" {
		// Containment in either direction tolerates country-code prefixes.
		for _, p := range scraped {
			norm := fingerprint.NormalizePhone(p)
			if norm == "" {
				continue
			}
			if strings.Contains(norm, userPhone) || strings.Contains(userPhone, norm) {
				out.ContactDetails.Phones.Verified = true
				out.BusinessInfo.VerifiedFields = append(out.BusinessInfo.VerifiedFields, "phone")
				break
			}
		}
	} else {
		out.ContactDetails.Phones.Primary = scraped[0]
		scraped = scraped[1:]
	}

	primaryNorm := fingerprint.NormalizePhone(out.ContactDetails.Phones.Primary)
	seen := map[string]bool{}
	for _, p := range scraped {
		norm := fingerprint.NormalizePhone(p)
		if norm != primaryNorm && !seen[norm] {
			seen[norm] = true
			out.ContactDetails.Phones.Secondary = append(out.ContactDetails.Phones.Secondary, p)
		}
	}
}

func reconcileAddresses(business model.BusinessInput, scraped []string, out *model.ReconciledOutput) {
	if len(scraped) == 0 {
		return
	}

	userAddr := strings.ToLower(business.Address)
	if userAddr != "" {
		for _, a := range scraped {
			lower := strings.ToLower(a)
			if strings.Contains(lower, userAddr) || strings.Contains(userAddr, lower) {
				out.ContactDetails.Addresses.Verified = true
				out.BusinessInfo.VerifiedFields = append(out.BusinessInfo.VerifiedFields, "address")
				break
			}
		}
	} else {
		out.ContactDetails.Addresses.Primary = scraped[0]
		scraped = scraped[1:]
	}

	primary := strings.ToLower(out.ContactDetails.Addresses.Primary)
	seen := map[string]bool{}
	for _, a := range scraped {
		key := strings.ToLower(a)
		if key != primary && !seen[key] {
			seen[key] = true
			out.ContactDetails.Addresses.Secondary = append(out.ContactDetails.Addresses.Secondary, a)
		}
	}
}
