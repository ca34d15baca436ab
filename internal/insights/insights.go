// Package insights derives presence-gap flags from a completed scan.
//
// The generator accepts two input shapes: the reconciled output produced by
// current scans, and the flat list of platform results older callers still
// submit. Both map onto the same flag-derivation logic via Source.
package insights

import (
	"strings"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/platform"
)

const (
	lowReviewsBelow = 5
	badRatingBelow  = 4.0
)

// Source is the input to flag generation: exactly one of the two variants is
// set. Construct with FromReconciled or FromPlatformResults.
type Source struct {
	reconciled *model.ReconciledOutput
	legacy     []model.SocialEntry
}

// FromReconciled wraps a reconciled scan output.
func FromReconciled(out *model.ReconciledOutput) Source {
	return Source{reconciled: out}
}

// FromPlatformResults wraps a flat list of platform results (legacy shape).
func FromPlatformResults(results []model.SocialEntry) Source {
	return Source{legacy: results}
}

// Generate derives the flag set for a scan. Pure and total: any source
// shape produces the full set of flags.
func Generate(src Source, business model.BusinessInput, reg *platform.Registry) model.InsightFlags {
	flags := model.InsightFlags{
		"missing_google": true,
		"no_website":     business.Website == "",
		"low_reviews":    false,
		"bad_rating":     false,
		"missing_phone":  true,
		"missing_email":  true,
	}
	for _, name := range reg.Names() {
		flags[missingKey(name)] = true
	}

	switch {
	case src.reconciled != nil:
		applySocial(flags, src.reconciled.SocialLinks)

		phones := src.reconciled.ContactDetails.Phones
		if phones.Primary != "" || len(phones.Secondary) > 0 {
			flags["missing_phone"] = false
		}
		emails := src.reconciled.ContactDetails.Emails
		if emails.Primary != "" || len(emails.Secondary) > 0 {
			flags["missing_email"] = false
		}
	case src.legacy != nil:
		// Legacy callers never supplied contact details, so the phone and
		// email flags are left untouched.
		applySocial(flags, src.legacy)
	}

	return flags
}

func applySocial(flags model.InsightFlags, entries []model.SocialEntry) {
	for _, e := range entries {
		if !e.Found {
			continue
		}
		if e.Platform == platform.GoogleMaps {
			flags["missing_google"] = false
		} else {
			key := missingKey(e.Platform)
			if _, ok := flags[key]; ok {
				flags[key] = false
			}
		}
		if e.ReviewCount != nil && *e.ReviewCount < lowReviewsBelow {
			flags["low_reviews"] = true
		}
		if e.Rating != nil && *e.Rating < badRatingBelow {
			flags["bad_rating"] = true
		}
	}
}

func missingKey(name string) string {
	return "missing_" + strings.ToLower(name)
}
