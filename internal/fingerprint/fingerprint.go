// Package fingerprint canonicalizes a business description into a comparable
// identity key. Normalization is total: absent or malformed inputs normalize
// to empty values, never to errors.
package fingerprint

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/presence-scanner/internal/model"
)

// Fingerprint is the normalized identity key derived once per scan.
// All fields are lowercase and trimmed; empty string means absent.
type Fingerprint struct {
	Name    string
	Phone   string
	Domain  string
	Address string
	City    string
	Country string
}

// foldMarks decomposes characters and drops combining marks, so that
// "Café" and "Cafe" normalize identically.
var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// New derives a fingerprint from a business input.
func New(b model.BusinessInput) Fingerprint {
	return Fingerprint{
		Name:    NormalizeText(b.Name),
		Phone:   NormalizePhone(b.Phone),
		Domain:  RootDomain(b.Website),
		Address: NormalizeText(b.Address),
		City:    NormalizeText(b.City),
		Country: NormalizeText(b.Country),
	}
}

// NormalizeText lowercases, trims, strips everything that is not a letter,
// digit, or whitespace, and collapses whitespace runs to a single space.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	if folded, _, err := transform.String(foldMarks, text); err == nil {
		text = folded
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips every non-digit character. Empty input yields the
// empty string.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RootDomain extracts the root domain from a bare host or full URL:
// scheme and a leading "www." are stripped and the result is lowercased.
// Returns "" for empty or unparseable input.
func RootDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
