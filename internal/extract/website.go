// Package extract implements the scan collaborators: the website extractor
// that harvests contact data and social links from business sites, plus the
// adapters that turn the map-listing and web-search clients into the
// interfaces the orchestrator consumes.
package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/platform"
	"github.com/sells-group/presence-scanner/internal/scan"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; presence-scanner/1.0)"

	// maxPageBytes limits how much of a page is read for extraction.
	maxPageBytes = 1024 * 1024

	// maxSubpages caps how many contact-ish subpages are crawled per site.
	maxSubpages = 3
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9._-]+`)
	// International formats: +971 55 891 0258, +1 (555) 123-4567, 0044 20 ...
	phoneRe  = regexp.MustCompile(`(?:\+|00)[0-9]{1,3}[\s.-]?\(?[0-9]{2,4}\)?[\s.-]?[0-9]{3,4}[\s.-]?[0-9]{3,9}`)
	hrefRe   = regexp.MustCompile(`(?i)href\s*=\s*["']([^"'#]+)["']`)
	jsonLDRe = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)
)

// subpageTerms mark links worth a second-level crawl.
var subpageTerms = []string{"contact", "about", "connect", "location", "find-us"}

// addressKeywords flag address-like text lines.
var addressKeywords = []string{
	"street", "road", "avenue", "boulevard", "lane", "drive", "way",
	"suite", "floor", "box",
}

// WebsiteExtractor opens crawl sessions against plain HTTP. It performs no
// rendering; extraction works on the fetched markup.
type WebsiteExtractor struct {
	client    *http.Client
	userAgent string
}

// Option configures the extractor.
type Option func(*WebsiteExtractor)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *WebsiteExtractor) {
		e.client = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *WebsiteExtractor) {
		e.userAgent = ua
	}
}

// NewWebsiteExtractor creates a website extractor.
func NewWebsiteExtractor(opts ...Option) *WebsiteExtractor {
	e := &WebsiteExtractor{
		client: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open starts a session. The session tracks visited pages so the
// late-binding crawl never refetches a page within one scan.
func (e *WebsiteExtractor) Open(_ context.Context) (scan.Session, error) {
	return &session{
		client:    e.client,
		userAgent: e.userAgent,
		visited:   map[string]bool{},
	}, nil
}

type session struct {
	client    *http.Client
	userAgent string
	visited   map[string]bool
}

// Crawl fetches the homepage plus up to maxSubpages contact-ish subpages and
// harvests social links, emails, phones, and addresses from each. Faults are
// absorbed: an unreachable site yields an empty result.
func (s *session) Crawl(ctx context.Context, rawURL string) (*model.CrawlResult, error) {
	result := &model.CrawlResult{
		Social:    []model.SocialLink{},
		Emails:    []string{},
		Phones:    []string{},
		Addresses: []string{},
	}
	if rawURL == "" {
		return result, nil
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	log := zap.L().With(zap.String("site", rawURL))

	found := map[string]bool{}
	hrefs := s.harvestPage(ctx, log, rawURL, result, found)
	s.visited[strings.TrimSuffix(rawURL, "/")] = true

	for _, sub := range interestingSubpages(rawURL, hrefs) {
		if ctx.Err() != nil {
			break
		}
		key := strings.TrimSuffix(sub, "/")
		if s.visited[key] {
			continue
		}
		s.visited[key] = true
		s.harvestPage(ctx, log, sub, result, found)
	}

	return result, nil
}

func (s *session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// harvestPage fetches one page and appends everything it finds to result.
// Returns the page's outbound hrefs for subpage selection.
func (s *session) harvestPage(ctx context.Context, log *zap.Logger, pageURL string, result *model.CrawlResult, found map[string]bool) []string {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		log.Debug("extract: fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}

	hrefs := extractHrefs(body)
	for _, href := range hrefs {
		switch {
		case strings.HasPrefix(href, "mailto:"):
			if email := parseMailto(href); email != "" {
				result.Emails = append(result.Emails, email)
			}
		case strings.HasPrefix(href, "tel:"):
			if phone := parseTel(href); phone != "" {
				result.Phones = append(result.Phones, phone)
			}
		case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
			addSocialLink(result, found, href)
		}
	}

	text := stripTags(body)
	for _, m := range emailRe.FindAllString(text, -1) {
		result.Emails = append(result.Emails, strings.TrimSpace(m))
	}
	for _, m := range phoneRe.FindAllString(text, -1) {
		result.Phones = append(result.Phones, strings.TrimSpace(m))
	}
	result.Addresses = append(result.Addresses, addressLines(text)...)

	s.harvestJSONLD(body, result, found)

	return hrefs
}

func (s *session) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("extract: status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// addSocialLink records a social profile link if its host maps to a known
// platform. Share and intent URLs are noise, not profiles.
func addSocialLink(result *model.CrawlResult, found map[string]bool, href string) {
	parsed, err := url.Parse(href)
	if err != nil {
		return
	}
	p := platform.FromHost(parsed.Hostname())
	if p == "" || found[p] {
		return
	}
	if strings.Contains(href, "share") || strings.Contains(href, "intent") {
		return
	}
	result.Social = append(result.Social, model.SocialLink{Platform: p, URL: href})
	found[p] = true
}

// jsonLDEntity is the subset of schema.org markup the extractor reads.
type jsonLDEntity struct {
	Type      string `json:"@type"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	Address   any    `json:"address"`
	SameAs    any    `json:"sameAs"`
}

func (s *session) harvestJSONLD(body string, result *model.CrawlResult, found map[string]bool) {
	for _, m := range jsonLDRe.FindAllStringSubmatch(body, -1) {
		raw := strings.TrimSpace(m[1])

		var entity jsonLDEntity
		if err := json.Unmarshal([]byte(raw), &entity); err == nil {
			applyEntity(entity, result, found)
			continue
		}
		var entities []jsonLDEntity
		if err := json.Unmarshal([]byte(raw), &entities); err == nil {
			for _, e := range entities {
				applyEntity(e, result, found)
			}
		}
	}
}

func applyEntity(e jsonLDEntity, result *model.CrawlResult, found map[string]bool) {
	switch e.Type {
	case "LocalBusiness", "Organization", "Restaurant":
	default:
		return
	}

	if e.Telephone != "" {
		result.Phones = append(result.Phones, e.Telephone)
	}
	if e.Email != "" {
		result.Emails = append(result.Emails, e.Email)
	}

	switch addr := e.Address.(type) {
	case string:
		if addr != "" {
			result.Addresses = append(result.Addresses, addr)
		}
	case map[string]any:
		var parts []string
		for _, k := range []string{"streetAddress", "addressLocality", "addressRegion"} {
			if v, ok := addr[k].(string); ok && v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			result.Addresses = append(result.Addresses, strings.Join(parts, ", "))
		}
	}

	var links []string
	switch sameAs := e.SameAs.(type) {
	case string:
		links = []string{sameAs}
	case []any:
		for _, v := range sameAs {
			if s, ok := v.(string); ok {
				links = append(links, s)
			}
		}
	}
	for _, link := range links {
		addSocialLink(result, found, link)
	}
}

// interestingSubpages picks same-site links that look like contact or about
// pages, deduplicated, capped at maxSubpages.
func interestingSubpages(baseURL string, hrefs []string) []string {
	base := strings.TrimSuffix(baseURL, "/")

	var picks []string
	seen := map[string]bool{}
	for _, href := range hrefs {
		if !strings.HasPrefix(href, base) {
			continue
		}
		lower := strings.ToLower(href)
		match := false
		for _, term := range subpageTerms {
			if strings.Contains(lower, term) {
				match = true
				break
			}
		}
		if !match || seen[href] {
			continue
		}
		seen[href] = true
		picks = append(picks, href)
		if len(picks) == maxSubpages {
			break
		}
	}
	return picks
}

// addressLines applies a keyword heuristic to pick address-like lines out of
// page text.
func addressLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 10 || len(line) > 150 {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "rights reserved") {
			continue
		}

		hasDigit := strings.IndexFunc(line, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
		if !hasDigit {
			continue
		}
		for _, kw := range addressKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}

// extractHrefs pulls anchor targets out of markup.
func extractHrefs(body string) []string {
	matches := hrefRe.FindAllStringSubmatch(body, -1)
	hrefs := make([]string, 0, len(matches))
	seen := map[string]bool{}
	for _, m := range matches {
		href := strings.TrimSpace(m[1])
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true
		hrefs = append(hrefs, href)
	}
	return hrefs
}

func parseMailto(href string) string {
	email := strings.TrimPrefix(href, "mailto:")
	if unescaped, err := url.QueryUnescape(email); err == nil {
		email = unescaped
	}
	if i := strings.IndexByte(email, '?'); i >= 0 {
		email = email[:i]
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

func parseTel(href string) string {
	phone := strings.TrimPrefix(href, "tel:")
	if unescaped, err := url.QueryUnescape(phone); err == nil {
		phone = unescaped
	}
	phone = strings.TrimSpace(phone)
	if len(phone) <= 5 {
		return ""
	}
	return phone
}

// stripTags removes markup, producing rough plain text with line breaks
// preserved well enough for the address heuristic.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune('\n')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
