package scan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/fingerprint"
	"github.com/sells-group/presence-scanner/internal/metrics"
	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/platform"
	"github.com/sells-group/presence-scanner/internal/scorer"
)

// Options tunes per-call behavior of a discovery run.
type Options struct {
	// CrawlTimeout bounds each website crawl. Zero disables the bound.
	CrawlTimeout time.Duration
	// LookupTimeout bounds the map-listing lookup.
	LookupTimeout time.Duration
	// SearchTimeout bounds each platform search.
	SearchTimeout time.Duration
}

// Orchestrator runs the discovery stages for one business at a time.
// It is safe for concurrent use; all run state lives in the state value
// threaded through the stages.
type Orchestrator struct {
	extractor Extractor
	listings  ListingVerifier
	search    Searcher
	registry  *platform.Registry
	opts      Options
}

// New creates an Orchestrator from its collaborators.
func New(extractor Extractor, listings ListingVerifier, search Searcher, reg *platform.Registry, opts Options) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		listings:  listings,
		search:    search,
		registry:  reg,
		opts:      opts,
	}
}

// state carries everything a discovery run accumulates across stages.
// foundPlatforms grows monotonically and is the sole guard against accepting
// or re-querying a platform twice.
type state struct {
	fp             fingerprint.Fingerprint
	harvested      model.HarvestedData
	foundPlatforms map[string]bool
	knownWebsite   string
	knownPhone     string
}

// Run executes the discovery stages in strict order: website crawl, map
// listing verification, then phone-anchored search or the name+city
// fallback. Collaborator faults degrade to "not found" for that step; the
// harvested data accumulated so far is always returned. The only error Run
// reports is context cancellation, in which case partial data must be
// discarded by the caller.
func (o *Orchestrator) Run(ctx context.Context, business model.BusinessInput) (model.HarvestedData, error) {
	log := zap.L().With(zap.String("business", business.Name))

	st := &state{
		fp:             fingerprint.New(business),
		foundPlatforms: map[string]bool{},
		knownWebsite:   business.Website,
		knownPhone:     business.Phone,
	}

	sess, err := o.extractor.Open(ctx)
	if err != nil {
		// Without a session there is nothing to crawl, but the search
		// stages can still run.
		log.Error("scan: open extractor session failed", zap.Error(err))
		sess = nil
	}
	if sess != nil {
		defer func() {
			if closeErr := sess.Close(); closeErr != nil {
				log.Warn("scan: close extractor session", zap.Error(closeErr))
			}
		}()
	}

	if st.knownWebsite != "" {
		o.crawlWebsite(ctx, log, sess, st)
	}

	o.verifyListing(ctx, log, sess, business, st)

	if st.knownPhone != "" {
		o.searchByPhone(ctx, log, st)
	} else {
		o.searchFallback(ctx, log, business, st)
	}

	if err := ctx.Err(); err != nil {
		return st.harvested, err
	}
	return st.harvested, nil
}

// crawlWebsite runs the website-crawl stage against the currently known
// website. Social links found on the business's own site are authoritative
// and accepted at score 100; raw contact data is appended undeduplicated.
func (o *Orchestrator) crawlWebsite(ctx context.Context, log *zap.Logger, sess Session, st *state) {
	if sess == nil {
		return
	}

	crawlCtx, cancel := withTimeout(ctx, o.opts.CrawlTimeout)
	defer cancel()

	site, err := sess.Crawl(crawlCtx, st.knownWebsite)
	if err != nil {
		log.Warn("scan: website crawl failed", zap.String("url", st.knownWebsite), zap.Error(err))
		return
	}

	st.harvested.Emails = append(st.harvested.Emails, site.Emails...)
	st.harvested.Phones = append(st.harvested.Phones, site.Phones...)
	st.harvested.Addresses = append(st.harvested.Addresses, site.Addresses...)

	for _, link := range site.Social {
		if st.foundPlatforms[link.Platform] {
			continue
		}
		log.Info("scan: platform found via website",
			zap.String("platform", link.Platform),
			zap.String("url", link.URL),
		)
		st.harvested.Social = append(st.harvested.Social, model.SocialEntry{
			Platform:   link.Platform,
			Found:      true,
			URL:        link.URL,
			MatchScore: 100,
		})
		st.foundPlatforms[link.Platform] = true
	}
}

// verifyListing runs the map-listing stage. An accepted listing can upgrade
// the known website (triggering a late-binding crawl of the discovered site)
// and the known phone.
func (o *Orchestrator) verifyListing(ctx context.Context, log *zap.Logger, sess Session, business model.BusinessInput, st *state) {
	lookupCtx, cancel := withTimeout(ctx, o.opts.LookupTimeout)
	defer cancel()

	listing, err := o.listings.VerifyListing(lookupCtx, business)
	if err != nil {
		log.Warn("scan: map listing lookup failed", zap.Error(err))
		listing = nil
	}
	if listing == nil || !listing.Found {
		metrics.PlatformLookups.WithLabelValues(platform.GoogleMaps, "not_found").Inc()
		st.harvested.Social = append(st.harvested.Social, model.SocialEntry{Platform: platform.GoogleMaps, Found: false})
		return
	}

	score := scorer.Score(st.fp, *listing)
	if score < scorer.AcceptThreshold {
		log.Info("scan: map listing rejected", zap.String("name", listing.Name), zap.Int("score", score))
		metrics.PlatformLookups.WithLabelValues(platform.GoogleMaps, "rejected").Inc()
		st.harvested.Social = append(st.harvested.Social, model.SocialEntry{Platform: platform.GoogleMaps, Found: false})
		return
	}

	metrics.PlatformLookups.WithLabelValues(platform.GoogleMaps, "found").Inc()
	st.harvested.Social = append(st.harvested.Social, model.SocialEntry{
		Platform:    platform.GoogleMaps,
		Found:       true,
		URL:         listing.URL,
		MatchScore:  score,
		Rating:      listing.Rating,
		ReviewCount: listing.ReviewCount,
	})

	if listing.Phone != "" {
		st.harvested.Phones = append(st.harvested.Phones, listing.Phone)
	}
	if listing.Address != "" {
		st.harvested.Addresses = append(st.harvested.Addresses, listing.Address)
	}

	if listing.Website != "" && st.knownWebsite == "" {
		log.Info("scan: website discovered via map listing", zap.String("website", listing.Website))
		st.knownWebsite = listing.Website
		o.crawlWebsite(ctx, log, sess, st)
	}
	if listing.Phone != "" && st.knownPhone == "" {
		st.knownPhone = listing.Phone
	}
}

// searchByPhone runs the phone-anchored search stage: exhaustive over the
// platform set, explicit about misses. Any hit for a platform is accepted
// unconditionally since an exact phone match is a strong identity signal.
func (o *Orchestrator) searchByPhone(ctx context.Context, log *zap.Logger, st *state) {
	for _, p := range o.registry.Platforms() {
		if st.foundPlatforms[p.Name] {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		query := fmt.Sprintf("%s %q", p.Scope, st.knownPhone)
		hits := o.searchPlatform(ctx, log, p.Name, query)
		if len(hits) == 0 {
			metrics.PlatformLookups.WithLabelValues(p.Name, "not_found").Inc()
			st.harvested.Social = append(st.harvested.Social, model.SocialEntry{Platform: p.Name, Found: false})
			continue
		}

		metrics.PlatformLookups.WithLabelValues(p.Name, "found").Inc()
		st.harvested.Social = append(st.harvested.Social, model.SocialEntry{
			Platform:   p.Name,
			Found:      true,
			URL:        hits[0].Link,
			MatchScore: 100,
		})
		st.foundPlatforms[p.Name] = true
	}
}

// searchFallback runs the name+city fallback stage, entered only when no
// phone is known. Best-effort and silent: low-scoring or missing results
// produce no record at all.
func (o *Orchestrator) searchFallback(ctx context.Context, log *zap.Logger, business model.BusinessInput, st *state) {
	if business.Name == "" || business.City == "" {
		return
	}

	for _, p := range o.registry.Platforms() {
		if st.foundPlatforms[p.Name] {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		query := fmt.Sprintf("%s %q %s", p.Scope, business.Name, business.City)
		hits := o.searchPlatform(ctx, log, p.Name, query)
		if len(hits) == 0 {
			continue
		}

		// Search hits carry no structured location, so the candidate is
		// only the top hit's title and link.
		candidate := model.CandidateProfile{
			Platform: p.Name,
			Name:     hits[0].Title,
			URL:      hits[0].Link,
		}
		score := scorer.Score(st.fp, candidate)
		if score < scorer.AcceptThreshold {
			continue
		}

		st.harvested.Social = append(st.harvested.Social, model.SocialEntry{
			Platform:   p.Name,
			Found:      true,
			URL:        hits[0].Link,
			MatchScore: score,
		})
		st.foundPlatforms[p.Name] = true
	}
}

// searchPlatform performs one bounded platform search, degrading any fault
// to an empty result.
func (o *Orchestrator) searchPlatform(ctx context.Context, log *zap.Logger, name, query string) []model.SearchHit {
	searchCtx, cancel := withTimeout(ctx, o.opts.SearchTimeout)
	defer cancel()

	hits, err := o.search.SearchPlatform(searchCtx, query)
	if err != nil {
		log.Warn("scan: platform search failed", zap.String("platform", name), zap.Error(err))
		return nil
	}
	return hits
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
