// Package scan drives the discovery of a business's online presence: a
// single-pass state machine that crawls the known website, verifies the map
// listing, and searches the remaining platforms, accumulating raw harvested
// facts for reconciliation.
package scan

import (
	"context"

	"github.com/sells-group/presence-scanner/internal/model"
)

// Session is one extractor session, opened per scan and reused across stages.
type Session interface {
	// Crawl fetches a site and returns whatever social links and raw
	// contact data it can find. Unreachable URLs yield an empty result,
	// not an error; errors are reserved for session-level faults.
	Crawl(ctx context.Context, url string) (*model.CrawlResult, error)
	Close() error
}

// Extractor opens extractor sessions. Each scan owns its session exclusively
// for the scan's lifetime.
type Extractor interface {
	Open(ctx context.Context) (Session, error)
}

// ListingVerifier looks a business up on the map-listing platform.
// A nil profile with nil error means not found.
type ListingVerifier interface {
	VerifyListing(ctx context.Context, business model.BusinessInput) (*model.CandidateProfile, error)
}

// Searcher performs a platform-scoped web search.
type Searcher interface {
	SearchPlatform(ctx context.Context, query string) ([]model.SearchHit, error)
}
