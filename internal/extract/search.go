package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/pkg/websearch"
)

// SearchClient adapts the web search client to the orchestrator's
// platform-search interface, rate limiting outbound queries so a scan
// sweeping the full platform set doesn't hammer the backend.
type SearchClient struct {
	client  websearch.Client
	limiter *rate.Limiter
}

// NewSearchClient wraps a search client. queriesPerSecond <= 0 disables
// rate limiting.
func NewSearchClient(client websearch.Client, queriesPerSecond float64) *SearchClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if queriesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(queriesPerSecond), 1)
	}
	return &SearchClient{client: client, limiter: limiter}
}

// SearchPlatform runs one platform-scoped query and returns hits in rank order.
func (s *SearchClient) SearchPlatform(ctx context.Context, query string) ([]model.SearchHit, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "extract: rate limit wait")
	}

	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "extract: platform search")
	}

	hits := make([]model.SearchHit, 0, len(resp.Data))
	for _, r := range resp.Data {
		hits = append(hits, model.SearchHit{
			Title:   r.Title,
			Link:    r.URL,
			Snippet: r.Description,
		})
	}
	return hits, nil
}
