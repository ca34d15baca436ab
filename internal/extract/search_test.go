package extract

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-scanner/pkg/websearch"
)

type fakeWebSearch struct {
	queries []string
	resp    *websearch.SearchResponse
	err     error
}

func (f *fakeWebSearch) Search(ctx context.Context, query string) (*websearch.SearchResponse, error) {
	f.queries = append(f.queries, query)
	return f.resp, f.err
}

func TestSearchPlatformMapsHits(t *testing.T) {
	fake := &fakeWebSearch{resp: &websearch.SearchResponse{
		Data: []websearch.SearchResult{
			{Title: "Acme Corp - Yelp", URL: "https://yelp.com/biz/acme", Description: "Reviews of Acme Corp"},
			{Title: "Acme Corp Menu", URL: "https://yelp.com/menu/acme", Description: "Menu"},
		},
	}}
	s := NewSearchClient(fake, 0)

	hits, err := s.SearchPlatform(context.Background(), `site:yelp.com "Acme Corp" Springfield`)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "Acme Corp - Yelp", hits[0].Title)
	assert.Equal(t, "https://yelp.com/biz/acme", hits[0].Link)
	assert.Equal(t, "Reviews of Acme Corp", hits[0].Snippet)
	assert.Equal(t, []string{`site:yelp.com "Acme Corp" Springfield`}, fake.queries)
}

func TestSearchPlatformEmptyResults(t *testing.T) {
	fake := &fakeWebSearch{resp: &websearch.SearchResponse{}}
	s := NewSearchClient(fake, 0)

	hits, err := s.SearchPlatform(context.Background(), "site:yelp.com nothing")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchPlatformPropagatesErrors(t *testing.T) {
	fake := &fakeWebSearch{err: eris.New("backend down")}
	s := NewSearchClient(fake, 0)

	_, err := s.SearchPlatform(context.Background(), "site:yelp.com acme")
	assert.Error(t, err)
}

func TestSearchPlatformRateLimited(t *testing.T) {
	fake := &fakeWebSearch{resp: &websearch.SearchResponse{}}
	// 100 qps keeps the test fast while still exercising the limiter path.
	s := NewSearchClient(fake, 100)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.SearchPlatform(context.Background(), "q")
		require.NoError(t, err)
	}
	// Burst of 1 means the second and third calls each wait ~10ms.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestSearchPlatformCanceledContext(t *testing.T) {
	fake := &fakeWebSearch{resp: &websearch.SearchResponse{}}
	s := NewSearchClient(fake, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.SearchPlatform(ctx, "first") // consumes the burst token
	require.NoError(t, err)

	cancel()
	_, err = s.SearchPlatform(ctx, "second")
	assert.Error(t, err)
}
