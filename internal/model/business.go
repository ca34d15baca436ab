package model

// BusinessInput is the user-supplied business record. It is immutable once a
// scan starts; the scanner only ever reads from it.
type BusinessInput struct {
	Name    string `json:"business_name"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Email   string `json:"email,omitempty"`
}

// CandidateProfile is an entity returned by a discovery stage, pending
// score-based acceptance. Produced per step and either accepted or discarded.
type CandidateProfile struct {
	Platform    string   `json:"platform"`
	Name        string   `json:"name,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviews,omitempty"`
	Found       bool     `json:"found"`
	URL         string   `json:"url,omitempty"`
}

// SocialEntry is an accepted (or explicitly not-found) platform result in the
// harvested social list.
type SocialEntry struct {
	Platform    string   `json:"platform"`
	Found       bool     `json:"found"`
	URL         string   `json:"url,omitempty"`
	MatchScore  int      `json:"match_score,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviews,omitempty"`
}

// HarvestedData accumulates raw facts during a scan. Lists may contain
// duplicates; deduplication happens at reconciliation time only.
type HarvestedData struct {
	Social    []SocialEntry `json:"social"`
	Emails    []string      `json:"emails"`
	Phones    []string      `json:"phones"`
	Addresses []string      `json:"addresses"`
}

// CrawlResult is what the website extractor returns for one crawl: social
// links plus raw contact strings. Unreachable sites yield an empty result.
type CrawlResult struct {
	Social    []SocialLink `json:"social"`
	Emails    []string     `json:"emails"`
	Phones    []string     `json:"phones"`
	Addresses []string     `json:"addresses"`
}

// SocialLink is a platform profile link discovered on a crawled page.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// SearchHit is a single result from a platform-scoped web search.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}
