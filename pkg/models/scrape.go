package models

// LinksResult is the outcome of a search-page crawl: the candidate ad URLs
// found on the page, deduplicated, order-irrelevant.
type LinksResult struct {
	Links       []string `json:"links"`
	StatusCode  int      `json:"status_code"`
	CreditsUsed int      `json:"credits_used"`
}

// ScrapeResult is the outcome of fetching one ad page as normalized markdown.
type ScrapeResult struct {
	Markdown    string `json:"markdown"`
	StatusCode  int    `json:"status_code"`
	CreditsUsed int    `json:"credits_used"`
	ScrapeID    string `json:"scrape_id,omitempty"`
}
