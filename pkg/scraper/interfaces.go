package scraper

import (
	"context"

	"pubmedscraper/pkg/pubmed"
)

// PageFetcher retrieves one page of search results
type PageFetcher interface {
	FetchPage(ctx context.Context, term string, page int) (*pubmed.Page, error)
}

// EmailExtractor finds addresses in a page's content block
type EmailExtractor interface {
	Extract(text string) []string
}
