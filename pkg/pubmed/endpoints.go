package pubmed

import (
	"fmt"
	"net/url"
	"strings"

	"pubmedscraper/pkg/config"
)

const (
	// BaseURL is the PubMed search listing
	BaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

	// DefaultPageSize is the largest page PubMed serves
	DefaultPageSize = 200

	// FreeFullTextFilter restricts results to free full text articles
	FreeFullTextFilter = "simsearch2.ffrft"

	// FormatPubMed renders results as plain-text MEDLINE records inside <pre>
	FormatPubMed = "pubmed"
)

// SearchQuery holds the fixed part of every search request
type SearchQuery struct {
	BaseURL  string
	PageSize int
	Filter   string
	YearFrom int
	YearTo   int
	Format   string
}

// QueryFromConfig builds the fixed query from search settings
func QueryFromConfig(cfg *config.SearchConfig) SearchQuery {
	return SearchQuery{
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
		Filter:   cfg.Filter,
		YearFrom: cfg.YearFrom,
		YearTo:   cfg.YearTo,
		Format:   cfg.Format,
	}
}

// URL returns the listing URL for one page of term.
// Parameters keep a fixed order and spaces in the term become '+'.
func (q SearchQuery) URL(term string, page int) string {
	base := q.BaseURL
	if base == "" {
		base = BaseURL
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := [][2]string{{"size", fmt.Sprint(pageSize)}}
	if q.Filter != "" {
		params = append(params, [2]string{"filter", q.Filter})
	}
	if q.YearFrom > 0 && q.YearTo > 0 {
		params = append(params, [2]string{"filter", fmt.Sprintf("years.%d-%d", q.YearFrom, q.YearTo)})
	}
	if q.Format != "" {
		params = append(params, [2]string{"format", q.Format})
	}
	params = append(params,
		[2]string{"term", term},
		[2]string{"page", fmt.Sprint(page)},
	)

	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('?')
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}
