// Package pubmed fetches PubMed search result listings.
//
// Listings are requested with format=pubmed, which makes PubMed render the
// MEDLINE records of the page as plain text inside a single <pre> element.
// A page past the last result has no such element.
package pubmed
