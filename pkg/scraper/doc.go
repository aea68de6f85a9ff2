// Package scraper crawls PubMed search listings term by term and collects
// email addresses from every page.
//
// For each configured search term the Scraper requests consecutive result
// pages until one comes back without a content block, the term exhausts its
// page budget, or a page fails more than crawl.max_consecutive_failures
// times in a row. Addresses found on a page are appended to the term's file
// before the checkpoint advances to the next page, so a restart never skips
// a page (it may re-append one, which the end-of-term dedupe absorbs).
//
// Usage:
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    return err
//	}
//	summary, err := s.Run(ctx)
//
// Run resumes from the checkpoint file when one exists and does nothing when
// the checkpoint records a finished scan. Only one scraper may use a given
// output directory at a time.
package scraper
