// Package checkpoint persists the scan position so an interrupted crawl
// can resume.
//
// The record is a tiny text file. "<termIndex>,<page>" names the next page
// to fetch; an empty file means every search term has been exhausted and
// a missing file means no scan has started. Anything else is rejected with
// an error wrapping errors.ErrCorruptCheckpoint.
//
// Writes go to a temporary file in the same directory which is synced and
// renamed over the record, so a crash never leaves a torn record behind.
// The file has a single writer; two scrapers must not share it.
package checkpoint
