// Package storage keeps scraped addresses in flat files.
//
// Each search term has its own file in the output directory, named after
// the term with spaces replaced by '+' and the ".emails.txt" suffix. The
// crawler appends raw matches as "a,b," after every page and rewrites the
// file as a sorted, deduplicated record when the term is finished. The
// collated file merges every per-term file the same way.
//
// Rewrites go through a temporary file and a rename so a crash leaves
// either the old or the new contents.
package storage
