// Package extractor finds email-like substrings in plain text.
package extractor

import (
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

const (
	// local part: the first atom may not contain an apostrophe, later atoms may
	localPart = "[a-z0-9!#$%&*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*"
	label     = `[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`

	plainAddress      = localPart + `@(?:` + label + `\.)+` + label
	obfuscatedAddress = localPart + `\sat\s(?:` + label + `\sdot\s)+` + label

	// Pattern matches conventional and spelled-out ("name at host dot org")
	// addresses. Character classes are lowercase only.
	Pattern = `(?:` + plainAddress + `)|(?:` + obfuscatedAddress + `)`
)

// Options tunes an Extractor.
type Options struct {
	// FoldCase lowercases input before matching so that uppercase
	// addresses are found. Matches are then returned lowercased.
	FoldCase bool
}

// Extractor is safe for concurrent use.
type Extractor struct {
	re       *regexp.Regexp
	foldCase bool
}

// New compiles the email pattern.
func New(opts Options) *Extractor {
	return &Extractor{
		re:       regexp.MustCompile(Pattern),
		foldCase: opts.FoldCase,
	}
}

// Extract returns every match in text, in order of appearance, skipping
// matches that begin with "//" (the tail of URLs such as http://user@host).
// Duplicates are kept.
func (e *Extractor) Extract(text string) []string {
	if e.foldCase {
		text = strings.ToLower(text)
	}

	matches := e.re.FindAllString(text, -1)
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(m, "//") {
			continue
		}
		emails = append(emails, m)
	}
	return emails
}

var defaultExtractor = New(Options{})

// Extract uses an Extractor with default options.
func Extract(text string) []string {
	return defaultExtractor.Extract(text)
}
