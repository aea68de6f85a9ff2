package storage

import (
	"sort"
	"strings"
)

// EmailSet is a set of addresses keyed by their trimmed value
type EmailSet map[string]struct{}

// NewEmailSet builds a set from emails, ignoring blanks
func NewEmailSet(emails ...string) EmailSet {
	s := make(EmailSet, len(emails))
	s.Add(emails...)
	return s
}

// ParseSet splits a comma-joined record into a set.
// Surrounding whitespace is trimmed and empty entries are dropped.
func ParseSet(raw string) EmailSet {
	return NewEmailSet(strings.Split(raw, ",")...)
}

// Add inserts emails into the set
func (s EmailSet) Add(emails ...string) {
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		s[e] = struct{}{}
	}
}

func (s EmailSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order
func (s EmailSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Join encodes the set as a sorted comma-joined record
func (s EmailSet) Join() string {
	return strings.Join(s.Sorted(), ",")
}
