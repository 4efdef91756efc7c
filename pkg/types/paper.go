// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for paper-finder: the
// provider-facing paper and citation shapes and the per-component
// configuration structs.
//
// Wire tags follow the search provider's own field names (camelCase) so
// results can be relayed verbatim.
package types

import "time"

// ResearchPaper is one search or similar-papers result. Every field is
// provider-supplied and may be absent or malformed; consumers must
// degrade gracefully rather than reject the record.
type ResearchPaper struct {
	// Title is the paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Text is the full text or abstract scraped by the provider. Often
	// contains site chrome; see the cleanup package.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Author is the provider's single author string (not a list).
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// PublishedDate is the provider's date string, frequently unparsable.
	PublishedDate string `json:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`

	// Summary is the provider-generated short summary of the paper.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// URL links to the paper.
	URL string `json:"url" yaml:"url"`
}

// Year extracts the publication year from PublishedDate, trying the
// layouts the provider has been observed to use. ok is false when the
// date is missing or unparsable; callers then omit the year.
func (p ResearchPaper) Year() (int, bool) {
	if p.PublishedDate == "" {
		return 0, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006"} {
		if t, err := time.Parse(layout, p.PublishedDate); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// Citation is one provider-supplied source reference attached to a
// streamed answer. Opaque: fields are relayed without validation and
// optional fields may be absent.
type Citation struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}
