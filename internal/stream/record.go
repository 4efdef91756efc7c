// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream implements the newline-delimited JSON answer stream:
// the wire record, a writer that frames one record per line, a scanner
// that reassembles records from arbitrary read boundaries, a consumer
// that folds records into a running answer, and the epoch bookkeeping
// that keeps superseded queries from writing into current state.
package stream

import (
	"encoding/json"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Record is one self-contained unit of the answer stream. Content and
// Citations are independent optional fields, not a tagged union: the
// provider does not guarantee mutual exclusivity, so a record may carry
// both, either, or neither. Unknown fields are ignored on decode.
type Record struct {
	// Content is a fragment to append to the running answer.
	Content string `json:"content,omitempty"`

	// Citations, when present, replaces the whole citation list.
	// A present-but-empty list still replaces; absence leaves the list
	// untouched. Both sides keep the distinction by nilness: decoding
	// yields nil for an absent field, and encoding emits "citations":[]
	// for a non-nil empty slice instead of dropping the field.
	Citations []types.Citation `json:"citations,omitempty"`
}

// MarshalJSON keeps a present-but-empty citation list on the wire.
// Plain omitempty would drop it, and downstream consumers would never
// clear a stale list.
func (r Record) MarshalJSON() ([]byte, error) {
	type wire struct {
		Content   string            `json:"content,omitempty"`
		Citations *[]types.Citation `json:"citations,omitempty"`
	}
	w := wire{Content: r.Content}
	if r.Citations != nil {
		w.Citations = &r.Citations
	}
	return json.Marshal(w)
}

// HasCitations reports whether the record carried a citations field at
// all, including an empty one.
func (r Record) HasCitations() bool {
	return r.Citations != nil
}

// IsEmpty reports whether the record carried neither payload. Empty
// records are valid and must leave consumer state unchanged.
func (r Record) IsEmpty() bool {
	return r.Content == "" && r.Citations == nil
}
