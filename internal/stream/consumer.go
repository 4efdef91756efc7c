// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"errors"
	"io"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// State is a snapshot of the consumer after one record: the running
// answer so far, the current citation list, and whether the stream has
// finished or failed. Failures are additive — Answer and Citations keep
// whatever was accumulated before the failure.
type State struct {
	Answer    string
	Citations []types.Citation
	Done      bool
	Err       error
}

// UpdateFunc receives one State per processed record, plus one final
// State with Done or Err set. Updates arrive in record order, never
// batched.
type UpdateFunc func(State)

// Consumer folds stream records into answer state. Content appends,
// citations replace, an empty record changes nothing. One Consumer
// serves one logical query; start a fresh one for the next query.
type Consumer struct {
	answer    []byte
	citations []types.Citation
	onUpdate  UpdateFunc
}

// NewConsumer returns a consumer publishing to onUpdate, which may be nil.
func NewConsumer(onUpdate UpdateFunc) *Consumer {
	return &Consumer{onUpdate: onUpdate}
}

// Answer returns the running answer accumulated so far.
func (c *Consumer) Answer() string {
	return string(c.answer)
}

// Citations returns the most recently received citation list.
func (c *Consumer) Citations() []types.Citation {
	return c.citations
}

// Apply folds one record into the state and publishes the update.
func (c *Consumer) Apply(rec Record) {
	if rec.Content != "" {
		c.answer = append(c.answer, rec.Content...)
	}
	if rec.HasCitations() {
		c.citations = rec.Citations
	}
	c.publish(State{Answer: c.Answer(), Citations: c.citations})
}

// Run consumes r until the stream ends. A clean end publishes a final
// Done state and returns nil. A read-level failure publishes a final
// error state — with the partial answer intact — and returns the error.
func (c *Consumer) Run(r io.Reader) error {
	sc := NewScanner(r)
	for {
		rec, err := sc.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.publish(State{Answer: c.Answer(), Citations: c.citations, Done: true})
				return nil
			}
			c.publish(State{Answer: c.Answer(), Citations: c.citations, Err: err})
			return err
		}
		c.Apply(rec)
	}
}

func (c *Consumer) publish(st State) {
	if c.onUpdate != nil {
		c.onUpdate(st)
	}
}
