// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package disruptor

import "sync/atomic"

// ProducerType selects which Sequencer implementation a RingBuffer
// constructs: SingleProducer assumes exactly one goroutine ever calls
// Next/Publish and can skip the CAS claim loop; MultiProducer is safe for
// any number of concurrent producers.
type ProducerType int

const (
	// SingleProducer must only be used when exactly one goroutine
	// claims and publishes sequences. Using it from more than one
	// producer goroutine races the cursor and corrupts the ring.
	SingleProducer ProducerType = iota
	// MultiProducer is safe for any number of concurrent producer
	// goroutines, at the cost of a CAS retry loop on every claim and an
	// extra per-slot availability flag on every publish.
	MultiProducer
)

// Sequencer is the producer-side coordinator: it claims sequence ranges,
// tracks the gating consumers a producer must not overtake, publishes
// claimed sequences, and answers availability queries for barriers.
type Sequencer interface {
	// Next claims the next sequence, blocking while doing so would
	// overwrite a slot still held by a gating consumer.
	Next() int64
	// NextN claims the next n sequences as a contiguous batch and
	// returns the highest one; the caller owns [returned-n+1, returned].
	NextN(n int64) int64
	// TryNext is the non-blocking form of Next; it returns
	// ErrInsufficientCapacity instead of waiting.
	TryNext() (int64, error)
	// TryNextN is the non-blocking form of NextN.
	TryNextN(n int64) (int64, error)

	// Publish makes sequence visible to consumers and wakes waiters.
	Publish(sequence int64)
	// PublishRange makes every sequence in [lo, hi] visible.
	PublishRange(lo, hi int64)

	// IsAvailable reports whether sequence has been published.
	IsAvailable(sequence int64) bool
	// GetHighestPublishedSequence returns the highest sequence in
	// [nextSequence, availableSequence] such that every sequence in
	// that prefix is published; it is how a barrier enforces the
	// contiguity guarantee against an out-of-order multi-producer
	// publish.
	GetHighestPublishedSequence(nextSequence, availableSequence int64) int64

	// HasAvailableCapacity reports whether n more sequences could be
	// claimed right now without blocking.
	HasAvailableCapacity(n int64) bool
	// RemainingCapacity returns how many slots are currently free.
	RemainingCapacity() int64
	// GetMinimumSequence returns the slowest gating consumer's
	// sequence, or the cursor if there are none.
	GetMinimumSequence() int64
	// Cursor returns the sequencer's notion of cursor: the highest
	// published sequence for a single producer, or the highest claimed
	// sequence for multiple producers.
	Cursor() int64

	// AddGatingSequences registers consumer sequences the producer must
	// not overtake by more than the buffer size.
	AddGatingSequences(sequences ...*Sequence)
	// RemoveGatingSequence unregisters a previously added sequence,
	// reporting whether it was found.
	RemoveGatingSequence(sequence *Sequence) bool

	// Claim forces the cursor to seq. Only valid before any producer or
	// consumer has started; racy by design, see RingBuffer.ResetTo.
	Claim(seq int64)

	// NewBarrier returns a SequenceBarrier wired to this sequencer,
	// depending on dependents if given, or the cursor otherwise.
	NewBarrier(dependents ...*Sequence) SequenceBarrier
}

// gatingSequences holds the copy-on-write snapshot of consumer sequences
// a producer must not overtake. Reads (on the hot claim path) are a
// single atomic pointer load; writes (AddGatingSequences /
// RemoveGatingSequence, expected to be rare, steady-state operations)
// build a new slice and swap it in, so readers never block.
type gatingSequences struct {
	snapshot atomic.Pointer[[]*Sequence]
}

func newGatingSequences() *gatingSequences {
	g := &gatingSequences{}
	empty := []*Sequence{}
	g.snapshot.Store(&empty)
	return g
}

func (g *gatingSequences) get() []*Sequence {
	return *g.snapshot.Load()
}

func (g *gatingSequences) add(sequences ...*Sequence) {
	for {
		old := g.snapshot.Load()
		next := make([]*Sequence, 0, len(*old)+len(sequences))
		next = append(next, *old...)
		next = append(next, sequences...)
		if g.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (g *gatingSequences) remove(sequence *Sequence) bool {
	for {
		old := g.snapshot.Load()
		idx := -1
		for i, s := range *old {
			if s == sequence {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false
		}
		next := make([]*Sequence, 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if g.snapshot.CompareAndSwap(old, &next) {
			return true
		}
	}
}
