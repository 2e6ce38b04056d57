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

import "runtime"

// EventFactory constructs one pre-allocated event slot. It is called
// bufferSize times at construction time; the ring buffer never
// allocates a slot after that.
type EventFactory[T any] func() T

// RingBuffer is a fixed-size array of pre-allocated event slots indexed
// by sequence & (size-1), with all coordination delegated to a
// Sequencer. It is the producer- and consumer-facing API: producers
// claim a sequence, mutate the slot at that sequence, and publish it;
// consumers wait on a SequenceBarrier for a sequence to become
// available and then read the same slot.
type RingBuffer[T any] struct {
	entries    []T
	indexMask  int64
	bufferSize int64
	sequencer  Sequencer
}

// NewRingBuffer constructs a RingBuffer of bufferSize slots (must be a
// power of two, at least one), populated by calling factory bufferSize
// times, coordinated by a Sequencer chosen by producerType and idling
// consumers according to waitStrategy.
func NewRingBuffer[T any](bufferSize int64, factory EventFactory[T], waitStrategy WaitStrategy, producerType ProducerType) (*RingBuffer[T], error) {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		return nil, ErrInvalidBufferSize
	}

	entries := make([]T, bufferSize)
	for i := range entries {
		entries[i] = factory()
	}

	var sequencer Sequencer
	switch producerType {
	case MultiProducer:
		sequencer = NewMultiProducerSequencer(bufferSize, waitStrategy)
	default:
		sequencer = NewSingleProducerSequencer(bufferSize, waitStrategy)
	}

	return &RingBuffer[T]{
		entries:    entries,
		indexMask:  bufferSize - 1,
		bufferSize: bufferSize,
		sequencer:  sequencer,
	}, nil
}

func (r *RingBuffer[T]) index(sequence int64) int64 {
	return sequence & r.indexMask
}

// Get returns a pointer to the pre-allocated slot for sequence, so the
// caller can mutate it in place. Sequences sequence and
// sequence+bufferSize alias the same slot by construction.
func (r *RingBuffer[T]) Get(sequence int64) *T {
	return &r.entries[r.index(sequence)]
}

// Next claims the next sequence, blocking while the producer is ahead of
// every gating consumer by a full buffer.
func (r *RingBuffer[T]) Next() int64 { return r.sequencer.Next() }

// NextN claims the next n sequences as a contiguous batch.
func (r *RingBuffer[T]) NextN(n int64) int64 { return r.sequencer.NextN(n) }

// TryNext is the non-blocking form of Next.
func (r *RingBuffer[T]) TryNext() (int64, error) { return r.sequencer.TryNext() }

// TryNextN is the non-blocking form of NextN.
func (r *RingBuffer[T]) TryNextN(n int64) (int64, error) { return r.sequencer.TryNextN(n) }

// Publish makes sequence visible to consumers.
func (r *RingBuffer[T]) Publish(sequence int64) { r.sequencer.Publish(sequence) }

// PublishRange makes every sequence in [lo, hi] visible.
func (r *RingBuffer[T]) PublishRange(lo, hi int64) { r.sequencer.PublishRange(lo, hi) }

// GetPublished busy-waits for sequence to become available and returns
// its slot. This is the rarely-used direct-read path; ordinary consumers
// should go through a SequenceBarrier instead, which idles according to
// a WaitStrategy rather than spinning unconditionally.
func (r *RingBuffer[T]) GetPublished(sequence int64) *T {
	spins := 0
	for !r.sequencer.IsAvailable(sequence) {
		spins++
		if spins > 1000 {
			runtime.Gosched()
		}
	}
	return r.Get(sequence)
}

// AddGatingSequences registers consumer sequences the producer must not
// overtake by more than BufferSize().
func (r *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	r.sequencer.AddGatingSequences(sequences...)
}

// RemoveGatingSequence unregisters a previously added gating sequence.
func (r *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return r.sequencer.RemoveGatingSequence(sequence)
}

// NewBarrier returns a SequenceBarrier for a consumer stage, depending
// on dependents (earlier consumer stages) if given, or the producer
// cursor otherwise.
func (r *RingBuffer[T]) NewBarrier(dependents ...*Sequence) SequenceBarrier {
	return r.sequencer.NewBarrier(dependents...)
}

// Cursor returns the current producer cursor.
func (r *RingBuffer[T]) Cursor() int64 { return r.sequencer.Cursor() }

// BufferSize returns the fixed slot count the RingBuffer was constructed
// with.
func (r *RingBuffer[T]) BufferSize() int64 { return r.bufferSize }

// HasAvailableCapacity reports whether n more sequences could be
// claimed right now without blocking.
func (r *RingBuffer[T]) HasAvailableCapacity(n int64) bool {
	return r.sequencer.HasAvailableCapacity(n)
}

// RemainingCapacity returns how many slots are currently free.
func (r *RingBuffer[T]) RemainingCapacity() int64 { return r.sequencer.RemainingCapacity() }

// GetMinimumGatingSequence returns the slowest gating consumer's
// sequence, or the cursor if there are none registered.
func (r *RingBuffer[T]) GetMinimumGatingSequence() int64 { return r.sequencer.GetMinimumSequence() }

// ResetTo forces the cursor to sequence and marks it published. It is a
// racy initialization-time helper: valid only before any gating
// sequence is registered and before any producer or consumer has
// started, used to seed a ring buffer that replays or resumes from a
// known point.
func (r *RingBuffer[T]) ResetTo(sequence int64) {
	r.sequencer.Claim(sequence)
	r.sequencer.Publish(sequence)
}

// ClaimAndGetPreallocated is the initialization-time counterpart to
// ResetTo: it claims sequence without gating and returns its slot so
// callers can prime it before steady-state publishing begins. Subject to
// the same "before anything else starts" restriction as ResetTo.
func (r *RingBuffer[T]) ClaimAndGetPreallocated(sequence int64) *T {
	r.sequencer.Claim(sequence)
	return r.Get(sequence)
}
