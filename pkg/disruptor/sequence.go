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

// Package disruptor implements a lock-free ring buffer for handing off
// fixed-size event slots between producer and consumer goroutines, in the
// style of the LMAX Disruptor. The hot path never allocates and never
// takes a lock; coordination between producers and consumers is expressed
// entirely as atomic operations over monotonic Sequence counters.
package disruptor

import (
	"sync/atomic"
)

// cacheLineSize is the assumed size, in bytes, of a CPU cache line on the
// target platforms. It is used purely to size padding; correctness does
// not depend on the true line size, only on the padding being generous
// enough to keep a Sequence from sharing a line with its neighbors.
const cacheLineSize = 64

// InitialSequenceValue is the value a Sequence holds before anything has
// been claimed or published through it.
const InitialSequenceValue int64 = -1

// Sequence is a cache-line-padded, monotonically increasing 64-bit counter.
// It is the single coordination primitive the rest of the package builds
// on: producers advance a Sequence to claim and publish slots, consumers
// advance their own Sequence to report progress, and the padding exists
// so that a hot producer Sequence and a hot consumer Sequence never
// ping-pong the same cache line between cores.
//
// The zero value is not usable; construct one with NewSequence.
type Sequence struct {
	_     [cacheLineSize - 8]byte
	value atomic.Int64
	_     [cacheLineSize - 8]byte
}

// NewSequence returns a Sequence initialized to initial.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.Store(initial)
	return s
}

// Get returns the current value with acquire semantics: every store that
// happened-before the matching Set or SetVolatile is visible to the
// caller after Get returns.
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set stores v with release semantics, the normal way a producer or
// consumer advances its own sequence once all slot mutations for that
// sequence are complete.
func (s *Sequence) Set(v int64) {
	s.value.Store(v)
}

// SetVolatile stores v with the same full ordering as Set. Go's atomic
// store is already sequentially consistent, so this is identical to Set;
// it exists as a distinct method to mark call sites (notably the
// single-producer claim-wait loop) that rely on the store acting as a
// full fence rather than a plain release.
func (s *Sequence) SetVolatile(v int64) {
	s.value.Store(v)
}

// CompareAndSet atomically sets the value to newValue if the current
// value equals expected, returning whether the swap happened.
func (s *Sequence) CompareAndSet(expected, newValue int64) bool {
	return s.value.CompareAndSwap(expected, newValue)
}

// IncrementAndGet atomically adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.AddAndGet(1)
}

// AddAndGet atomically adds delta and returns the new value.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// String renders the current value, mainly for logging and test failures.
func (s *Sequence) String() string {
	return formatInt64(s.Get())
}

func formatInt64(v int64) string {
	// avoid pulling in strconv just for String(); fmt.Sprintf would also
	// work but this keeps Sequence dependency-free for hot-path callers.
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// minSequence returns the smallest Get() among sequences, or fallback if
// sequences is empty. It is the building block for gating-sequence
// minimums on both the producer and barrier side.
func minSequence(sequences []*Sequence, fallback int64) int64 {
	minimum := fallback
	for _, s := range sequences {
		if v := s.Get(); v < minimum {
			minimum = v
		}
	}
	return minimum
}
