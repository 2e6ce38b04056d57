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

import (
	"math/bits"
	"runtime"
	"sync/atomic"
	"time"
)

// availableUnpublished is the flag value stored in a fresh
// MultiProducerSequencer's availableBuffer. It must not equal the flag
// of any real sequence, including sequence 0 (whose flag is also 0), so
// it is chosen as -1; see §9's open question on stale wrap-around flags.
const availableUnpublished int32 = -1

// MultiProducerSequencer is a Sequencer safe for any number of
// concurrent producer goroutines. Claims are serialized with a CAS loop
// over the cursor rather than a single atomic add, because a failed
// claim must be retried against a fresh cursor value. Because claims can
// therefore commit out of order, a single cursor cannot tell a consumer
// which sequences are actually published; availableBuffer carries a
// per-slot "flag" (the claim's wrap count) that a consumer's barrier
// scans to find the contiguous published prefix.
type MultiProducerSequencer struct {
	bufferSize   int64
	indexMask    int64
	indexShift   uint
	waitStrategy WaitStrategy
	gating       *gatingSequences

	cursor *Sequence

	gatingSequenceCache *Sequence
	availableBuffer     []atomic.Int32
}

// NewMultiProducerSequencer constructs a Sequencer for a ring buffer of
// bufferSize slots (a power of two), using waitStrategy to idle when
// claims must wait for gating consumers.
func NewMultiProducerSequencer(bufferSize int64, waitStrategy WaitStrategy) *MultiProducerSequencer {
	s := &MultiProducerSequencer{
		bufferSize:          bufferSize,
		indexMask:           bufferSize - 1,
		indexShift:          uint(bits.TrailingZeros64(uint64(bufferSize))),
		waitStrategy:        waitStrategy,
		gating:              newGatingSequences(),
		cursor:              NewSequence(InitialSequenceValue),
		gatingSequenceCache: NewSequence(InitialSequenceValue),
		availableBuffer:     make([]atomic.Int32, bufferSize),
	}
	for i := range s.availableBuffer {
		s.availableBuffer[i].Store(availableUnpublished)
	}
	return s
}

func (s *MultiProducerSequencer) Next() int64 {
	n, _ := s.next(1, true)
	return n
}

func (s *MultiProducerSequencer) NextN(n int64) int64 {
	v, _ := s.next(n, true)
	return v
}

func (s *MultiProducerSequencer) TryNext() (int64, error) {
	return s.next(1, false)
}

func (s *MultiProducerSequencer) TryNextN(n int64) (int64, error) {
	return s.next(n, false)
}

// next implements the §4.6 CAS claim algorithm.
func (s *MultiProducerSequencer) next(n int64, block bool) (int64, error) {
	if n < 1 {
		panic("disruptor: n must be >= 1")
	}

	spins := 0
	for {
		current := s.cursor.Get()
		next := current + n
		wrapPoint := next - s.bufferSize
		cachedGating := s.gatingSequenceCache.Get()

		if wrapPoint > cachedGating || cachedGating > current {
			gatingSeq := minSequence(s.gating.get(), current)
			if wrapPoint > gatingSeq {
				if !block {
					return -1, ErrInsufficientCapacity
				}
				s.waitStrategy.SignalAllWhenBlocking()
				spins++
				if spins < 100 {
					runtime.Gosched()
				} else {
					time.Sleep(time.Nanosecond)
				}
				continue
			}
			s.gatingSequenceCache.Set(gatingSeq)
			continue
		}

		if s.cursor.CompareAndSet(current, next) {
			return next, nil
		}
		// Another producer won the race for `current`; retry from a
		// fresh cursor read.
	}
}

func (s *MultiProducerSequencer) Publish(sequence int64) {
	s.setAvailable(sequence)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) PublishRange(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		s.setAvailable(seq)
	}
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) setAvailable(sequence int64) {
	index := s.index(sequence)
	flag := s.flag(sequence)
	s.availableBuffer[index].Store(flag)
}

func (s *MultiProducerSequencer) index(sequence int64) int64 {
	return sequence & s.indexMask
}

func (s *MultiProducerSequencer) flag(sequence int64) int32 {
	return int32(sequence >> s.indexShift)
}

func (s *MultiProducerSequencer) IsAvailable(sequence int64) bool {
	index := s.index(sequence)
	flag := s.flag(sequence)
	return s.availableBuffer[index].Load() == flag
}

func (s *MultiProducerSequencer) GetHighestPublishedSequence(nextSequence, availableSequence int64) int64 {
	for seq := nextSequence; seq <= availableSequence; seq++ {
		if !s.IsAvailable(seq) {
			return seq - 1
		}
	}
	return availableSequence
}

func (s *MultiProducerSequencer) HasAvailableCapacity(n int64) bool {
	current := s.cursor.Get()
	wrapPoint := (current + n) - s.bufferSize
	cachedGating := s.gatingSequenceCache.Get()
	if wrapPoint > cachedGating || cachedGating > current {
		gatingSeq := minSequence(s.gating.get(), current)
		s.gatingSequenceCache.Set(gatingSeq)
		if wrapPoint > gatingSeq {
			return false
		}
	}
	return true
}

func (s *MultiProducerSequencer) RemainingCapacity() int64 {
	produced := s.cursor.Get()
	consumed := minSequence(s.gating.get(), produced)
	return s.bufferSize - (produced - consumed)
}

func (s *MultiProducerSequencer) GetMinimumSequence() int64 {
	return minSequence(s.gating.get(), s.cursor.Get())
}

func (s *MultiProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

func (s *MultiProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.gating.add(sequences...)
}

func (s *MultiProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gating.remove(sequence)
}

func (s *MultiProducerSequencer) Claim(seq int64) {
	s.cursor.SetVolatile(seq)
}

func (s *MultiProducerSequencer) NewBarrier(dependents ...*Sequence) SequenceBarrier {
	return newProcessingSequenceBarrier(s, s.waitStrategy, s.cursor, dependents)
}
