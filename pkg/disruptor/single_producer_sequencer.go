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
	"runtime"
	"time"
)

// SingleProducerSequencer is a Sequencer specialised for exactly one
// producer goroutine. nextValue and cachedGatingSequence are ordinary
// (non-atomic) fields: they are only ever touched by the single producer
// goroutine, so they need no synchronization of their own. Only cursor,
// which consumers read concurrently, is atomic.
type SingleProducerSequencer struct {
	bufferSize   int64
	waitStrategy WaitStrategy
	gating       *gatingSequences

	cursor *Sequence

	// Producer-thread-only state; see the type doc comment.
	nextValue            int64
	cachedGatingSequence int64
}

// NewSingleProducerSequencer constructs a Sequencer for a ring buffer of
// bufferSize slots, using waitStrategy to idle when claims must wait for
// gating consumers.
func NewSingleProducerSequencer(bufferSize int64, waitStrategy WaitStrategy) *SingleProducerSequencer {
	return &SingleProducerSequencer{
		bufferSize:           bufferSize,
		waitStrategy:         waitStrategy,
		gating:               newGatingSequences(),
		cursor:               NewSequence(InitialSequenceValue),
		nextValue:            InitialSequenceValue,
		cachedGatingSequence: InitialSequenceValue,
	}
}

func (s *SingleProducerSequencer) Next() int64 {
	n, _ := s.next(1, true)
	return n
}

func (s *SingleProducerSequencer) NextN(n int64) int64 {
	v, _ := s.next(n, true)
	return v
}

func (s *SingleProducerSequencer) TryNext() (int64, error) {
	return s.next(1, false)
}

func (s *SingleProducerSequencer) TryNextN(n int64) (int64, error) {
	return s.next(n, false)
}

// next implements the §4.5 claim algorithm. When block is false it
// mirrors tryNext: it fails with ErrInsufficientCapacity instead of
// spin-parking for gating consumers to advance.
func (s *SingleProducerSequencer) next(n int64, block bool) (int64, error) {
	if n < 1 {
		panic("disruptor: n must be >= 1")
	}

	nextValue := s.nextValue
	nextSequence := nextValue + n
	wrapPoint := nextSequence - s.bufferSize
	cachedGatingSequence := s.cachedGatingSequence

	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		if !block {
			gatingSeq := minSequence(s.gating.get(), nextValue)
			if wrapPoint > gatingSeq {
				return -1, ErrInsufficientCapacity
			}
			s.cachedGatingSequence = gatingSeq
		} else {
			// Publish intent with a full fence so that any racing
			// gating read observes our claim before we spin.
			s.cursor.SetVolatile(nextValue)

			spins := 0
			for {
				gatingSeq := minSequence(s.gating.get(), nextValue)
				if wrapPoint <= gatingSeq {
					s.cachedGatingSequence = gatingSeq
					break
				}
				spins++
				if spins < 100 {
					runtime.Gosched()
				} else {
					time.Sleep(time.Nanosecond)
				}
			}
		}
	}

	s.nextValue = nextSequence
	return nextSequence, nil
}

func (s *SingleProducerSequencer) Publish(sequence int64) {
	s.cursor.Set(sequence)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *SingleProducerSequencer) PublishRange(lo, hi int64) {
	s.Publish(hi)
}

func (s *SingleProducerSequencer) IsAvailable(sequence int64) bool {
	return sequence <= s.cursor.Get()
}

func (s *SingleProducerSequencer) GetHighestPublishedSequence(nextSequence, availableSequence int64) int64 {
	// A single producer publishes strictly in order, so the cursor
	// already is the contiguous prefix; no scan is needed.
	return availableSequence
}

func (s *SingleProducerSequencer) HasAvailableCapacity(n int64) bool {
	nextValue := s.nextValue
	wrapPoint := (nextValue + n) - s.bufferSize
	cachedGatingSequence := s.cachedGatingSequence
	if wrapPoint > cachedGatingSequence || cachedGatingSequence > nextValue {
		gatingSeq := minSequence(s.gating.get(), nextValue)
		s.cachedGatingSequence = gatingSeq
		if wrapPoint > gatingSeq {
			return false
		}
	}
	return true
}

func (s *SingleProducerSequencer) RemainingCapacity() int64 {
	produced := s.nextValue
	consumed := minSequence(s.gating.get(), produced)
	return s.bufferSize - (produced - consumed)
}

func (s *SingleProducerSequencer) GetMinimumSequence() int64 {
	return minSequence(s.gating.get(), s.cursor.Get())
}

func (s *SingleProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

func (s *SingleProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.gating.add(sequences...)
}

func (s *SingleProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gating.remove(sequence)
}

func (s *SingleProducerSequencer) Claim(seq int64) {
	s.nextValue = seq
	s.cachedGatingSequence = seq
	s.cursor.SetVolatile(seq)
}

func (s *SingleProducerSequencer) NewBarrier(dependents ...*Sequence) SequenceBarrier {
	return newProcessingSequenceBarrier(s, s.waitStrategy, s.cursor, dependents)
}
