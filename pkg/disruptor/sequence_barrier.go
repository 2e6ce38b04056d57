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
	"sync/atomic"
)

// SequenceBarrier is the read side of the handoff: it tells a consumer
// when a sequence is safe to read. "Safe" means the sequencer reports it
// published *and*, if this barrier has upstream dependents (an earlier
// consumer stage), that every dependent has also advanced past it.
type SequenceBarrier interface {
	// WaitFor blocks until the highest sequence available for
	// consumption is at least `sequence`, and returns that highest
	// sequence. It returns ErrAlerted if the barrier is alerted while
	// waiting.
	WaitFor(sequence int64) (int64, error)

	// Cursor returns the sequencer's current cursor value.
	Cursor() int64

	// Alert sets the cooperative-shutdown flag; any in-progress or
	// future WaitFor call returns ErrAlerted promptly.
	Alert()

	// ClearAlert clears the flag set by Alert.
	ClearAlert()

	// IsAlerted reports whether Alert has been called without a
	// matching ClearAlert.
	IsAlerted() bool

	// CheckAlert is a fast path for consumer loops to poll the alert
	// flag between iterations without going through WaitFor.
	CheckAlert() error
}

// processingSequenceBarrier is the Sequencer-backed SequenceBarrier
// implementation returned by Sequencer.NewBarrier. It is unexported:
// external code only ever sees the SequenceBarrier interface.
type processingSequenceBarrier struct {
	sequencer      Sequencer
	waitStrategy   WaitStrategy
	dependentSeqs  []*Sequence
	cursorSequence *Sequence
	alerted        atomic.Bool
}

func newProcessingSequenceBarrier(sequencer Sequencer, waitStrategy WaitStrategy, cursorSequence *Sequence, dependents []*Sequence) *processingSequenceBarrier {
	return &processingSequenceBarrier{
		sequencer:      sequencer,
		waitStrategy:   waitStrategy,
		dependentSeqs:  dependents,
		cursorSequence: cursorSequence,
	}
}

func (b *processingSequenceBarrier) WaitFor(sequence int64) (int64, error) {
	for {
		availableSequence, err := b.waitStrategy.WaitFor(sequence, b.cursorSequence, b.dependentSeqs, b)
		if err != nil {
			return -1, err
		}

		// The wait strategy only promises "at least `sequence`"; the
		// contiguity guarantee must still be ratified against the
		// sequencer itself, since a multi-producer sequencer can publish
		// out of order and its cursor counts claimed, not published,
		// sequences. If `sequence` itself is not yet published, wait again.
		highest := b.sequencer.GetHighestPublishedSequence(sequence, availableSequence)
		if highest >= sequence {
			return highest, nil
		}
		runtime.Gosched()
	}
}

func (b *processingSequenceBarrier) Cursor() int64 {
	return b.cursorSequence.Get()
}

func (b *processingSequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrategy.SignalAllWhenBlocking()
}

func (b *processingSequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

func (b *processingSequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

func (b *processingSequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return ErrAlerted
	}
	return nil
}
