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
	"sync"
	"time"
)

// WaitStrategy is the pluggable policy for how a consumer idles while
// waiting for a sequence to become available. Implementations must poll
// barrier.IsAlerted() on every spin/sleep iteration and return ErrAlerted
// promptly once it is set; they must never block forever once alerted.
//
// SignalAllWhenBlocking is invoked by a Sequencer on every Publish so
// that strategies parking on a condition variable wake up; it is a no-op
// for strategies that never park.
type WaitStrategy interface {
	// WaitFor blocks until a sequence satisfying the dependency graph is
	// available, then returns the highest such sequence observed. The
	// barrier is used to check IsAlerted() between iterations.
	WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier SequenceBarrier) (int64, error)

	// SignalAllWhenBlocking wakes any goroutine parked inside WaitFor.
	SignalAllWhenBlocking()
}

func waitForDependents(sequence int64, cursor *Sequence, dependents []*Sequence) int64 {
	if len(dependents) == 0 {
		return cursor.Get()
	}
	return minSequence(dependents, int64(1)<<62)
}

// BlockingWaitStrategy parks goroutines on a sync.Cond and wakes them on
// every publish. It uses the least CPU of any strategy while idle, at
// the cost of wake-up latency paid for taking and releasing a lock.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy constructs a ready-to-use BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier SequenceBarrier) (int64, error) {
	if availableSequence := cursor.Get(); availableSequence < sequence {
		w.mu.Lock()
		for cursor.Get() < sequence {
			if barrier.IsAlerted() {
				w.mu.Unlock()
				return -1, ErrAlerted
			}
			w.cond.Wait()
		}
		w.mu.Unlock()
	}

	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		availableSequence := waitForDependents(sequence, cursor, dependents)
		if availableSequence >= sequence {
			return availableSequence, nil
		}
		runtime.Gosched()
	}
}

func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

// YieldingWaitStrategy busy-spins for a fixed budget of iterations, then
// calls runtime.Gosched() between every later check. It trades a
// little more CPU than BlockingWaitStrategy for much lower wake latency.
type YieldingWaitStrategy struct {
	SpinTries int
}

// NewYieldingWaitStrategy returns a YieldingWaitStrategy with a sensible
// default spin budget.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{SpinTries: 100}
}

func (w *YieldingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier SequenceBarrier) (int64, error) {
	spins := w.SpinTries
	if spins <= 0 {
		spins = 100
	}
	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		availableSequence := waitForDependents(sequence, cursor, dependents)
		if availableSequence >= sequence {
			return availableSequence, nil
		}
		if spins > 0 {
			spins--
		} else {
			runtime.Gosched()
		}
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

// BusySpinWaitStrategy spins without ever yielding the processor. It
// offers the lowest possible wake latency at the cost of pegging a core
// for the lifetime of the wait; only appropriate when a dedicated core
// is available per consumer.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy constructs a ready-to-use BusySpinWaitStrategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

func (w *BusySpinWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier SequenceBarrier) (int64, error) {
	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		availableSequence := waitForDependents(sequence, cursor, dependents)
		if availableSequence >= sequence {
			return availableSequence, nil
		}
	}
}

func (w *BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// SleepingWaitStrategy spins briefly, then yields, then progressively
// parks for short intervals via time.Sleep. It approximates the
// behaviour of LockSupport.parkNanos without forcing the caller onto a
// condition variable, trading a small amount of latency for very low
// CPU usage under sustained idling.
type SleepingWaitStrategy struct {
	SpinTries  int
	SleepFor   time.Duration
	yieldTries int
}

// NewSleepingWaitStrategy returns a SleepingWaitStrategy with defaults
// matching common Disruptor deployments: 100 busy spins, 100 thread
// yields, then 1µs parks.
func NewSleepingWaitStrategy() *SleepingWaitStrategy {
	return &SleepingWaitStrategy{SpinTries: 100, SleepFor: time.Microsecond, yieldTries: 100}
}

func (w *SleepingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier SequenceBarrier) (int64, error) {
	spinTries := w.SpinTries
	yieldTries := w.yieldTries
	if yieldTries <= 0 {
		yieldTries = 100
	}
	sleepFor := w.SleepFor
	if sleepFor <= 0 {
		sleepFor = time.Microsecond
	}
	counter := spinTries + yieldTries

	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		availableSequence := waitForDependents(sequence, cursor, dependents)
		if availableSequence >= sequence {
			return availableSequence, nil
		}
		switch {
		case counter > yieldTries:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(sleepFor)
		}
	}
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}
