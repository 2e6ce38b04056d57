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

import "errors"

// ErrInsufficientCapacity is returned by the non-blocking TryNext/
// TryPublishEvent family when claiming would have required waiting for
// gating consumers to advance.
var ErrInsufficientCapacity = errors.New("disruptor: insufficient capacity")

// ErrAlerted is returned from SequenceBarrier.WaitFor (and anything built
// on it) when the barrier is alerted while a goroutine is waiting. It is
// the cooperative-cancellation signal consumer loops check for on every
// iteration.
var ErrAlerted = errors.New("disruptor: alerted")

// ErrTimeout is returned by wait strategies that enforce a bound on how
// long they will wait for a sequence to become available.
var ErrTimeout = errors.New("disruptor: timed out waiting for sequence")

// ErrInvalidBufferSize is returned by NewRingBuffer when bufferSize is
// not a power of two, or is less than one. This is a construction-time
// failure; the caller cannot recover a usable ring buffer from it.
var ErrInvalidBufferSize = errors.New("disruptor: buffer size must be a power of two greater than zero")
