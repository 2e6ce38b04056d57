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

// EventTranslator mutates the pre-allocated slot for sequence in place.
// Arity-specialized variants (OneArg/TwoArg/ThreeArg/Vararg) exist so a
// caller can pass user arguments straight through to the translator
// without packing them into a throwaway slice or interface{} tuple on
// every publish.
type EventTranslator[T any] func(event *T, sequence int64) error

// EventTranslatorOneArg is EventTranslator with one extra user argument.
type EventTranslatorOneArg[T, A any] func(event *T, sequence int64, arg A) error

// EventTranslatorTwoArg is EventTranslator with two extra user arguments.
type EventTranslatorTwoArg[T, A, B any] func(event *T, sequence int64, arg0 A, arg1 B) error

// EventTranslatorThreeArg is EventTranslator with three extra user
// arguments.
type EventTranslatorThreeArg[T, A, B, C any] func(event *T, sequence int64, arg0 A, arg1 B, arg2 C) error

// EventTranslatorVararg is EventTranslator for callers with more than
// three arguments, or a variable number of them, at the cost of boxing
// each argument.
type EventTranslatorVararg[T any] func(event *T, sequence int64, args ...any) error

// publishGuarded runs fn and publishes seq on every exit path, including
// a panic from fn: a partially-filled slot is preferable to a
// deadlocked ring, since downstream consumers are blocked waiting for
// exactly this sequence to publish. Any error fn returns is preserved
// and returned to the caller after publication; any panic is re-raised
// after publication.
func publishGuarded[T any](r *RingBuffer[T], seq int64, fn func() error) (err error) {
	defer func() {
		r.Publish(seq)
		if rec := recover(); rec != nil {
			panic(rec)
		}
	}()
	err = fn()
	return err
}

// publishRangeGuarded is the batch form of publishGuarded: it publishes
// the whole claimed range exactly once, after fn (which should mutate
// every slot in [lo, hi]) returns or panics.
func publishRangeGuarded[T any](r *RingBuffer[T], lo, hi int64, fn func() error) (err error) {
	defer func() {
		r.PublishRange(lo, hi)
		if rec := recover(); rec != nil {
			panic(rec)
		}
	}()
	err = fn()
	return err
}

// PublishEvent claims the next sequence, hands its slot to translator,
// and publishes it, guaranteeing publication even if translator
// panics or returns an error.
func PublishEvent[T any](r *RingBuffer[T], translator EventTranslator[T]) error {
	seq := r.Next()
	return publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq) })
}

// PublishEventOneArg is PublishEvent with one extra user argument passed
// straight through to translator.
func PublishEventOneArg[T, A any](r *RingBuffer[T], translator EventTranslatorOneArg[T, A], arg A) error {
	seq := r.Next()
	return publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg) })
}

// PublishEventTwoArg is PublishEvent with two extra user arguments.
func PublishEventTwoArg[T, A, B any](r *RingBuffer[T], translator EventTranslatorTwoArg[T, A, B], arg0 A, arg1 B) error {
	seq := r.Next()
	return publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg0, arg1) })
}

// PublishEventThreeArg is PublishEvent with three extra user arguments.
func PublishEventThreeArg[T, A, B, C any](r *RingBuffer[T], translator EventTranslatorThreeArg[T, A, B, C], arg0 A, arg1 B, arg2 C) error {
	seq := r.Next()
	return publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg0, arg1, arg2) })
}

// PublishEventVararg is PublishEvent for a variable argument count.
func PublishEventVararg[T any](r *RingBuffer[T], translator EventTranslatorVararg[T], args ...any) error {
	seq := r.Next()
	return publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, args...) })
}

// TryPublishEvent is the non-blocking form of PublishEvent: it returns
// (false, ErrInsufficientCapacity) without invoking translator if the
// claim would have had to wait.
func TryPublishEvent[T any](r *RingBuffer[T], translator EventTranslator[T]) (bool, error) {
	seq, err := r.TryNext()
	if err != nil {
		return false, err
	}
	return true, publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq) })
}

// TryPublishEventOneArg is the non-blocking form of PublishEventOneArg.
func TryPublishEventOneArg[T, A any](r *RingBuffer[T], translator EventTranslatorOneArg[T, A], arg A) (bool, error) {
	seq, err := r.TryNext()
	if err != nil {
		return false, err
	}
	return true, publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg) })
}

// TryPublishEventTwoArg is the non-blocking form of PublishEventTwoArg.
func TryPublishEventTwoArg[T, A, B any](r *RingBuffer[T], translator EventTranslatorTwoArg[T, A, B], arg0 A, arg1 B) (bool, error) {
	seq, err := r.TryNext()
	if err != nil {
		return false, err
	}
	return true, publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg0, arg1) })
}

// TryPublishEventThreeArg is the non-blocking form of
// PublishEventThreeArg.
func TryPublishEventThreeArg[T, A, B, C any](r *RingBuffer[T], translator EventTranslatorThreeArg[T, A, B, C], arg0 A, arg1 B, arg2 C) (bool, error) {
	seq, err := r.TryNext()
	if err != nil {
		return false, err
	}
	return true, publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, arg0, arg1, arg2) })
}

// TryPublishEventVararg is the non-blocking form of
// PublishEventVararg.
func TryPublishEventVararg[T any](r *RingBuffer[T], translator EventTranslatorVararg[T], args ...any) (bool, error) {
	seq, err := r.TryNext()
	if err != nil {
		return false, err
	}
	return true, publishGuarded(r, seq, func() error { return translator(r.Get(seq), seq, args...) })
}

// PublishEvents claims n contiguous sequences with a single NextN and
// invokes translator once per sequence in the batch, then commits the
// whole batch with a single PublishRange, so producers pay for one
// signal instead of n. The multi-producer sequencer marks the batch's
// slots one at a time in ascending order; a consumer's barrier only ever
// reports the contiguous published prefix of it.
func PublishEvents[T any](r *RingBuffer[T], translator EventTranslator[T], n int64) error {
	hi := r.NextN(n)
	lo := hi - n + 1
	var firstErr error
	return publishRangeGuarded(r, lo, hi, func() error {
		for seq := lo; seq <= hi; seq++ {
			if err := translator(r.Get(seq), seq); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

// TryPublishEvents is the non-blocking form of PublishEvents. If n
// exceeds the ring's buffer size it returns (false, nil) immediately
// without attempting any claim, since no amount of waiting could ever
// satisfy it.
func TryPublishEvents[T any](r *RingBuffer[T], translator EventTranslator[T], n int64) (bool, error) {
	if n > r.BufferSize() {
		return false, nil
	}
	hi, err := r.TryNextN(n)
	if err != nil {
		return false, err
	}
	lo := hi - n + 1
	var firstErr error
	pubErr := publishRangeGuarded(r, lo, hi, func() error {
		for seq := lo; seq <= hi; seq++ {
			if err := translator(r.Get(seq), seq); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
	return true, pubErr
}
