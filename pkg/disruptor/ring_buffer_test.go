package disruptor

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type stringEvent struct {
	Value string
}

func stringEventFactory() stringEvent { return stringEvent{} }

func TestNewRingBuffer_RejectsNonPowerOfTwo(t *testing.T) {
	for _, size := range []int64{0, -1, 3, 6, 100} {
		_, err := NewRingBuffer(size, stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
		if !errors.Is(err, ErrInvalidBufferSize) {
			t.Fatalf("size %d: err = %v, want ErrInvalidBufferSize", size, err)
		}
	}
}

func TestNewRingBuffer_AcceptsPowerOfTwo(t *testing.T) {
	for _, size := range []int64{1, 2, 4, 8, 1024} {
		rb, err := NewRingBuffer(size, stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
		if err != nil {
			t.Fatalf("size %d: unexpected error %v", size, err)
		}
		if rb.BufferSize() != size {
			t.Fatalf("BufferSize() = %d, want %d", rb.BufferSize(), size)
		}
	}
}

func TestRingBuffer_SlotAliasing(t *testing.T) {
	rb, err := NewRingBuffer(int64(8), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	for seq := int64(0); seq < 3; seq++ {
		if rb.Get(seq) != rb.Get(seq+rb.BufferSize()) {
			t.Fatalf("Get(%d) and Get(%d) did not alias the same slot", seq, seq+rb.BufferSize())
		}
	}
}

// TestSingleProducerSingleConsumer is scenario 1 from §8: a single
// producer publishes 10 events in order and a single consumer observes
// exactly that sequence.
func TestSingleProducerSingleConsumer(t *testing.T) {
	rb, err := NewRingBuffer(int64(8), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}

	consumed := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(consumed)
	barrier := rb.NewBarrier()

	const count = 10
	results := make(chan []string, 1)
	go func() {
		var got []string
		next := int64(0)
		for len(got) < count {
			available, err := barrier.WaitFor(next)
			if err != nil {
				return
			}
			for ; next <= available; next++ {
				got = append(got, rb.Get(next).Value)
			}
			consumed.Set(available)
		}
		results <- got
	}()

	for i := 0; i < count; i++ {
		seq := rb.Next()
		rb.Get(seq).Value = fmt.Sprintf("e%d", i)
		rb.Publish(seq)
	}

	select {
	case got := <-results:
		if len(got) != count {
			t.Fatalf("got %d events, want %d", len(got), count)
		}
		for i, v := range got {
			want := fmt.Sprintf("e%d", i)
			if v != want {
				t.Fatalf("event %d = %q, want %q", i, v, want)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for consumer")
	}

	if rb.Cursor() != count-1 {
		t.Fatalf("cursor = %d, want %d", rb.Cursor(), count-1)
	}
}

// TestBackpressure is scenario 2 from §8: a small buffer with a slow
// consumer forces the producer's Next() to block until the consumer
// advances.
func TestBackpressure(t *testing.T) {
	rb, err := NewRingBuffer(int64(4), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}

	consumed := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(consumed)
	barrier := rb.NewBarrier()

	const count = 10
	done := make(chan struct{})
	go func() {
		defer close(done)
		next := int64(0)
		for next < count {
			available, err := barrier.WaitFor(next)
			if err != nil {
				return
			}
			for ; next <= available; next++ {
				_ = rb.Get(next).Value
				time.Sleep(10 * time.Millisecond)
				consumed.Set(next)
			}
		}
	}()

	start := time.Now()
	for i := 0; i < count; i++ {
		seq := rb.Next()
		rb.Get(seq).Value = fmt.Sprintf("e%d", i)
		rb.Publish(seq)
	}
	producerElapsed := time.Since(start)

	<-done
	elapsed := time.Since(start)

	// The tenth claim (sequence 9) cannot proceed until the consumer has
	// released sequence 5, i.e. after six 10ms handler sleeps.
	if producerElapsed < 50*time.Millisecond {
		t.Fatalf("producer finished in %v, want >= ~60ms (should have blocked on backpressure)", producerElapsed)
	}
	if elapsed < 90*time.Millisecond {
		t.Fatalf("run finished in %v, want >= ~90ms", elapsed)
	}
}

// TestTranslatorFailurePublishesAnyway is scenario 6 from §8: a
// translator that fails on its sixth call must still have its slot
// published, and the error must propagate to the caller.
func TestTranslatorFailurePublishesAnyway(t *testing.T) {
	rb, err := NewRingBuffer(int64(16), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("boom")
	calls := 0
	translator := func(event *stringEvent, sequence int64) error {
		calls++
		event.Value = fmt.Sprintf("e%d", sequence)
		if calls == 6 {
			return sentinel
		}
		return nil
	}

	var lastErr error
	for i := 0; i < 10; i++ {
		if err := PublishEvent(rb, translator); err != nil {
			lastErr = err
		}
	}

	if !errors.Is(lastErr, sentinel) {
		t.Fatalf("lastErr = %v, want sentinel propagated", lastErr)
	}
	if rb.Cursor() != 9 {
		t.Fatalf("cursor = %d, want 9 (ring must keep accepting publishes)", rb.Cursor())
	}
	if rb.Get(5).Value != "e5" {
		t.Fatalf("failed slot = %q, want it still mutated and published", rb.Get(5).Value)
	}
}

func TestTryNextFailsFastWhenFull(t *testing.T) {
	rb, err := NewRingBuffer(int64(2), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	consumed := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(consumed)

	seq := rb.Next()
	rb.Publish(seq)
	seq = rb.Next()
	rb.Publish(seq)

	if _, err := rb.TryNext(); !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("TryNext() err = %v, want ErrInsufficientCapacity", err)
	}
}

func TestTryPublishEventsRejectsOversizedBatch(t *testing.T) {
	rb, err := NewRingBuffer(int64(4), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := TryPublishEvents(rb, func(event *stringEvent, sequence int64) error { return nil }, 8)
	if ok || err != nil {
		t.Fatalf("TryPublishEvents(batch>bufferSize) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestRemovingGatingSequenceUnblocksProducer(t *testing.T) {
	rb, err := NewRingBuffer(int64(2), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	slow := NewSequence(InitialSequenceValue)
	rb.AddGatingSequences(slow)

	rb.Publish(rb.Next())
	rb.Publish(rb.Next())

	if rb.HasAvailableCapacity(1) {
		t.Fatal("expected no available capacity while slow consumer is stalled at -1")
	}

	rb.RemoveGatingSequence(slow)

	if !rb.HasAvailableCapacity(1) {
		t.Fatal("expected capacity to free up once the stalled gating sequence is removed")
	}
}
