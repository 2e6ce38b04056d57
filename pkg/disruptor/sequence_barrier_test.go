package disruptor

import (
	"errors"
	"testing"
	"time"
)

// TestDependentConsumerNeverRunsAhead is scenario 4 from §8: consumer B
// depends on consumer A's sequence. A is delayed before advancing; B's
// WaitFor must never return a sequence beyond what A has reached.
func TestDependentConsumerNeverRunsAhead(t *testing.T) {
	rb, err := NewRingBuffer(int64(8), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}

	seqA := NewSequence(InitialSequenceValue)
	barrierA := rb.NewBarrier()

	seqB := NewSequence(InitialSequenceValue)
	barrierB := rb.NewBarrier(seqA)

	rb.AddGatingSequences(seqB)

	const count = 5
	aDone := make(chan struct{})
	bObservedBeforeA := make(chan bool, 1)

	go func() {
		defer close(aDone)
		next := int64(0)
		for next < count {
			available, err := barrierA.WaitFor(next)
			if err != nil {
				return
			}
			for ; next <= available; next++ {
				if next == 2 {
					time.Sleep(50 * time.Millisecond)
				}
				seqA.Set(next)
			}
		}
	}()

	go func() {
		next := int64(0)
		violated := false
		for next < count {
			available, err := barrierB.WaitFor(next)
			if err != nil {
				bObservedBeforeA <- violated
				return
			}
			if available > seqA.Get() {
				violated = true
			}
			for ; next <= available; next++ {
				seqB.Set(next)
			}
		}
		bObservedBeforeA <- violated
	}()

	for i := 0; i < count; i++ {
		seq := rb.Next()
		rb.Publish(seq)
	}

	select {
	case violated := <-bObservedBeforeA:
		if violated {
			t.Fatal("consumer B observed a sequence beyond what consumer A had reached")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dependent consumer")
	}
	<-aDone
}

// TestAlertInterruptsWait is scenario 5 from §8: alerting a barrier a
// consumer is blocked in must return ErrAlerted promptly.
func TestAlertInterruptsWait(t *testing.T) {
	rb, err := NewRingBuffer(int64(8), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	barrier := rb.NewBarrier()

	result := make(chan error, 1)
	go func() {
		_, err := barrier.WaitFor(100)
		result <- err
	}()

	// Give the consumer goroutine a chance to actually block before
	// alerting it.
	time.Sleep(10 * time.Millisecond)
	barrier.Alert()

	select {
	case err := <-result:
		if !errors.Is(err, ErrAlerted) {
			t.Fatalf("WaitFor returned %v, want ErrAlerted", err)
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatal("WaitFor did not return within the alert budget")
	}

	if !barrier.IsAlerted() {
		t.Fatal("IsAlerted() = false after Alert()")
	}
	barrier.ClearAlert()
	if barrier.IsAlerted() {
		t.Fatal("IsAlerted() = true after ClearAlert()")
	}
}

func TestCheckAlert(t *testing.T) {
	rb, err := NewRingBuffer(int64(4), stringEventFactory, NewBlockingWaitStrategy(), SingleProducer)
	if err != nil {
		t.Fatal(err)
	}
	barrier := rb.NewBarrier()
	if err := barrier.CheckAlert(); err != nil {
		t.Fatalf("CheckAlert() = %v before Alert(), want nil", err)
	}
	barrier.Alert()
	if err := barrier.CheckAlert(); !errors.Is(err, ErrAlerted) {
		t.Fatalf("CheckAlert() = %v after Alert(), want ErrAlerted", err)
	}
}
