package disruptor

import (
	"errors"
	"testing"
	"time"
)

func testWaitStrategyWakesOnPublish(t *testing.T, ws WaitStrategy) {
	t.Helper()
	cursor := NewSequence(InitialSequenceValue)
	sequencer := &fakeSequencer{cursor: cursor}
	barrier := newProcessingSequenceBarrier(sequencer, ws, cursor, nil)

	result := make(chan int64, 1)
	go func() {
		seq, err := ws.WaitFor(0, cursor, nil, barrier)
		if err != nil {
			result <- -1
			return
		}
		result <- seq
	}()

	time.Sleep(5 * time.Millisecond)
	cursor.Set(0)
	ws.SignalAllWhenBlocking()

	select {
	case seq := <-result:
		if seq != 0 {
			t.Fatalf("WaitFor returned %d, want 0", seq)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not wake up after publish")
	}
}

func TestBlockingWaitStrategyWakesOnPublish(t *testing.T) {
	testWaitStrategyWakesOnPublish(t, NewBlockingWaitStrategy())
}

func TestYieldingWaitStrategyWakesOnPublish(t *testing.T) {
	testWaitStrategyWakesOnPublish(t, NewYieldingWaitStrategy())
}

func TestSleepingWaitStrategyWakesOnPublish(t *testing.T) {
	testWaitStrategyWakesOnPublish(t, NewSleepingWaitStrategy())
}

func TestBusySpinWaitStrategyWakesOnPublish(t *testing.T) {
	testWaitStrategyWakesOnPublish(t, &BusySpinWaitStrategy{})
}

func TestWaitStrategyRespectsAlert(t *testing.T) {
	cursor := NewSequence(InitialSequenceValue)
	sequencer := &fakeSequencer{cursor: cursor}
	ws := NewBlockingWaitStrategy()
	barrier := newProcessingSequenceBarrier(sequencer, ws, cursor, nil)
	barrier.Alert()

	_, err := ws.WaitFor(0, cursor, nil, barrier)
	if !errors.Is(err, ErrAlerted) {
		t.Fatalf("WaitFor on pre-alerted barrier = %v, want ErrAlerted", err)
	}
}

// fakeSequencer is a minimal Sequencer stub so wait-strategy tests don't
// need a full RingBuffer.
type fakeSequencer struct {
	cursor *Sequence
}

func (f *fakeSequencer) Next() int64                                             { return f.cursor.IncrementAndGet() }
func (f *fakeSequencer) NextN(n int64) int64                                     { return f.cursor.AddAndGet(n) }
func (f *fakeSequencer) TryNext() (int64, error)                                 { return f.Next(), nil }
func (f *fakeSequencer) TryNextN(n int64) (int64, error)                         { return f.NextN(n), nil }
func (f *fakeSequencer) Publish(sequence int64)                                  { f.cursor.Set(sequence) }
func (f *fakeSequencer) PublishRange(lo, hi int64)                               { f.cursor.Set(hi) }
func (f *fakeSequencer) IsAvailable(sequence int64) bool                         { return sequence <= f.cursor.Get() }
func (f *fakeSequencer) GetHighestPublishedSequence(next, available int64) int64 { return available }
func (f *fakeSequencer) HasAvailableCapacity(n int64) bool                       { return true }
func (f *fakeSequencer) RemainingCapacity() int64                                { return 0 }
func (f *fakeSequencer) GetMinimumSequence() int64                              { return f.cursor.Get() }
func (f *fakeSequencer) Cursor() int64                                           { return f.cursor.Get() }
func (f *fakeSequencer) AddGatingSequences(sequences ...*Sequence)               {}
func (f *fakeSequencer) RemoveGatingSequence(sequence *Sequence) bool            { return false }
func (f *fakeSequencer) Claim(seq int64)                                         { f.cursor.Set(seq) }
func (f *fakeSequencer) NewBarrier(dependents ...*Sequence) SequenceBarrier      { return nil }
