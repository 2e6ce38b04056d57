package disruptor

import "testing"

// TestMultiProducerHighestPublishedSequenceStopsAtGap exercises §4.6's
// GetHighestPublishedSequence directly: sequence 1 published out of
// order before sequence 0 must not be visible to a consumer scanning
// from 0, preserving the contiguity guarantee.
func TestMultiProducerHighestPublishedSequenceStopsAtGap(t *testing.T) {
	s := NewMultiProducerSequencer(8, NewBusySpinWaitStrategy())

	s.setAvailable(1) // publish out of order; 0 is still missing

	if got := s.GetHighestPublishedSequence(0, 1); got != -1 {
		t.Fatalf("GetHighestPublishedSequence(0, 1) = %d, want -1 (gap at 0)", got)
	}

	s.setAvailable(0)

	if got := s.GetHighestPublishedSequence(0, 1); got != 1 {
		t.Fatalf("GetHighestPublishedSequence(0, 1) = %d, want 1 once the gap fills", got)
	}
}

// TestMultiProducerStaleFlagDoesNotMatchSequenceZero covers the open
// question in §9: after a full wrap, a stale flag left over from a
// prior generation must not be mistaken for sequence 0 of the current
// generation being published.
func TestMultiProducerStaleFlagDoesNotMatchSequenceZero(t *testing.T) {
	s := NewMultiProducerSequencer(4, NewBusySpinWaitStrategy())

	if s.IsAvailable(0) {
		t.Fatal("IsAvailable(0) = true before anything was ever published")
	}

	s.setAvailable(0)
	if !s.IsAvailable(0) {
		t.Fatal("IsAvailable(0) = false immediately after publishing 0")
	}

	// Wrap around: sequence 4 reuses slot 0 with flag 1, not 0.
	s.setAvailable(4)
	if s.IsAvailable(0) {
		t.Fatal("IsAvailable(0) = true after slot 0 was overwritten by sequence 4's publish")
	}
	if !s.IsAvailable(4) {
		t.Fatal("IsAvailable(4) = false right after publishing it")
	}
}

func TestMultiProducerClaimAndGating(t *testing.T) {
	s := NewMultiProducerSequencer(8, NewBusySpinWaitStrategy())
	s.Claim(41)
	if s.Cursor() != 41 {
		t.Fatalf("Cursor() = %d after Claim(41), want 41", s.Cursor())
	}

	g := NewSequence(41)
	s.AddGatingSequences(g)
	if got := s.GetMinimumSequence(); got != 41 {
		t.Fatalf("GetMinimumSequence() = %d, want 41", got)
	}

	if !s.RemoveGatingSequence(g) {
		t.Fatal("RemoveGatingSequence returned false for a registered sequence")
	}
	if s.RemoveGatingSequence(g) {
		t.Fatal("RemoveGatingSequence returned true for an already-removed sequence")
	}
}

func TestSingleProducerTryNextInsufficientCapacity(t *testing.T) {
	s := NewSingleProducerSequencer(2, NewBusySpinWaitStrategy())
	gating := NewSequence(InitialSequenceValue)
	s.AddGatingSequences(gating)

	if _, err := s.TryNextN(2); err != nil {
		t.Fatalf("TryNextN(2) on empty buffer of size 2 = %v, want nil", err)
	}
	s.Publish(1)

	if _, err := s.TryNext(); err != ErrInsufficientCapacity {
		t.Fatalf("TryNext() on full buffer = %v, want ErrInsufficientCapacity", err)
	}

	gating.Set(0)
	if _, err := s.TryNext(); err != nil {
		t.Fatalf("TryNext() after gating consumer advanced = %v, want nil", err)
	}
}
