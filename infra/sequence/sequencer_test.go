package sequence

import "testing"

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	for want := uint64(1); want <= 100; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if s.Current() != 100 {
		t.Errorf("Current() = %d, want 100", s.Current())
	}
}

func TestSequencerResetAfterReplay(t *testing.T) {
	s := New(0)
	s.Reset(42)
	if got := s.Next(); got != 43 {
		t.Errorf("Next() after Reset(42) = %d, want 43", got)
	}
}
