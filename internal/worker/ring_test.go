package worker

import "testing"

func TestRing_LatestWins(t *testing.T) {
	r := NewRing()
	if got := r.Latest(); got != nil {
		t.Fatalf("empty ring returned %v", got)
	}

	for i := 1; i <= 5; i++ {
		r.Publish(&StateSnapshot{Step: uint64(i)})
	}
	if r.Len() != 3 {
		t.Errorf("len = %d, want 3", r.Len())
	}
	if r.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", r.Dropped())
	}

	s := r.Latest()
	if s == nil || s.Step != 5 {
		t.Fatalf("latest = %+v, want step 5", s)
	}
	if r.Len() != 0 {
		t.Errorf("ring not drained: len %d", r.Len())
	}
	if got := r.Latest(); got != nil {
		t.Errorf("drained ring returned %v", got)
	}
}

func TestRing_PublishAfterDrain(t *testing.T) {
	r := NewRing()
	r.Publish(&StateSnapshot{Step: 1})
	r.Latest()
	r.Publish(&StateSnapshot{Step: 2})

	s := r.Latest()
	if s == nil || s.Step != 2 {
		t.Fatalf("latest = %+v, want step 2", s)
	}
}
