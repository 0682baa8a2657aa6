package memory

import "testing"

type obj struct{ id int }

func TestRetireRingFIFO(t *testing.T) {
	r := NewRetireRing(4)
	o1, o2 := &obj{1}, &obj{2}

	if !r.Enqueue(o1) || !r.Enqueue(o2) {
		t.Fatal("enqueue failed unexpectedly")
	}
	if r.Dequeue() != o1 {
		t.Error("expected first dequeue to be o1")
	}
	if r.Dequeue() != o2 {
		t.Error("expected second dequeue to be o2")
	}
	if r.Dequeue() != nil {
		t.Error("expected empty ring to return nil")
	}
}

func TestRetireRingFull(t *testing.T) {
	r := NewRetireRing(2)
	if !r.Enqueue(&obj{1}) || !r.Enqueue(&obj{2}) {
		t.Fatal("ring should accept up to capacity")
	}
	if r.Enqueue(&obj{3}) {
		t.Error("full ring should reject enqueue")
	}
}

func TestReclaimRespectsActiveReader(t *testing.T) {
	ring := NewRetireRing(8)
	pool := NewPool(func() *obj { return &obj{} })
	reader := &ReaderEpoch{}

	reader.Enter()
	ring.Enqueue(&obj{1})

	// Reader still inside: nothing may be reclaimed.
	AdvanceEpochAndReclaim(ring, pool, reader)
	if ring.Dequeue() == nil {
		t.Fatal("object reclaimed while reader active")
	}

	ring.Enqueue(&obj{2})
	reader.Exit()
	AdvanceEpochAndReclaim(ring, pool, reader)
	if ring.Dequeue() != nil {
		t.Error("object not reclaimed after reader exit")
	}
}
