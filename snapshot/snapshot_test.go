package snapshot

import (
	"testing"

	"mimir/domain/book"
	"mimir/infra/memory"
	"mimir/infra/sequence"
)

func newPool() *memory.Pool[book.Order] {
	return memory.NewPool(func() *book.Order { return &book.Order{} })
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	seqs := sequence.New(0)

	b := book.New(book.Options{})
	add := func(id uint64, side book.Side, qty, price int64) {
		o := &book.Order{ID: id, Side: side, Qty: qty, Price: price}
		if _, _, err := b.Add(o, seqs); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	add(1, book.Bid, 5, 900000)
	add(2, book.Bid, 3, 900000) // same level, behind id=1
	add(3, book.Bid, 7, 890000)
	add(4, book.Ask, 4, 950000)

	w := &Writer{Dir: dir}
	if err := w.Write(seqs.Current(), b); err != nil {
		t.Fatalf("write: %v", err)
	}

	restored := book.New(book.Options{})
	seq, err := Load(dir, restored, newPool())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if seq != seqs.Current() {
		t.Errorf("loaded seq = %d, want %d", seq, seqs.Current())
	}
	if err := restored.Check(); err != nil {
		t.Fatalf("restored book fails audit: %v", err)
	}

	// Same shape.
	gotBids, gotAsks := restored.Depth(0)
	wantBids, wantAsks := b.Depth(0)
	if len(gotBids) != len(wantBids) || len(gotAsks) != len(wantAsks) {
		t.Fatalf("depth mismatch: %v/%v vs %v/%v", gotBids, gotAsks, wantBids, wantAsks)
	}
	for i := range wantBids {
		if gotBids[i] != wantBids[i] {
			t.Errorf("bid level %d = %+v, want %+v", i, gotBids[i], wantBids[i])
		}
	}

	// Time priority survives: id=1 still ahead of id=2 at 90.
	o1, _ := restored.Store().Get(1)
	if o1.Level().Head() != o1 {
		t.Error("id=1 lost head position at its level")
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	b := book.New(book.Options{})
	seq, err := Load(t.TempDir(), b, newPool())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if seq != 0 {
		t.Errorf("seq = %d, want 0 for missing snapshot", seq)
	}
}
