package book

import (
	"errors"
	"testing"
)

func TestStoreInsertGetRemove(t *testing.T) {
	s := NewStore()

	o := order(1, Bid, 5, 100)
	if err := s.Insert(o); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got, ok := s.Get(1); !ok || got != o {
		t.Error("Get should return the inserted order")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}

	removed, err := s.Remove(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != o {
		t.Error("Remove should return the evicted order")
	}
	if _, ok := s.Get(1); ok {
		t.Error("removed order still present")
	}
}

func TestStoreDuplicateInsert(t *testing.T) {
	s := NewStore()
	s.Insert(order(1, Bid, 5, 100))

	err := s.Insert(order(1, Ask, 9, 200))
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("err = %v, want ErrDuplicateOrder", err)
	}
	if o, _ := s.Get(1); o.Side != Bid {
		t.Error("duplicate insert must not overwrite")
	}
}

func TestStoreRemoveUnknown(t *testing.T) {
	s := NewStore()
	if _, err := s.Remove(42); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("err = %v, want ErrUnknownOrder", err)
	}
}

func TestStoreForEach(t *testing.T) {
	s := NewStore()
	for id := uint64(1); id <= 5; id++ {
		s.Insert(order(id, Bid, 1, int64(id)*10))
	}
	seen := map[uint64]bool{}
	s.ForEach(func(o *Order) {
		seen[o.ID] = true
	})
	if len(seen) != 5 {
		t.Errorf("visited %d orders, want 5", len(seen))
	}
}
