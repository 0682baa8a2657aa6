package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"mimir/domain/book"
)

const fileName = "snapshot.bin"

type Writer struct {
	Dir string
}

// Write dumps every resting order, preserving arrival sequence so the
// rebuilt levels keep time priority. Written to a temp file and
// renamed so a crash mid-write never clobbers the previous snapshot.
func (w *Writer) Write(seq uint64, b *book.Book) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, 1024),
	}

	collect := func(lvl *book.PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			s.Orders = append(s.Orders, OrderEntry{
				ID:     o.ID,
				Side:   uint8(o.Side),
				Price:  o.Price,
				Qty:    o.Qty,
				Filled: o.Filled,
				Seq:    o.Seq,
			})
		}
		return true
	}
	b.BidsWalk(collect)
	b.AsksWalk(collect)

	tmp := filepath.Join(w.Dir, fileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, fileName))
}
