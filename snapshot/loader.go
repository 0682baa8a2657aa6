package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"mimir/domain/book"
	"mimir/infra/memory"
)

// Load rebuilds resting state from the snapshot in dir, if any, and
// returns the sequence it covers. Orders are rested directly, not
// matched: snapshot state is non-crossing by construction. A missing
// snapshot is not an error; the caller replays the full WAL instead.
func Load(dir string, b *book.Book, pool *memory.Pool[book.Order]) (uint64, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}

	for _, e := range s.Orders {
		o := pool.Get()
		*o = book.Order{
			ID:     e.ID,
			Side:   book.Side(e.Side),
			Price:  e.Price,
			Qty:    e.Qty,
			Filled: e.Filled,
			Seq:    e.Seq,
		}
		if err := b.Restore(o); err != nil {
			return 0, err
		}
	}

	return s.Seq, nil
}
