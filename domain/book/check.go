package book

import "fmt"

// Crossed reports whether the top of book is crossed or locked
// (best bid >= best ask). A crossed top after matching means the
// engine itself is broken; callers treat it as fatal.
func (b *Book) Crossed() bool {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	return okB && okA && bid >= ask
}

// Check fully audits store/ledger agreement:
//   - top of book not crossed
//   - no empty levels in either tree
//   - per-level TotalQty equals the sum of queued remainders
//   - every queued order is live in the store with matching side/price
//   - every stored order is queued exactly once
//
// It is O(book) and meant for snapshots and tests, not the hot path.
func (b *Book) Check() error {
	if b.Crossed() {
		bid, _ := b.BestBid()
		ask, _ := b.BestAsk()
		return fmt.Errorf("%w: crossed top bid=%d ask=%d", ErrBookCorrupt, bid, ask)
	}

	queued := 0
	var err error

	audit := func(side Side) func(*PriceLevel) bool {
		return func(lvl *PriceLevel) bool {
			if lvl.Empty() {
				err = fmt.Errorf("%w: empty level %d on %s", ErrBookCorrupt, lvl.Price, side)
				return false
			}
			var sum int64
			count := 0
			for o := lvl.Head(); o != nil; o = o.Next() {
				stored, ok := b.store.Get(o.ID)
				if !ok || stored != o {
					err = fmt.Errorf("%w: order %d queued but not stored", ErrBookCorrupt, o.ID)
					return false
				}
				if o.Side != side || o.Price != lvl.Price {
					err = fmt.Errorf("%w: order %d disagrees with level %d/%s",
						ErrBookCorrupt, o.ID, lvl.Price, side)
					return false
				}
				sum += o.Remaining()
				count++
			}
			if sum != lvl.TotalQty || count != lvl.OrderCount {
				err = fmt.Errorf("%w: level %d/%s qty=%d(count=%d) want qty=%d(count=%d)",
					ErrBookCorrupt, lvl.Price, side, lvl.TotalQty, lvl.OrderCount, sum, count)
				return false
			}
			queued += count
			return true
		}
	}

	b.BidsWalk(audit(Bid))
	if err != nil {
		return err
	}
	b.AsksWalk(audit(Ask))
	if err != nil {
		return err
	}

	if queued != b.store.Len() {
		return fmt.Errorf("%w: %d orders queued, %d stored", ErrBookCorrupt, queued, b.store.Len())
	}
	return nil
}
