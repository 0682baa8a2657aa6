package book

import "fmt"

// SeqSource hands out event sequence numbers. The book pulls a number
// only after a command has passed validation, so rejected commands
// never leave gaps.
type SeqSource interface {
	Next() uint64
}

// Options tune matching behavior.
type Options struct {
	// AmendIncreaseKeepsPriority keeps queue position on a same-price
	// quantity increase. The conventional venue rule is false: an
	// increase is treated as cancel+re-add and goes to the back.
	AmendIncreaseKeepsPriority bool

	// Retire, if set, receives every order that reaches a terminal
	// state (filled or canceled) so the caller can recycle it.
	Retire func(*Order)
}

// Book is the single-instrument limit order book. It is single-writer
// and deterministic: callers serialize all mutations, and identical
// command sequences produce identical state and trades.
type Book struct {
	bids  *RBTree
	asks  *RBTree
	store *Store
	opts  Options
}

func New(opts Options) *Book {
	return &Book{
		bids:  NewRBTree(),
		asks:  NewRBTree(),
		store: NewStore(),
		opts:  opts,
	}
}

func (b *Book) Store() *Store { return b.store }

// BestBid returns the highest resting bid price.
func (b *Book) BestBid() (int64, bool) {
	lvl := b.bids.MaxLevel()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting ask price.
func (b *Book) BestAsk() (int64, bool) {
	lvl := b.asks.MinLevel()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BidsWalk visits bid levels best-first (highest price first).
func (b *Book) BidsWalk(fn func(*PriceLevel) bool) {
	b.bids.ForEachDescending(fn)
}

// AsksWalk visits ask levels best-first (lowest price first).
func (b *Book) AsksWalk(fn func(*PriceLevel) bool) {
	b.asks.ForEachAscending(fn)
}

// Add validates and executes a new order. The order is matched against
// the opposing side under price-time priority; any remainder rests.
// Returns the trades produced and the assigned sequence number.
func (b *Book) Add(o *Order, seqs SeqSource) ([]Trade, uint64, error) {
	if o.Qty <= 0 || o.Price <= 0 {
		return nil, 0, fmt.Errorf("%w: qty=%d price=%d", ErrInvalidOrder, o.Qty, o.Price)
	}
	if err := b.store.Insert(o); err != nil {
		return nil, 0, err
	}

	seq := seqs.Next()
	o.Seq = seq
	o.Status = Active

	trades := b.match(o)

	if o.Remaining() > 0 {
		b.sideTree(o.Side).UpsertLevel(o.Price).Enqueue(o)
	} else {
		b.store.Remove(o.ID) //nolint:errcheck // inserted above
		b.terminate(o)
	}
	return trades, seq, nil
}

// Cancel removes a resting order. The echoed side, quantity, and
// price must match the stored order exactly; quantity is compared
// against the order's requested quantity, not the unfilled remainder.
func (b *Book) Cancel(id uint64, side Side, qty, price int64, seqs SeqSource) (uint64, error) {
	o, ok := b.store.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	if o.Side != side || o.Qty != qty || o.Price != price {
		return 0, fmt.Errorf("%w: %d", ErrInconsistentCancel, id)
	}

	seq := seqs.Next()
	b.remove(o)
	return seq, nil
}

// Amend changes an order's quantity and/or price. newQty is the new
// open quantity.
//
// Rules:
//   - same price, quantity decrease: in place, time priority kept
//   - same price, quantity increase: cancel+re-add, priority lost,
//     unless AmendIncreaseKeepsPriority is set
//   - price change: always cancel+re-add, re-enters matching
//   - newQty == 0: equivalent to cancel
func (b *Book) Amend(id uint64, side Side, newQty, newPrice int64, seqs SeqSource) ([]Trade, uint64, error) {
	o, ok := b.store.Get(id)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	if newQty < 0 || newPrice <= 0 {
		return nil, 0, fmt.Errorf("%w: qty=%d price=%d", ErrInvalidOrder, newQty, newPrice)
	}
	if o.Side != side {
		return nil, 0, fmt.Errorf("%w: side mismatch on amend of %d", ErrInvalidOrder, id)
	}

	if newQty == 0 {
		seq := seqs.Next()
		b.remove(o)
		return nil, seq, nil
	}

	delta := o.Remaining() - newQty
	inPlace := newPrice == o.Price &&
		(delta >= 0 || b.opts.AmendIncreaseKeepsPriority)

	seq := seqs.Next()

	if inPlace {
		o.level.Reduce(delta)
		o.Qty = o.Filled + newQty
		return nil, seq, nil
	}

	// Priority lost: pull from the ledger and replay as a fresh
	// incoming order at the new terms.
	b.unlink(o)
	o.Price = newPrice
	o.Qty = newQty
	o.Filled = 0
	o.Seq = seq

	trades := b.match(o)

	if o.Remaining() > 0 {
		b.sideTree(o.Side).UpsertLevel(o.Price).Enqueue(o)
	} else {
		b.store.Remove(o.ID) //nolint:errcheck // o came from the store
		b.terminate(o)
	}
	return trades, seq, nil
}

// Restore rests an order without matching. Used when rebuilding from
// a snapshot, where resting state is known to be non-crossing.
func (b *Book) Restore(o *Order) error {
	if o.Qty <= 0 || o.Price <= 0 || o.Remaining() <= 0 {
		return fmt.Errorf("%w: restore id=%d", ErrInvalidOrder, o.ID)
	}
	if err := b.store.Insert(o); err != nil {
		return err
	}
	o.Status = Active
	b.sideTree(o.Side).UpsertLevel(o.Price).Enqueue(o)
	return nil
}

// ---- matching ----

func (b *Book) match(o *Order) []Trade {
	var trades []Trade

	for o.Remaining() > 0 {
		best := b.bestOpposing(o)
		if best == nil {
			break
		}

		for o.Remaining() > 0 && !best.Empty() {
			maker := best.Head()
			qty := min(o.Remaining(), maker.Remaining())

			o.Filled += qty
			maker.Filled += qty
			best.Reduce(qty)

			trades = append(trades, Trade{
				Seq:     o.Seq,
				Price:   best.Price,
				Qty:     qty,
				MakerID: maker.ID,
				TakerID: o.ID,
			})

			if maker.Remaining() == 0 {
				best.PopHead()
				b.store.Remove(maker.ID) //nolint:errcheck // maker came from the store
				b.terminate(maker)
			}
		}

		if best.Empty() {
			b.sideTree(o.Side.Opposite()).DeleteLevel(best.Price)
		}
	}
	return trades
}

// bestOpposing returns the opposing best level if the order crosses
// it, else nil.
func (b *Book) bestOpposing(o *Order) *PriceLevel {
	if o.Side == Bid {
		best := b.asks.MinLevel()
		if best == nil || best.Price > o.Price {
			return nil
		}
		return best
	}
	best := b.bids.MaxLevel()
	if best == nil || best.Price < o.Price {
		return nil
	}
	return best
}

// ---- removal helpers ----

func (b *Book) sideTree(s Side) *RBTree {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// unlink detaches a resting order from its level, destroying the
// level if emptied. The order stays in the store.
func (b *Book) unlink(o *Order) {
	lvl := o.level
	lvl.Unlink(o)
	if lvl.Empty() {
		b.sideTree(o.Side).DeleteLevel(lvl.Price)
	}
}

// remove takes a resting order out of both store and ledger.
func (b *Book) remove(o *Order) {
	b.unlink(o)
	b.store.Remove(o.ID) //nolint:errcheck // o came from the store
	b.terminate(o)
}

func (b *Book) terminate(o *Order) {
	o.Status = Inactive
	if b.opts.Retire != nil {
		b.opts.Retire(o)
	}
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
