package book

// Side of the book an order rests on.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "S"
	}
	return "B"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

type Status uint8

const (
	Active Status = iota
	Inactive
)

// Order is a pure domain entity. Prices and quantities are integer
// ticks; the protocol layer owns the decimal conversion.
//
// next/prev link the order into its price level's FIFO queue. The
// level back-reference lets cancel and amend unlink in O(1) without
// a ledger lookup.
type Order struct {
	ID     uint64
	Price  int64
	Qty    int64 // requested quantity, updated by amend
	Filled int64
	Seq    uint64 // arrival sequence, FIFO tie-break within a level

	Side   Side
	Status Status

	level *PriceLevel
	next  *Order
	prev  *Order
}

// Remaining is the open quantity still resting or matchable.
func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Next walks the level queue in arrival order. Read-only.
func (o *Order) Next() *Order {
	return o.next
}

// Level returns the price level the order currently rests at,
// or nil if it is not in the ledger.
func (o *Order) Level() *PriceLevel {
	return o.level
}
