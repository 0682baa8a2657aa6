package book

// Trade is an immutable execution record. It carries the sequence
// number of the command that produced it; one aggressing command may
// produce several trades sharing a sequence.
//
// Price is always the resting (maker) order's price: price improvement
// goes to the side that was there first.
type Trade struct {
	Seq     uint64
	Price   int64
	Qty     int64
	MakerID uint64 // resting order
	TakerID uint64 // aggressor
}
