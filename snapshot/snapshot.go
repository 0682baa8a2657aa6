package snapshot

import "time"

// Snapshot is a point-in-time copy of all resting orders, sufficient
// to rebuild store and ledger exactly. Seq is the last event covered;
// WAL records at or below it can be truncated once the snapshot is on
// disk.
type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []OrderEntry
}

type OrderEntry struct {
	ID     uint64
	Side   uint8
	Price  int64
	Qty    int64
	Filled int64
	Seq    uint64
}
