package book

import (
	"fmt"
	"io"
)

// DepthLevel is the aggregated view of one price level.
type DepthLevel struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth returns up to max levels per side, best-first. max <= 0 means
// all levels.
func (b *Book) Depth(max int) (bids, asks []DepthLevel) {
	collect := func(out *[]DepthLevel) func(*PriceLevel) bool {
		return func(lvl *PriceLevel) bool {
			*out = append(*out, DepthLevel{
				Price:  lvl.Price,
				Qty:    lvl.TotalQty,
				Orders: lvl.OrderCount,
			})
			return max <= 0 || len(*out) < max
		}
	}
	b.BidsWalk(collect(&bids))
	b.AsksWalk(collect(&asks))
	return bids, asks
}

// Render writes a human-readable dump: asks worst-to-best on top,
// bids best-to-worst below, each level with its (id,qty) queue in
// time priority order. priceFn converts ticks for display.
func (b *Book) Render(w io.Writer, priceFn func(int64) string) {
	dumpLevel := func(lvl *PriceLevel) bool {
		fmt.Fprintf(w, "%d @ %s - [", lvl.TotalQty, priceFn(lvl.Price))
		for o := lvl.Head(); o != nil; o = o.Next() {
			fmt.Fprintf(w, "(%d,%d)", o.ID, o.Remaining())
		}
		fmt.Fprintln(w, "]")
		return true
	}

	if b.asks.Size() == 0 {
		fmt.Fprintln(w, "* EMPTY ASK *")
	} else {
		b.asks.ForEachDescending(dumpLevel) // worst ask first, best last
	}
	fmt.Fprintln(w, "-----------")
	if b.bids.Size() == 0 {
		fmt.Fprintln(w, "* EMPTY BID *")
	} else {
		b.bids.ForEachDescending(dumpLevel) // best bid first
	}
}
