package service

import (
	"io"

	"mimir/domain/book"
	"mimir/protocol"
)

// OrderView is a copied, read-only view of one resting order.
type OrderView struct {
	ID        uint64 `json:"id"`
	Side      string `json:"side"`
	Qty       int64  `json:"qty"`
	Remaining int64  `json:"remaining"`
	Price     string `json:"price"`
	Seq       uint64 `json:"seq"`
}

// Orders returns every resting order, bids then asks, best price
// first and FIFO within a level. Values are copies; epoch marking
// keeps retired orders from being recycled mid-walk.
func (e *Engine) Orders() []OrderView {
	e.reader.Begin()
	defer e.reader.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]OrderView, 0, 1024)
	collect := func(lvl *book.PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			out = append(out, OrderView{
				ID:        o.ID,
				Side:      o.Side.String(),
				Qty:       o.Qty,
				Remaining: o.Remaining(),
				Price:     protocol.FormatPrice(o.Price),
				Seq:       o.Seq,
			})
		}
		return true
	}
	e.book.BidsWalk(collect)
	e.book.AsksWalk(collect)
	return out
}

// Depth returns aggregated levels per side, best-first.
func (e *Engine) Depth(max int) (bids, asks []book.DepthLevel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Depth(max)
}

// BestBidAsk returns the top of book; ok is false for an empty side.
func (e *Engine) BestBidAsk() (bid int64, bidOK bool, ask int64, askOK bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bid, bidOK = e.book.BestBid()
	ask, askOK = e.book.BestAsk()
	return
}

// Stats returns a copy of the running counters and last trade.
func (e *Engine) Stats() (Stats, LastTrade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats, e.last
}

// Render dumps the book in the classic text form.
func (e *Engine) Render(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book.Render(w, protocol.FormatPrice)
}
