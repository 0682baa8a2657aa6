package book

import (
	"strconv"
	"strings"
	"testing"
)

func TestDepthAggregation(t *testing.T) {
	b, seqs := newTestBook()

	b.Add(order(1, Bid, 5, 940000), seqs)
	b.Add(order(2, Bid, 7, 940000), seqs)
	b.Add(order(3, Bid, 2, 930000), seqs)
	b.Add(order(4, Ask, 4, 950000), seqs)

	bids, asks := b.Depth(0)
	if len(bids) != 2 || len(asks) != 1 {
		t.Fatalf("depth = %d bids, %d asks", len(bids), len(asks))
	}
	if bids[0] != (DepthLevel{Price: 940000, Qty: 12, Orders: 2}) {
		t.Errorf("top bid = %+v", bids[0])
	}
	if bids[1].Price != 930000 {
		t.Error("bids should be best-first")
	}

	bids, _ = b.Depth(1)
	if len(bids) != 1 {
		t.Errorf("Depth(1) returned %d bid levels", len(bids))
	}
}

func TestRenderShape(t *testing.T) {
	b, seqs := newTestBook()
	b.Add(order(1, Bid, 10, 945000), seqs)
	b.Add(order(2, Ask, 3, 955000), seqs)
	b.Add(order(3, Ask, 3, 955000), seqs)

	var sb strings.Builder
	b.Render(&sb, func(ticks int64) string { return strconv.FormatInt(ticks, 10) })
	out := sb.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("render lines = %d:\n%s", len(lines), out)
	}
	if lines[0] != "6 @ 955000 - [(2,3)(3,3)]" {
		t.Errorf("ask line = %q", lines[0])
	}
	if lines[1] != "-----------" {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[2] != "10 @ 945000 - [(1,10)]" {
		t.Errorf("bid line = %q", lines[2])
	}
}

func TestRenderEmptySides(t *testing.T) {
	b, _ := newTestBook()
	var sb strings.Builder
	b.Render(&sb, func(ticks int64) string { return strconv.FormatInt(ticks, 10) })
	if !strings.Contains(sb.String(), "* EMPTY ASK *") || !strings.Contains(sb.String(), "* EMPTY BID *") {
		t.Errorf("empty render = %q", sb.String())
	}
}
