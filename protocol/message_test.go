package protocol

import (
	"errors"
	"testing"

	"mimir/domain/book"
)

func TestParseLineAdd(t *testing.T) {
	cmd, err := ParseLine("A,100000,B,1,1075")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Command{Kind: KindAdd, OrderID: 100000, Side: book.Bid, Qty: 1, Price: 10750000}
	if cmd != want {
		t.Errorf("cmd = %+v, want %+v", cmd, want)
	}
}

func TestParseLineCancelAndAmend(t *testing.T) {
	cmd, err := ParseLine("X,100004,S,10,103.15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Kind != KindCancel || cmd.Side != book.Ask || cmd.Price != 1031500 {
		t.Errorf("cmd = %+v", cmd)
	}

	cmd, err = ParseLine("M,7,B,25,94.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Kind != KindAmend || cmd.Qty != 25 || cmd.Price != 945000 {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestParseLineTradePrint(t *testing.T) {
	cmd, err := ParseLine("T,4,1075")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Kind != KindTrade || cmd.Qty != 4 || cmd.Price != 10750000 {
		t.Errorf("cmd = %+v", cmd)
	}
	if cmd.OrderID != 0 || cmd.Side != 0 {
		t.Errorf("T must not carry id/side: %+v", cmd)
	}
}

func TestParseLineTrimsLineEndings(t *testing.T) {
	if _, err := ParseLine("A,1,B,1,10\r\n"); err != nil {
		t.Errorf("CRLF line should parse: %v", err)
	}
}

func TestParseLineMalformed(t *testing.T) {
	lines := []string{
		"",
		"A",
		"A,",
		"Q,1,B,1,10",       // unknown type
		"A,1,B,1",          // missing field
		"A,1,B,1,10,extra", // extra field
		"A,0,B,1,10",       // zero id
		"A,x,B,1,10",       // non-numeric id
		"A,1,Z,1,10",       // bad side
		"A,1,B,x,10",       // bad qty
		"A,1,B,1,ten",      // bad price
		"A,1,B,1,10.00001", // too many decimal places
		"T,4",              // T missing price
		"T,4,10,9",         // T extra field
	}
	for _, line := range lines {
		if _, err := ParseLine(line); !errors.Is(err, book.ErrMalformed) {
			t.Errorf("ParseLine(%q) err = %v, want ErrMalformed", line, err)
		}
	}
}

func TestParseLineNegativeQtyIsWellFormed(t *testing.T) {
	// Negative quantities decode fine; rejecting them is value
	// validation, which belongs to the book.
	cmd, err := ParseLine("A,1,B,-5,10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Qty != -5 {
		t.Errorf("qty = %d", cmd.Qty)
	}
}

func TestPriceRoundTrip(t *testing.T) {
	cases := map[string]int64{
		"1075":    10750000,
		"94.5":    945000,
		"103.15":  1031500,
		"0.0001":  1,
		"12.3456": 123456,
	}
	for s, ticks := range cases {
		got, err := ParsePrice(s)
		if err != nil {
			t.Errorf("ParsePrice(%q): %v", s, err)
			continue
		}
		if got != ticks {
			t.Errorf("ParsePrice(%q) = %d, want %d", s, got, ticks)
		}
	}

	if FormatPrice(945000) != "94.5" {
		t.Errorf("FormatPrice(945000) = %q", FormatPrice(945000))
	}
	if FormatPrice(10750000) != "1075" {
		t.Errorf("FormatPrice(10750000) = %q", FormatPrice(10750000))
	}
}

func TestAckString(t *testing.T) {
	a := Ack{
		Seq: 9,
		Cmd: Command{Kind: KindAdd, OrderID: 2, Side: book.Ask, Qty: 10, Price: 940000},
		Trades: []book.Trade{
			{Seq: 9, Price: 950000, Qty: 10, MakerID: 1, TakerID: 2},
		},
	}
	want := "ACK,A,2,9\nTRD,9,10,95,1,2"
	if a.String() != want {
		t.Errorf("ack = %q, want %q", a.String(), want)
	}

	rej := Ack{
		Cmd: Command{Kind: KindCancel, OrderID: 5},
		Err: book.ErrUnknownOrder,
	}
	if got := rej.String(); got != "REJ,X,5,unknown order" {
		t.Errorf("rej = %q", got)
	}
}

func TestEventsExpansion(t *testing.T) {
	a := Ack{
		Seq: 4,
		Cmd: Command{Kind: KindAdd, OrderID: 2, Side: book.Ask, Qty: 10, Price: 940000},
		Trades: []book.Trade{
			{Seq: 4, Price: 950000, Qty: 10, MakerID: 1, TakerID: 2},
		},
	}
	evs := Events(a)
	if len(evs) != 2 {
		t.Fatalf("events = %d", len(evs))
	}
	if evs[0].Type != "ack" || evs[0].OrderID != 2 || evs[0].Side != "S" {
		t.Errorf("head = %+v", evs[0])
	}
	if evs[1].Type != "trade" || evs[1].MakerID != 1 || evs[1].Price != "95" {
		t.Errorf("trade = %+v", evs[1])
	}

	pr := Ack{Seq: 5, Cmd: Command{Kind: KindTrade, Qty: 4, Price: 10750000}}
	evs = Events(pr)
	if len(evs) != 1 || evs[0].Type != "print" || evs[0].OrderID != 0 || evs[0].Side != "" {
		t.Errorf("print events = %+v", evs)
	}

	if Events(Ack{Err: book.ErrMalformed}) != nil {
		t.Error("rejections must not publish events")
	}
}
