package protocol

import (
	"fmt"
	"strings"

	"mimir/domain/book"
)

// Ack is the engine's answer to one command: the assigned sequence
// number, any trades the command produced, or the rejection.
type Ack struct {
	Seq    uint64
	Cmd    Command
	Trades []book.Trade
	Err    error
}

func (a Ack) Accepted() bool { return a.Err == nil }

// String renders the ack in the feed's text idiom, one line per
// record.
func (a Ack) String() string {
	var sb strings.Builder
	if a.Err != nil {
		fmt.Fprintf(&sb, "REJ,%s,%d,%v", a.Cmd.Kind, a.Cmd.OrderID, a.Err)
		return sb.String()
	}
	fmt.Fprintf(&sb, "ACK,%s,%d,%d", a.Cmd.Kind, a.Cmd.OrderID, a.Seq)
	for _, tr := range a.Trades {
		fmt.Fprintf(&sb, "\nTRD,%d,%d,%s,%d,%d",
			tr.Seq, tr.Qty, FormatPrice(tr.Price), tr.MakerID, tr.TakerID)
	}
	return sb.String()
}

// Event is the JSON shape published to the outbox, Kafka, and the
// websocket stream.
type Event struct {
	V       int    `json:"v"`
	Type    string `json:"type"` // ack | trade | print
	Seq     uint64 `json:"seq"`
	Kind    string `json:"kind,omitempty"`
	OrderID uint64 `json:"order_id,omitempty"`
	Side    string `json:"side,omitempty"`
	Qty     int64  `json:"qty,omitempty"`
	Price   string `json:"price,omitempty"`
	MakerID uint64 `json:"maker_id,omitempty"`
	TakerID uint64 `json:"taker_id,omitempty"`
}

// Events expands an accepted ack into its published records: one ack
// (or print) event followed by one event per trade. Rejections are
// not published; they exist only in the reply path.
func Events(a Ack) []Event {
	if a.Err != nil {
		return nil
	}

	evType := "ack"
	if a.Cmd.Kind == KindTrade {
		evType = "print"
	}

	head := Event{
		V:     1,
		Type:  evType,
		Seq:   a.Seq,
		Kind:  a.Cmd.Kind.String(),
		Qty:   a.Cmd.Qty,
		Price: FormatPrice(a.Cmd.Price),
	}
	if a.Cmd.Kind != KindTrade {
		head.OrderID = a.Cmd.OrderID
		head.Side = a.Cmd.Side.String()
	}

	out := make([]Event, 0, 1+len(a.Trades))
	out = append(out, head)
	for _, tr := range a.Trades {
		out = append(out, Event{
			V:       1,
			Type:    "trade",
			Seq:     tr.Seq,
			Qty:     tr.Qty,
			Price:   FormatPrice(tr.Price),
			MakerID: tr.MakerID,
			TakerID: tr.TakerID,
		})
	}
	return out
}
