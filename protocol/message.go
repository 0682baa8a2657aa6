// Package protocol implements the feed wire format: one command per
// line, comma-separated, as produced by the upstream generator.
//
//	A,<order_id>,<B|S>,<qty>,<price>   new order
//	X,<order_id>,<B|S>,<qty>,<price>   cancel, fields echoed for validation
//	M,<order_id>,<B|S>,<qty>,<price>   amend to the given quantity/price
//	T,<qty>,<price>                    exogenous trade print, logged only
//
// Prices travel as decimal strings and are held internally as int64
// ticks with four implied decimal places.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mimir/domain/book"
)

type Kind byte

const (
	KindAdd    Kind = 'A'
	KindCancel Kind = 'X'
	KindAmend  Kind = 'M'
	KindTrade  Kind = 'T'
)

func (k Kind) String() string { return string(byte(k)) }

// PriceScale is the number of implied decimal places in a tick price.
const PriceScale = 4

// Command is a parsed feed message. For KindTrade only Qty and Price
// are set.
type Command struct {
	Kind    Kind
	OrderID uint64
	Side    book.Side
	Qty     int64
	Price   int64
}

// ParseLine parses one feed line. Anything that cannot be decoded
// into a Command is a malformed-message rejection; field-value
// validation (positive qty/price, known ids) is the book's job.
func ParseLine(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 3 || line[1] != ',' {
		return Command{}, fmt.Errorf("%w: short line %q", book.ErrMalformed, line)
	}

	kind := Kind(line[0])
	fields := strings.Split(line[2:], ",")

	switch kind {
	case KindAdd, KindCancel, KindAmend:
		if len(fields) != 4 {
			return Command{}, fmt.Errorf("%w: %c wants 4 fields, got %d", book.ErrMalformed, kind, len(fields))
		}
		id, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil || id == 0 {
			return Command{}, fmt.Errorf("%w: bad order id %q", book.ErrMalformed, fields[0])
		}
		side, err := parseSide(fields[1])
		if err != nil {
			return Command{}, err
		}
		qty, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad qty %q", book.ErrMalformed, fields[2])
		}
		price, err := ParsePrice(fields[3])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, OrderID: id, Side: side, Qty: qty, Price: price}, nil

	case KindTrade:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: T wants 2 fields, got %d", book.ErrMalformed, len(fields))
		}
		qty, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad qty %q", book.ErrMalformed, fields[0])
		}
		price, err := ParsePrice(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindTrade, Qty: qty, Price: price}, nil

	default:
		return Command{}, fmt.Errorf("%w: unknown message type %q", book.ErrMalformed, line[0])
	}
}

// ParsePrice converts a decimal price string to ticks. Prices with
// more than PriceScale decimal places do not round; they are rejected
// as malformed.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad price %q", book.ErrMalformed, s)
	}
	ticks := d.Shift(PriceScale)
	if !ticks.IsInteger() {
		return 0, fmt.Errorf("%w: price %q exceeds %d decimal places", book.ErrMalformed, s, PriceScale)
	}
	if !ticks.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: price %q out of range", book.ErrMalformed, s)
	}
	return ticks.IntPart(), nil
}

// FormatPrice renders ticks back to the wire decimal form.
func FormatPrice(ticks int64) string {
	return decimal.New(ticks, -PriceScale).String()
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "B":
		return book.Bid, nil
	case "S":
		return book.Ask, nil
	default:
		return 0, fmt.Errorf("%w: bad side %q", book.ErrMalformed, s)
	}
}
