package book

import "errors"

// Rejections are values returned to the command layer. They never
// partially apply: a rejected command leaves store and ledger
// untouched and consumes no sequence number.
var (
	// ErrMalformed is returned by the protocol layer for input that
	// cannot be parsed into a command.
	ErrMalformed = errors.New("malformed message")

	// ErrInvalidOrder rejects non-positive quantity or price, and
	// amends whose echoed side disagrees with the stored order.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrDuplicateOrder rejects an add reusing a live order id.
	ErrDuplicateOrder = errors.New("duplicate order id")

	// ErrUnknownOrder rejects cancel/amend of an absent id.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrInconsistentCancel rejects a cancel whose echoed side,
	// quantity, or price does not match the stored order.
	ErrInconsistentCancel = errors.New("inconsistent cancel")
)

// ErrBookCorrupt signals a detected violation of the book invariants
// (crossed top of book, store/ledger divergence). Unlike the
// rejections above it is fatal: the engine halts for manual recovery
// since the audit trail can no longer be trusted.
var ErrBookCorrupt = errors.New("book invariant violated")

// IsRejection reports whether err is a per-command rejection rather
// than a fatal engine error.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrDuplicateOrder) ||
		errors.Is(err, ErrUnknownOrder) ||
		errors.Is(err, ErrInconsistentCancel)
}
