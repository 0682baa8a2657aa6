// Package service orchestrates the core components of the matching
// engine: book, sequencer, entry WAL, outbox, snapshots, and memory
// reclamation. Engine is the only write entry point; everything that
// mutates the book goes through Process under one mutex, which is
// what makes sequencing, the WAL, and replay deterministic.
package service

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"mimir/domain/book"
	"mimir/infra/memory"
	"mimir/infra/metrics"
	"mimir/infra/outbox"
	"mimir/infra/sequence"
	"mimir/infra/wal"
	"mimir/protocol"
	"mimir/snapshot"
)

// ErrHalted is returned for every command after the engine detects a
// book invariant violation. Recovery is manual: inspect the WAL,
// fix, restart.
var ErrHalted = errors.New("engine halted: book corrupt")

// Stats mirrors the feed handler's running tallies: accepted work and
// each rejection class.
type Stats struct {
	Accepted     uint64 `json:"accepted"`
	Malformed    uint64 `json:"malformed"`
	Invalid      uint64 `json:"invalid"`
	Duplicate    uint64 `json:"duplicate"`
	Unknown      uint64 `json:"unknown"`
	Inconsistent uint64 `json:"inconsistent"`
	Trades       uint64 `json:"trades"`
	TradedQty    int64  `json:"traded_qty"`
	Prints       uint64 `json:"prints"`
}

// LastTrade aggregates consecutive executions at one price, engine
// trades and exogenous prints alike.
type LastTrade struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

type Options struct {
	AmendIncreaseKeepsPriority bool
}

type Engine struct {
	mu     sync.Mutex
	halted bool

	book   *book.Book
	seqs   *sequence.Sequencer
	wal    *wal.WAL
	box    *outbox.Outbox
	pool   *memory.Pool[book.Order]
	ring   *memory.RetireRing
	reader *snapshot.Reader
	log    *zap.Logger

	// notify fans accepted events out to in-process subscribers
	// (websocket hub). Optional and best-effort.
	notify func(protocol.Event)

	stats Stats
	last  LastTrade
}

// NewEngine wires all dependencies. wal and box may be nil for
// ephemeral engines (tests, replay tools).
func NewEngine(
	opts Options,
	seqs *sequence.Sequencer,
	w *wal.WAL,
	box *outbox.Outbox,
	pool *memory.Pool[book.Order],
	ring *memory.RetireRing,
	reader *snapshot.Reader,
	log *zap.Logger,
) *Engine {
	e := &Engine{
		seqs:   seqs,
		wal:    w,
		box:    box,
		pool:   pool,
		ring:   ring,
		reader: reader,
		log:    log,
	}
	e.book = book.New(book.Options{
		AmendIncreaseKeepsPriority: opts.AmendIncreaseKeepsPriority,
		Retire: func(o *book.Order) {
			if e.ring != nil {
				_ = e.ring.Enqueue(o)
			}
		},
	})
	return e
}

// SetNotify installs the in-process event subscriber. Safe to call
// while feed goroutines are already processing.
func (e *Engine) SetNotify(fn func(protocol.Event)) {
	e.mu.Lock()
	e.notify = fn
	e.mu.Unlock()
}

// ProcessLine parses and executes one feed line.
func (e *Engine) ProcessLine(line string) protocol.Ack {
	cmd, err := protocol.ParseLine(line)
	if err != nil {
		e.mu.Lock()
		e.stats.Malformed++
		e.mu.Unlock()
		metrics.MessagesTotal.WithLabelValues("?", "malformed").Inc()
		return protocol.Ack{Cmd: cmd, Err: err}
	}
	return e.Process(cmd)
}

// Process executes one command: validate, assign sequence, mutate the
// book, log to the entry WAL, stage outbound events. All under the
// single writer lock so sequence assignment is atomic with the state
// change.
func (e *Engine) Process(cmd protocol.Command) protocol.Ack {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return protocol.Ack{Cmd: cmd, Err: ErrHalted}
	}

	ack := e.apply(cmd)
	if ack.Err != nil {
		e.countRejection(cmd, ack.Err)
		return ack
	}

	e.stats.Accepted++
	e.stats.Trades += uint64(len(ack.Trades))
	for _, tr := range ack.Trades {
		e.stats.TradedQty += tr.Qty
		e.recordTrade(tr.Price, tr.Qty)
	}

	e.persist(cmd, ack)

	metrics.MessagesTotal.WithLabelValues(cmd.Kind.String(), "accepted").Inc()
	metrics.TradesTotal.Add(float64(len(ack.Trades)))
	for _, tr := range ack.Trades {
		metrics.TradedQtyTotal.Add(float64(tr.Qty))
	}
	metrics.RestingOrders.Set(float64(e.book.Store().Len()))

	if e.book.Crossed() {
		e.halt("crossed top of book after command")
	}
	return ack
}

func (e *Engine) apply(cmd protocol.Command) protocol.Ack {
	switch cmd.Kind {
	case protocol.KindAdd:
		o := e.newOrder(cmd)
		trades, seq, err := e.book.Add(o, e.seqs)
		if err != nil {
			e.pool.Put(o)
			return protocol.Ack{Cmd: cmd, Err: err}
		}
		return protocol.Ack{Seq: seq, Cmd: cmd, Trades: trades}

	case protocol.KindCancel:
		seq, err := e.book.Cancel(cmd.OrderID, cmd.Side, cmd.Qty, cmd.Price, e.seqs)
		return protocol.Ack{Seq: seq, Cmd: cmd, Err: err}

	case protocol.KindAmend:
		trades, seq, err := e.book.Amend(cmd.OrderID, cmd.Side, cmd.Qty, cmd.Price, e.seqs)
		return protocol.Ack{Seq: seq, Cmd: cmd, Trades: trades, Err: err}

	case protocol.KindTrade:
		// Exogenous print: sequenced and logged, book untouched.
		seq := e.seqs.Next()
		e.stats.Prints++
		e.recordTrade(cmd.Price, cmd.Qty)
		return protocol.Ack{Seq: seq, Cmd: cmd}

	default:
		return protocol.Ack{Cmd: cmd, Err: book.ErrMalformed}
	}
}

func (e *Engine) newOrder(cmd protocol.Command) *book.Order {
	o := e.pool.Get()
	*o = book.Order{
		ID:    cmd.OrderID,
		Side:  cmd.Side,
		Qty:   cmd.Qty,
		Price: cmd.Price,
	}
	return o
}

// persist writes the accepted command to the entry WAL and stages its
// events in the outbox, then notifies in-process subscribers.
func (e *Engine) persist(cmd protocol.Command, ack protocol.Ack) {
	if e.wal != nil {
		rec := wal.NewRecord(wal.TypeFor(cmd.Kind), ack.Seq, wal.EncodeCommand(cmd))
		if err := e.wal.Append(rec); err != nil {
			metrics.WALAppendErrors.Inc()
			e.log.Error("wal append failed", zap.Uint64("seq", ack.Seq), zap.Error(err))
		}
	}

	events := protocol.Events(ack)
	if len(events) == 0 {
		return
	}

	if e.box != nil {
		payloads := make([][]byte, len(events))
		for i, ev := range events {
			payloads[i], _ = json.Marshal(ev)
		}
		if err := e.box.Put(ack.Seq, payloads...); err != nil {
			e.log.Error("outbox put failed", zap.Uint64("seq", ack.Seq), zap.Error(err))
		}
	}

	if e.notify != nil {
		for _, ev := range events {
			e.notify(ev)
		}
	}
}

func (e *Engine) recordTrade(price, qty int64) {
	if price == e.last.Price {
		e.last.Qty += qty
	} else {
		e.last = LastTrade{Price: price, Qty: qty}
	}
}

func (e *Engine) countRejection(cmd protocol.Command, err error) {
	outcome := "rejected"
	switch {
	case errors.Is(err, book.ErrInvalidOrder):
		e.stats.Invalid++
		outcome = "invalid"
	case errors.Is(err, book.ErrDuplicateOrder):
		e.stats.Duplicate++
		outcome = "duplicate"
	case errors.Is(err, book.ErrUnknownOrder):
		e.stats.Unknown++
		outcome = "unknown"
	case errors.Is(err, book.ErrInconsistentCancel):
		e.stats.Inconsistent++
		outcome = "inconsistent"
	}
	metrics.MessagesTotal.WithLabelValues(cmd.Kind.String(), outcome).Inc()
	e.log.Debug("command rejected",
		zap.String("kind", cmd.Kind.String()),
		zap.Uint64("order_id", cmd.OrderID),
		zap.Error(err),
	)
}

func (e *Engine) halt(reason string) {
	e.halted = true
	e.log.Error("engine halted", zap.String("reason", reason))
}

// Halted reports whether the engine refused further commands after an
// invariant violation.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// Audit runs the full store/ledger consistency check and halts the
// engine on failure.
func (e *Engine) Audit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.book.Check(); err != nil {
		e.halt(err.Error())
		return err
	}
	return nil
}

// AdvanceEpoch reclaims retired orders that no reader can still see.
// Called periodically by a background job.
func (e *Engine) AdvanceEpoch() {
	memory.AdvanceEpochAndReclaim(e.ring, e.pool, e.reader.Epoch())
}
