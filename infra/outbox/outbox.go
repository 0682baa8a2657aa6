// Package outbox is the durable exit path for published events. The
// engine writes every emitted event here under its sequence number;
// the broadcaster drains pending entries to Kafka and marks them
// acknowledged. Entries survive restarts, so nothing the book emitted
// is lost between the match and the wire.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one stored event with its delivery state. Idx orders the
// events emitted under a single command sequence (ack first, then
// trades).
type Entry struct {
	Seq         uint64
	Idx         uint32
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload...]
const valueHeader = 1 + 4 + 8

func encodeValue(e Entry) []byte {
	buf := make([]byte, valueHeader+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[valueHeader:], e.Payload)
	return buf
}

func decodeValue(seq uint64, idx uint32, b []byte) (Entry, error) {
	if len(b) < valueHeader {
		return Entry{}, errors.New("outbox: short value")
	}
	payload := make([]byte, len(b)-valueHeader)
	copy(payload, b[valueHeader:])
	return Entry{
		Seq:         seq,
		Idx:         idx,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability is the point
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put stores the pending events emitted under one command sequence,
// in emission order. A sync batch keeps the group atomic with respect
// to crashes.
func (o *Outbox) Put(seq uint64, payloads ...[]byte) error {
	batch := o.db.NewBatch()
	defer batch.Close()

	for i, payload := range payloads {
		err := batch.Set(keyFor(seq, uint32(i)), encodeValue(Entry{
			State:   StateNew,
			Payload: payload,
		}), nil)
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (o *Outbox) Get(seq uint64, idx uint32) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq, idx))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeValue(seq, idx, val)
}

func (o *Outbox) MarkSent(seq uint64, idx uint32) error {
	return o.markState(seq, idx, StateSent)
}

func (o *Outbox) MarkAcked(seq uint64, idx uint32) error {
	return o.markState(seq, idx, StateAcked)
}

func (o *Outbox) markState(seq uint64, idx uint32, state State) error {
	e, err := o.Get(seq, idx)
	if err != nil {
		return err
	}
	e.State = state
	if state == StateSent {
		// Retries counts delivery attempts; acking is not one.
		e.Retries++
	}
	e.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq, idx), encodeValue(e), pebble.Sync)
}

// ScanPending visits NEW and SENT entries in sequence order. SENT
// entries reappear so a crash between send and ack is retried
// (delivery is at-least-once).
func (o *Outbox) ScanPending(fn func(Entry) error) error {
	return o.scan(func(e Entry) error {
		if e.State == StateAcked {
			return nil
		}
		return fn(e)
	})
}

// TruncateAckedUpTo deletes acknowledged entries with Seq <= seq.
func (o *Outbox) TruncateAckedUpTo(seq uint64) error {
	batch := o.db.NewBatch()
	defer batch.Close()

	err := o.scan(func(e Entry) error {
		if e.State == StateAcked && e.Seq <= seq {
			return batch.Delete(keyFor(e.Seq, e.Idx), nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (o *Outbox) scan(fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, idx, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeValue(seq, idx, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "evt/"

func keyFor(seq uint64, idx uint32) []byte {
	return []byte(fmt.Sprintf("%s%020d-%04d", keyPrefix, seq, idx))
}

func parseKey(key []byte) (uint64, uint32, error) {
	var seq uint64
	var idx uint32
	_, err := fmt.Sscanf(string(key), keyPrefix+"%d-%d", &seq, &idx)
	return seq, idx, err
}
