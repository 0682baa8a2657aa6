// Package wal is the engine's entry log: an append-only record of
// every accepted command, in sequence order, durable enough to
// rebuild the book from empty.
//
// Frame layout, big-endian:
//
//	[type:1][seq:8][time:8][len:4][payload][crc:4]
//
// The CRC covers header+payload. Records are written in ascending
// sequence order across segment files named segment-NNNNNN.wal.
package wal

import "time"

type RecordType uint8

const (
	RecordAdd RecordType = iota
	RecordCancel
	RecordAmend
	RecordPrint
)

// Record is an immutable log entry for one accepted command.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
