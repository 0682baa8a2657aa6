package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

type ReplayHandler func(*Record) error

// Replay streams every record in dir through fn in sequence order and
// returns the last sequence number seen. A non-monotonic sequence or
// a CRC mismatch means the log is corrupt; replay stops with an error
// since the book cannot be trusted past that point.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	paths, err := segmentPaths(dir)
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return lastSeq, err
		}

		for {
			rec, err := readRecord(f)
			if err != nil {
				if err == io.EOF {
					break
				}
				f.Close()
				return lastSeq, fmt.Errorf("wal %s: %w", path, err)
			}

			if rec.Seq <= lastSeq {
				f.Close()
				return lastSeq, fmt.Errorf("wal %s: non-monotonic seq %d after %d", path, rec.Seq, lastSeq)
			}
			lastSeq = rec.Seq

			if err := fn(rec); err != nil {
				f.Close()
				return lastSeq, err
			}
		}
		f.Close()
	}

	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	payloadLen := binary.BigEndian.Uint32(header[17:21])
	body := make([]byte, int(payloadLen)+4)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	payload := body[:payloadLen]
	crc := binary.BigEndian.Uint32(body[payloadLen:])
	if !checksumValid(append(header, payload...), crc) {
		return nil, fmt.Errorf("crc mismatch")
	}

	return &Record{
		Type: RecordType(header[0]),
		Seq:  binary.BigEndian.Uint64(header[1:9]),
		Time: int64(binary.BigEndian.Uint64(header[9:17])),
		Data: payload,
	}, nil
}
