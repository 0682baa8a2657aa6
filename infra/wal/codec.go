package wal

import (
	"encoding/binary"
	"fmt"

	"mimir/domain/book"
	"mimir/protocol"
)

// Command payload layout, big-endian:
//
//	add/cancel/amend: [id:8][side:1][qty:8][price:8]
//	print:            [qty:8][price:8]

func TypeFor(k protocol.Kind) RecordType {
	switch k {
	case protocol.KindCancel:
		return RecordCancel
	case protocol.KindAmend:
		return RecordAmend
	case protocol.KindTrade:
		return RecordPrint
	default:
		return RecordAdd
	}
}

func KindFor(t RecordType) protocol.Kind {
	switch t {
	case RecordCancel:
		return protocol.KindCancel
	case RecordAmend:
		return protocol.KindAmend
	case RecordPrint:
		return protocol.KindTrade
	default:
		return protocol.KindAdd
	}
}

func EncodeCommand(cmd protocol.Command) []byte {
	if cmd.Kind == protocol.KindTrade {
		buf := make([]byte, 16)
		binary.BigEndian.PutUint64(buf[0:8], uint64(cmd.Qty))
		binary.BigEndian.PutUint64(buf[8:16], uint64(cmd.Price))
		return buf
	}

	buf := make([]byte, 25)
	binary.BigEndian.PutUint64(buf[0:8], cmd.OrderID)
	buf[8] = byte(cmd.Side)
	binary.BigEndian.PutUint64(buf[9:17], uint64(cmd.Qty))
	binary.BigEndian.PutUint64(buf[17:25], uint64(cmd.Price))
	return buf
}

func DecodeCommand(t RecordType, data []byte) (protocol.Command, error) {
	if t == RecordPrint {
		if len(data) != 16 {
			return protocol.Command{}, fmt.Errorf("print payload length %d", len(data))
		}
		return protocol.Command{
			Kind:  protocol.KindTrade,
			Qty:   int64(binary.BigEndian.Uint64(data[0:8])),
			Price: int64(binary.BigEndian.Uint64(data[8:16])),
		}, nil
	}

	if len(data) != 25 {
		return protocol.Command{}, fmt.Errorf("command payload length %d", len(data))
	}
	return protocol.Command{
		Kind:    KindFor(t),
		OrderID: binary.BigEndian.Uint64(data[0:8]),
		Side:    book.Side(data[8]),
		Qty:     int64(binary.BigEndian.Uint64(data[9:17])),
		Price:   int64(binary.BigEndian.Uint64(data[17:25])),
	}, nil
}
