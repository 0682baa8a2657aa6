package service

import (
	"fmt"

	"go.uber.org/zap"

	"mimir/infra/wal"
	"mimir/protocol"
	"mimir/snapshot"
)

// fixedSeq replays a recorded sequence number instead of drawing a
// fresh one, so rebuilt state is stamped identically.
type fixedSeq uint64

func (s fixedSeq) Next() uint64 { return uint64(s) }

// Recover rebuilds engine state before it accepts traffic: load the
// snapshot if one exists, then replay WAL records past the snapshot
// sequence through the same matching code that produced them.
// Any rejection during replay means the log and the book disagree,
// which is fatal.
func (e *Engine) Recover(snapDir, walDir string) error {
	snapSeq, err := snapshot.Load(snapDir, e.book, e.pool)
	if err != nil {
		return fmt.Errorf("snapshot load: %w", err)
	}
	e.seqs.Reset(snapSeq)

	lastSeq, err := wal.Replay(walDir, func(rec *wal.Record) error {
		if rec.Seq <= snapSeq {
			return nil
		}
		cmd, err := wal.DecodeCommand(rec.Type, rec.Data)
		if err != nil {
			return fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		if err := e.replayCommand(rec.Seq, cmd); err != nil {
			return fmt.Errorf("seq %d: replay rejected: %w", rec.Seq, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wal replay: %w", err)
	}

	if lastSeq > snapSeq {
		e.seqs.Reset(lastSeq)
	}
	if err := e.book.Check(); err != nil {
		return fmt.Errorf("post-replay audit: %w", err)
	}

	e.log.Info("recovery complete",
		zap.Uint64("snapshot_seq", snapSeq),
		zap.Uint64("last_seq", e.seqs.Current()),
		zap.Int("resting_orders", e.book.Store().Len()),
	)
	return nil
}

func (e *Engine) replayCommand(seq uint64, cmd protocol.Command) error {
	switch cmd.Kind {
	case protocol.KindAdd:
		o := e.newOrder(cmd)
		_, _, err := e.book.Add(o, fixedSeq(seq))
		if err != nil {
			e.pool.Put(o)
		}
		return err
	case protocol.KindCancel:
		_, err := e.book.Cancel(cmd.OrderID, cmd.Side, cmd.Qty, cmd.Price, fixedSeq(seq))
		return err
	case protocol.KindAmend:
		_, _, err := e.book.Amend(cmd.OrderID, cmd.Side, cmd.Qty, cmd.Price, fixedSeq(seq))
		return err
	case protocol.KindTrade:
		e.recordTrade(cmd.Price, cmd.Qty)
		return nil
	default:
		return fmt.Errorf("unknown record kind %q", cmd.Kind)
	}
}
