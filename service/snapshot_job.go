package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mimir/snapshot"
)

// StartSnapshotJob periodically persists the book, audits it, and
// garbage-collects the entry WAL and the outbox behind the snapshot
// sequence.
func (e *Engine) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				e.snapshotOnce(w)
			}
		}
	}()
}

func (e *Engine) snapshotOnce(w *snapshot.Writer) {
	if err := e.Audit(); err != nil {
		return // Audit already halted the engine
	}

	e.mu.Lock()
	seq := e.seqs.Current()
	err := w.Write(seq, e.book)
	e.mu.Unlock()

	if err != nil {
		e.log.Error("snapshot write failed", zap.Error(err))
		return
	}

	if e.wal != nil {
		if err := e.wal.TruncateBefore(seq); err != nil {
			e.log.Warn("wal truncate failed", zap.Error(err))
		}
	}
	if e.box != nil {
		if err := e.box.TruncateAckedUpTo(seq); err != nil {
			e.log.Warn("outbox gc failed", zap.Error(err))
		}
	}

	e.log.Info("snapshot written", zap.Uint64("seq", seq))
}

// StartEpochJob periodically advances the reclamation epoch.
func (e *Engine) StartEpochJob(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				e.AdvanceEpoch()
			}
		}
	}()
}
