package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mimir/domain/book"
	"mimir/infra/memory"
	"mimir/infra/sequence"
	"mimir/infra/wal"
	"mimir/protocol"
	"mimir/snapshot"
)

func newTestEngine(t *testing.T, opts Options, w *wal.WAL) *Engine {
	t.Helper()
	pool := memory.NewPool(func() *book.Order { return &book.Order{} })
	ring := memory.NewRetireRing(1 << 10)
	return NewEngine(opts, sequence.New(0), w, nil, pool, ring, snapshot.NewReader(), zap.NewNop())
}

func TestProcessLineAddCancel(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	ack := e.ProcessLine("A,100000,B,1,1075")
	require.NoError(t, ack.Err)
	assert.Equal(t, uint64(1), ack.Seq)

	bid, ok, _, _ := e.BestBidAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10750000), bid)

	ack = e.ProcessLine("X,100000,B,1,1075")
	require.NoError(t, ack.Err)
	assert.Equal(t, uint64(2), ack.Seq)

	_, ok, _, _ = e.BestBidAsk()
	assert.False(t, ok)
}

func TestProcessLineMatching(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	require.NoError(t, e.ProcessLine("A,1,B,10,95").Err)
	ack := e.ProcessLine("A,2,S,10,94")
	require.NoError(t, ack.Err)
	require.Len(t, ack.Trades, 1)
	// Executions happen at the resting order's price.
	assert.Equal(t, int64(950000), ack.Trades[0].Price)
	assert.Equal(t, ack.Seq, ack.Trades[0].Seq)

	stats, last := e.Stats()
	assert.Equal(t, uint64(2), stats.Accepted)
	assert.Equal(t, uint64(1), stats.Trades)
	assert.Equal(t, int64(10), stats.TradedQty)
	assert.Equal(t, int64(950000), last.Price)
	assert.Equal(t, int64(10), last.Qty)
}

func TestRejectionsDoNotConsumeSequence(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	require.NoError(t, e.ProcessLine("A,1,B,10,95").Err)     // seq 1
	require.Error(t, e.ProcessLine("A,1,S,5,99").Err)        // duplicate id
	require.Error(t, e.ProcessLine("X,42,B,1,10").Err)       // unknown
	require.Error(t, e.ProcessLine("X,1,B,9,95").Err)        // inconsistent
	require.Error(t, e.ProcessLine("A,2,B,-1,95").Err)       // invalid qty
	require.Error(t, e.ProcessLine("garbage").Err)           // malformed
	ack := e.ProcessLine("A,3,B,1,90")
	require.NoError(t, ack.Err)
	assert.Equal(t, uint64(2), ack.Seq, "rejections must leave no sequence gaps")

	stats, _ := e.Stats()
	assert.Equal(t, uint64(1), stats.Duplicate)
	assert.Equal(t, uint64(1), stats.Unknown)
	assert.Equal(t, uint64(1), stats.Inconsistent)
	assert.Equal(t, uint64(1), stats.Invalid)
	assert.Equal(t, uint64(1), stats.Malformed)
}

func TestTradePrintIsSequencedButLeavesBookAlone(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	require.NoError(t, e.ProcessLine("A,1,B,10,95").Err)
	ack := e.ProcessLine("T,4,1075")
	require.NoError(t, ack.Err)
	assert.Equal(t, uint64(2), ack.Seq)
	assert.Empty(t, ack.Trades)

	bid, ok, _, _ := e.BestBidAsk()
	require.True(t, ok)
	assert.Equal(t, int64(950000), bid)

	stats, last := e.Stats()
	assert.Equal(t, uint64(1), stats.Prints)
	assert.Equal(t, int64(10750000), last.Price)

	// Same price accumulates; a new price restarts the tally.
	e.ProcessLine("T,2,1075")
	_, last = e.Stats()
	assert.Equal(t, int64(6), last.Qty)
	e.ProcessLine("T,3,1080")
	_, last = e.Stats()
	assert.Equal(t, int64(10800000), last.Price)
	assert.Equal(t, int64(3), last.Qty)
}

func TestNotifyPublishesAcceptedEventsOnly(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	var types []string
	e.SetNotify(func(ev protocol.Event) { types = append(types, ev.Type) })

	e.ProcessLine("A,1,B,10,95")
	e.ProcessLine("X,99,B,1,10") // rejected, no events
	e.ProcessLine("A,2,S,10,95")
	e.ProcessLine("T,4,95")

	assert.Equal(t, []string{"ack", "ack", "trade", "print"}, types)
}

func TestSetNotifyDuringProcessing(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	// Feed goroutines may already be running when the subscriber hook
	// is installed; the two must not race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 200; i++ {
			e.ProcessLine(fmt.Sprintf("A,%d,B,1,%d", i, i))
		}
	}()

	for i := 0; i < 50; i++ {
		e.SetNotify(func(protocol.Event) {})
	}
	<-done

	var got int
	e.SetNotify(func(protocol.Event) { got++ })
	require.NoError(t, e.ProcessLine("A,500,S,1,1000").Err)
	assert.Equal(t, 1, got, "late-installed subscriber receives subsequent events")
}

func TestOrdersView(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	e.ProcessLine("A,1,B,10,94.5")
	e.ProcessLine("A,2,S,4,96")
	e.ProcessLine("A,3,B,4,96") // fills order 2

	orders := e.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, uint64(1), orders[0].ID)
	assert.Equal(t, "94.5", orders[0].Price)
	assert.Equal(t, int64(10), orders[0].Remaining)
}

func TestRecoverReplaysWAL(t *testing.T) {
	dir := t.TempDir()
	walDir := filepath.Join(dir, "wal")
	snapDir := filepath.Join(dir, "snap")

	w, err := wal.Open(wal.Config{Dir: walDir})
	require.NoError(t, err)
	e := newTestEngine(t, Options{}, w)

	lines := []string{
		"A,1,B,10,95",
		"A,2,S,4,95", // partial fill, 6 remain on order 1
		"A,3,S,3,96",
		"M,3,S,3,95.5",
		"X,3,S,3,95.5",
		"A,4,B,2,94",
		"T,7,95",
	}
	for _, line := range lines {
		require.NoError(t, e.ProcessLine(line).Err, line)
	}
	wantBids, wantAsks := e.Depth(0)
	wantSeq := uint64(len(lines))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	// Fresh engine, same WAL: replay must rebuild identical state.
	e2 := newTestEngine(t, Options{}, nil)
	require.NoError(t, e2.Recover(snapDir, walDir))

	gotBids, gotAsks := e2.Depth(0)
	assert.Equal(t, wantBids, gotBids)
	assert.Equal(t, wantAsks, gotAsks)

	// Sequencing continues where the log left off.
	ack := e2.ProcessLine("A,9,S,1,99")
	require.NoError(t, ack.Err)
	assert.Equal(t, wantSeq+1, ack.Seq)
}

func TestRecoverFromSnapshotPlusTail(t *testing.T) {
	dir := t.TempDir()
	walDir := filepath.Join(dir, "wal")
	snapDir := filepath.Join(dir, "snap")

	w, err := wal.Open(wal.Config{Dir: walDir})
	require.NoError(t, err)
	e := newTestEngine(t, Options{}, w)

	e.ProcessLine("A,1,B,10,95")
	e.ProcessLine("A,2,S,5,97")

	// Snapshot at seq 2, then two more commands land in the WAL tail.
	sw := &snapshot.Writer{Dir: snapDir}
	require.NoError(t, sw.Write(2, e.book))

	e.ProcessLine("A,3,B,1,94")
	e.ProcessLine("X,2,S,5,97")
	wantBids, wantAsks := e.Depth(0)
	require.NoError(t, w.Close())

	e2 := newTestEngine(t, Options{}, nil)
	require.NoError(t, e2.Recover(snapDir, walDir))

	gotBids, gotAsks := e2.Depth(0)
	assert.Equal(t, wantBids, gotBids)
	assert.Equal(t, wantAsks, gotAsks)
	ack := e2.ProcessLine("A,9,S,1,99")
	assert.Equal(t, uint64(5), ack.Seq)
}

func TestHaltRefusesFurtherCommands(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)
	e.ProcessLine("A,1,B,10,95")

	e.mu.Lock()
	e.halt("test")
	e.mu.Unlock()

	ack := e.ProcessLine("A,2,S,10,94")
	assert.ErrorIs(t, ack.Err, ErrHalted)
	assert.True(t, e.Halted())
}

func TestAuditHaltsOnCorruption(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)
	e.ProcessLine("A,1,B,10,95")
	require.NoError(t, e.Audit())

	o, ok := e.book.Store().Get(1)
	require.True(t, ok)
	o.Level().Reduce(-1) // drift the aggregate behind the engine's back

	require.Error(t, e.Audit())
	assert.True(t, e.Halted())
}
