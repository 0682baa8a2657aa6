package book

import "testing"

func BenchmarkAddResting(b *testing.B) {
	bk := New(Options{})
	seqs := &countingSeq{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Spread across levels so the tree sees real churn.
		bk.Add(order(uint64(i+1), Bid, 10, int64(i%512)+1), seqs)
	}
}

func BenchmarkAddMatching(b *testing.B) {
	bk := New(Options{})
	seqs := &countingSeq{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := uint64(i*2 + 1)
		bk.Add(order(id, Bid, 10, 1000000), seqs)
		bk.Add(order(id+1, Ask, 10, 1000000), seqs)
	}
}

func BenchmarkCancel(b *testing.B) {
	bk := New(Options{})
	seqs := &countingSeq{}
	for i := 0; i < b.N; i++ {
		bk.Add(order(uint64(i+1), Bid, 10, int64(i%512)+1), seqs)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Cancel(uint64(i+1), Bid, 10, int64(i%512)+1, seqs)
	}
}

func BenchmarkAmendInPlace(b *testing.B) {
	bk := New(Options{})
	seqs := &countingSeq{}
	bk.Add(order(1, Bid, int64(b.N)+10, 1000000), seqs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Amend(1, Bid, int64(b.N-i)+9, 1000000, seqs)
	}
}
