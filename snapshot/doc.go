// Package snapshot persists and restores resting book state, and
// provides epoch-marked readers for consistent in-memory views.
//
// Snapshots exist to bound WAL replay time: after a snapshot at seq N
// the entry WAL can be truncated to records above N, and recovery is
// snapshot load + tail replay instead of a full-history replay.
package snapshot
