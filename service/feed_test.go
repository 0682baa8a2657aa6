package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFeedAckStream(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	feed := strings.Join([]string{
		"A,1,B,10,95",
		"",
		"A,2,S,10,94",
		"X,2,S,10,94", // already filled: unknown
	}, "\n")

	var acks strings.Builder
	err := e.RunFeed(context.Background(), strings.NewReader(feed), FeedOptions{Acks: &acks})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(acks.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ACK,A,1,1", lines[0])
	assert.Equal(t, "ACK,A,2,2", lines[1])
	assert.Equal(t, "TRD,2,10,95,1,2", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "REJ,X,2,"), lines[3])
}

func TestRunFeedRendersEveryN(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)

	feed := strings.Join([]string{
		"A,1,B,10,95",
		"A,2,S,5,97",
		"A,3,B,1,94",
		"A,4,S,1,98",
	}, "\n")

	var out strings.Builder
	err := e.RunFeed(context.Background(), strings.NewReader(feed), FeedOptions{
		RenderEvery: 2,
		RenderTo:    &out,
	})
	require.NoError(t, err)

	// Two dumps, separator line in each.
	assert.Equal(t, 2, strings.Count(out.String(), "-----------"))
}

func TestRunFeedStopsWhenHalted(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)
	e.mu.Lock()
	e.halt("test")
	e.mu.Unlock()

	err := e.RunFeed(context.Background(), strings.NewReader("A,1,B,1,10\n"), FeedOptions{})
	assert.ErrorIs(t, err, ErrHalted)
}

func TestRunFeedHonorsContext(t *testing.T) {
	e := newTestEngine(t, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.RunFeed(ctx, strings.NewReader("A,1,B,1,10\n"), FeedOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
