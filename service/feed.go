package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// FeedOptions control the line-feed runner.
type FeedOptions struct {
	// Acks, if non-nil, receives one ACK/REJ line per command plus
	// TRD lines for executions.
	Acks io.Writer

	// RenderEvery dumps the book to Render after every N messages.
	// 0 disables rendering.
	RenderEvery int
	RenderTo    io.Writer
}

// RunFeed drives the engine from a line feed (file, stdin, pipe)
// until EOF or ctx cancellation. Per-command rejections are reported
// in the ack stream and never stop the run; only a halted engine or a
// read error does.
func (e *Engine) RunFeed(ctx context.Context, r io.Reader, opts FeedOptions) error {
	scanner := bufio.NewScanner(r)
	count := 0

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		ack := e.ProcessLine(line)
		if errors.Is(ack.Err, ErrHalted) {
			return ErrHalted
		}
		if opts.Acks != nil {
			fmt.Fprintln(opts.Acks, ack.String())
		}

		count++
		if opts.RenderEvery > 0 && opts.RenderTo != nil && count%opts.RenderEvery == 0 {
			e.Render(opts.RenderTo)
		}
	}
	return scanner.Err()
}
