package helpers

import (
	"context"
	"sync/atomic"
)

type repliesKey struct{}

// replyTally counts replies issued while handling one update.
type replyTally struct {
	n        atomic.Int32
	keyboard atomic.Bool
}

// WithReplies attaches a fresh reply tally to ctx.
func WithReplies(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, repliesKey{}, &replyTally{})
}

// CountReply records one reply; it is a no-op without a tally.
func CountReply(ctx context.Context, keyboard bool) {
	if ctx == nil {
		return
	}
	t, ok := ctx.Value(repliesKey{}).(*replyTally)
	if !ok {
		return
	}
	t.n.Add(1)
	if keyboard {
		t.keyboard.Store(true)
	}
}

// RepliesFrom returns the number of replies and whether any carried a keyboard.
func RepliesFrom(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	t, ok := ctx.Value(repliesKey{}).(*replyTally)
	if !ok {
		return 0, false
	}
	return int(t.n.Load()), t.keyboard.Load()
}
