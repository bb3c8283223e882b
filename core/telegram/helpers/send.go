// Package helpers holds per-update glue shared by middleware, routers and
// command handlers.
package helpers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/m3rciful/docbot/core/logger"
	"github.com/m3rciful/docbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue SendText uses; nil makes sends synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Deliver queues job on d. Without a dispatcher, or when its queue is full or
// closed, job.Run is called inline so the reply is never dropped.
func Deliver(ctx context.Context, d *sender.Dispatcher, job sender.Job) error {
	if d == nil {
		return job.Run()
	}
	err := d.Enqueue(ctx, job)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", job.Action),
			slog.String("err", err.Error()),
		)
		return job.Run()
	}
	return err
}

// SendText replies to the chat of c with plain text.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	ctx := BuildContext(c)
	var what []any
	withKeyboard := false
	for _, o := range opts {
		if o != nil {
			what = append(what, o)
			withKeyboard = withKeyboard || o.ReplyMarkup != nil
		}
	}
	CountReply(ctx, withKeyboard)

	var key string
	if chat := c.Chat(); chat != nil {
		key = strconv.FormatInt(chat.ID, 10)
	}
	return Deliver(ctx, dispatcher.Load(), sender.Job{
		Key:      key,
		Action:   "send.text",
		Endpoint: "sendMessage",
		Run:      func() error { return c.Send(text, what...) },
	})
}
