package router

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/docbot/core/conversation/assistant"
	"github.com/m3rciful/docbot/core/conversation/input"
	"github.com/m3rciful/docbot/core/logger"
	tg "github.com/m3rciful/docbot/core/telegram"
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the subset of *assistant.Service used by the adapter.
type Conversation interface {
	Handle(ctx context.Context, req assistant.Request) (assistant.Outcome, error)
}

// Assistant feeds Telegram updates into the conversation service, one
// update per chat at a time.
type Assistant struct {
	conv  Conversation
	locks keyedMutex
}

// NewAssistant wraps conv for use as a Telegram handler.
func NewAssistant(conv Conversation) *Assistant {
	return &Assistant{conv: conv}
}

// Register binds the menu keyboards and the text fallback to the assistant.
func (a *Assistant) Register(reg *tg.Registry) error {
	for _, key := range []string{input.UniqueButton, input.UniqueList} {
		if err := reg.RegisterCallback(key, a.Handle); err != nil {
			return err
		}
	}
	reg.SetTextFallback(a.Handle)
	return nil
}

// Handle converts the update and runs it through the conversation.
func (a *Assistant) Handle(c tele.Context) error {
	return a.run(c, input.FromTelegram(c))
}

// Reset drops the chat session and shows the menu again.
func (a *Assistant) Reset(c tele.Context) error {
	return a.run(c, input.TextEvent(assistant.MenuToken))
}

func (a *Assistant) run(c tele.Context, ev input.Event) error {
	req, ok := requestFrom(c, ev)
	if !ok {
		return nil
	}
	unlock := a.locks.lock(req.Key)
	defer unlock()

	ctx := logger.WithSessionKey(tghelpers.BuildContext(c), req.Key)
	outcome, err := a.conv.Handle(ctx, req)
	if err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCAssistant, slog.LevelDebug, "update.handled",
		slog.String("outcome", string(outcome)),
	)
	return nil
}

// requestFrom keys sessions by chat and resolves roles by sender.
func requestFrom(c tele.Context, ev input.Event) (assistant.Request, bool) {
	chat := c.Chat()
	if chat == nil {
		return assistant.Request{}, false
	}
	key := strconv.FormatInt(chat.ID, 10)
	userID := key
	if u := c.Sender(); u != nil {
		userID = strconv.FormatInt(u.ID, 10)
	}
	return assistant.Request{Key: key, To: key, UserID: userID, Event: ev}, true
}

// keyedMutex serializes work per key; idle entries are released on unlock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
