package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/docbot/core/conversation/assistant"
	"github.com/m3rciful/docbot/core/conversation/input"
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"
	"github.com/m3rciful/docbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/docbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const buttonsPerRow = 2

// MessageSender is the subset of *tele.Bot used for outbound messages.
type MessageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Transport delivers assistant replies as Telegram messages with inline
// keyboards. Sends are queued on the dispatcher and retried there.
type Transport struct {
	bot        MessageSender
	dispatcher *tgsender.Dispatcher
}

var _ assistant.Transport = (*Transport)(nil)

// NewTransport creates a transport; a nil dispatcher sends synchronously.
func NewTransport(bot MessageSender, dispatcher *tgsender.Dispatcher) *Transport {
	return &Transport{bot: bot, dispatcher: dispatcher}
}

// SendText sends a plain message.
func (t *Transport) SendText(ctx context.Context, to, body string) error {
	chat, err := recipient(to)
	if err != nil {
		return err
	}
	tghelpers.CountReply(ctx, false)
	return t.enqueue(ctx, to, "send.text", func() error {
		_, err := t.bot.Send(chat, body)
		return err
	})
}

// SendButtons sends body with one inline button per choice.
func (t *Transport) SendButtons(ctx context.Context, to, body string, buttons []assistant.Button) error {
	chat, err := recipient(to)
	if err != nil {
		return err
	}
	btns := make([]keyboard.Button, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.Button{Text: b.Title, Unique: input.UniqueButton, Data: b.ID})
	}
	markup := keyboard.Grid(buttonsPerRow, btns...)
	tghelpers.CountReply(ctx, true)
	return t.enqueue(ctx, to, "send.buttons", func() error {
		_, err := t.bot.Send(chat, body, &tele.SendOptions{ReplyMarkup: markup})
		return err
	})
}

// SendList sends body with every list row as an inline button, one section
// after another. Inline keyboards are always expanded, so buttonLabel has
// nothing to open and is not shown.
func (t *Transport) SendList(ctx context.Context, to, body, buttonLabel string, sections []assistant.ListSection) error {
	chat, err := recipient(to)
	if err != nil {
		return err
	}
	groups := make([]keyboard.Section, 0, len(sections))
	for _, sec := range sections {
		g := keyboard.Section{Title: sec.Title}
		for _, row := range sec.Rows {
			g.Buttons = append(g.Buttons, keyboard.Button{Text: row.Title, Unique: input.UniqueList, Data: row.ID})
		}
		groups = append(groups, g)
	}
	markup := keyboard.Sections(buttonsPerRow, groups...)
	tghelpers.CountReply(ctx, true)
	return t.enqueue(ctx, to, "send.list", func() error {
		_, err := t.bot.Send(chat, body, &tele.SendOptions{ReplyMarkup: markup})
		return err
	})
}

func (t *Transport) enqueue(ctx context.Context, to, action string, run func() error) error {
	return tghelpers.Deliver(ctx, t.dispatcher, tgsender.Job{Key: to, Action: action, Endpoint: "sendMessage", Run: run})
}

func recipient(to string) (tele.ChatID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid recipient %q: %w", to, err)
	}
	return tele.ChatID(id), nil
}
