package input

import (
	"github.com/m3rciful/docbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// Callback unique keys used by the menu keyboards.
const (
	UniqueButton = "menu_btn"
	UniqueList   = "menu_list"
)

// FromTelegram converts a Telegram update into an Event.
// Button and list keyboards carry the action id as callback payload; any
// other callback is reported as a button reply with its unique key.
func FromTelegram(c tele.Context) Event {
	if c == nil {
		return Event{}
	}
	if c.Callback() != nil {
		unique, payload := callbacks.Parts(c)
		switch unique {
		case UniqueList:
			return ListEvent(payload)
		case UniqueButton:
			return ButtonEvent(payload)
		default:
			return ButtonEvent(unique)
		}
	}
	if msg := c.Message(); msg != nil && msg.Text != "" {
		return TextEvent(msg.Text)
	}
	return Event{}
}
