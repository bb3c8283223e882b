package middleware

import (
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ReplyMetricsMiddleware attaches a reply tally to the update context so the
// handler summary can report how many replies were sent and whether any
// carried a keyboard.
func ReplyMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.StoreContext(c, tghelpers.WithReplies(tghelpers.BuildContext(c)))
		return next(c)
	}
}
