package router

import (
	"log/slog"

	tg "github.com/m3rciful/docbot/core/telegram"
	"github.com/m3rciful/docbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound runs when neither a handler nor the registry fallback matches.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses by their unique key. Every
// callback is acknowledged first so the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handle := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		key, _ := callbacks.Parts(c)
		name := "callback." + normalizeHandlerName(key)
		attrs := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = firstHandler(reg.CallbackNotFound(), opts.NotFound)
			attrs = append(attrs, slog.String("reason", "not_found"))
		}
		return handleWithSummary(c, name, run(c, h), attrs...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: guarded(handle)}
}
