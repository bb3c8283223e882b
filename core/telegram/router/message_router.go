package router

import (
	tg "github.com/m3rciful/docbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions configures handlers for updates nothing else claims.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// mediaEndpoints are the non-text message kinds routed to the fallback.
var mediaEndpoints = []string{tele.OnDocument, tele.OnPhoto, tele.OnVoice}

// TextRoutes returns the text route followed by one route per media kind.
// Text matching a registered command runs that command, anything else goes to
// the registry text fallback and then UnknownText. Media tries UnknownMedia
// before the fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	fallbackFor := func() tele.HandlerFunc {
		if reg == nil {
			return nil
		}
		return reg.TextFallback()
	}

	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), run(c, cmd.Handler))
			}
		}
		if fb := fallbackFor(); fb != nil {
			return handleWithSummary(c, "fallback", run(c, fb))
		}
		return handleWithSummary(c, "unknown_text", run(c, opts.UnknownText))
	}

	media := func(c tele.Context) error {
		if opts.UnknownMedia != nil {
			return handleWithSummary(c, "unexpected_media", run(c, opts.UnknownMedia))
		}
		return handleWithSummary(c, "fallback_media", run(c, fallbackFor()))
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: guarded(text)}}
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: guarded(media)})
	}
	return routes
}
