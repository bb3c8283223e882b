package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/docbot/core/conversation/assistant"
	"github.com/m3rciful/docbot/core/conversation/session"
	"github.com/m3rciful/docbot/core/logger"
	tg "github.com/m3rciful/docbot/core/telegram"
	"github.com/m3rciful/docbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"
	"github.com/m3rciful/docbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

func registerCommands(reg *tg.Registry, a *router.Assistant, svc *assistant.Service) error {
	reset := []struct{ name, desc string }{
		{"/start", "Start and show the menu"},
		{"/menu", "Show the menu"},
		{"/cancel", "Cancel the current step"},
	}
	var errs []error
	for _, c := range reset {
		errs = append(errs, reg.RegisterCommand(c.name, commands.Command{Handler: a.Reset, Description: c.desc}))
	}
	errs = append(errs, reg.RegisterCommand("/sessions", commands.Command{
		Handler:     sessionsHandler(svc.Sessions()),
		Description: "Live conversation count",
		AdminOnly:   true,
	}))
	return errors.Join(errs...)
}

func sessionsHandler(sessions session.Repository) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		n, err := sessions.Count(ctx)
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		logger.LogEvent(ctx, logger.SVCSessions, slog.LevelInfo, "session.count",
			slog.String("status", "ok"),
			slog.Int("sessions", n),
		)
		return tghelpers.SendText(c, fmt.Sprintf("Live sessions: %d", n))
	}
}
