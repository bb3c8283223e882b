// Package app wires the docbot menu assistant onto the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/docbot/core/bootstrap"
	"github.com/m3rciful/docbot/core/cmd"
	coreconfig "github.com/m3rciful/docbot/core/config"
	"github.com/m3rciful/docbot/core/conversation/assistant"
	"github.com/m3rciful/docbot/core/conversation/flow"
	"github.com/m3rciful/docbot/core/conversation/menu"
	"github.com/m3rciful/docbot/core/conversation/session"
	"github.com/m3rciful/docbot/core/logger"
	tg "github.com/m3rciful/docbot/core/telegram"
	"github.com/m3rciful/docbot/core/telegram/router"
	tgsender "github.com/m3rciful/docbot/core/telegram/sender"
)

// Options overrides infrastructure constructors, mainly for tests.
type Options struct {
	Bootstrap func(context.Context, bootstrap.Options) (*bootstrap.Result, error)
	NewBot    func(*coreconfig.Config) (*tele.Bot, error)
}

// App holds the wired assistant and its Telegram runtime pieces.
type App struct {
	cfg        *Config
	infra      *bootstrap.Result
	bot        *tele.Bot
	dispatcher *tgsender.Dispatcher
	registry   *tg.Registry

	sessions     session.Repository
	janitor      *session.Memory
	closeSession func() error

	assistant *router.Assistant
}

var _ cmd.TelegramApp = (*App)(nil)

// Bootstrap matches cmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg, Options{})
}

// New initializes infrastructure and builds the assistant.
func New(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.Run
	}
	newBot := opts.NewBot
	if newBot == nil {
		newBot = tg.NewBot
	}

	seeders := []bootstrap.Seeder{MemberSeeder(cfg.Assistant.Roles)}
	infra, err := boot(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Modules:  bootstrap.Modules{Seeders: seeders},
	})
	if err != nil {
		return nil, err
	}
	if infra == nil {
		infra = &bootstrap.Result{}
	}

	a := &App{cfg: cfg, infra: infra}
	if err := a.build(ctx, newBot); err != nil {
		if a.dispatcher != nil {
			a.dispatcher.Close()
		}
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, newBot func(*coreconfig.Config) (*tele.Bot, error)) error {
	cfg := a.cfg

	flows := flow.New()
	catalog := menu.Default()
	if cfg.Assistant.CatalogFile != "" {
		c, err := menu.Load(cfg.Assistant.CatalogFile)
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		catalog = c
	}
	if err := catalog.CheckActions(flows.Has); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if len(catalog.SectionsFor(menu.Role(cfg.Assistant.DefaultRole))) == 0 {
		logger.LogEvent(ctx, logger.SVCMembers, slog.LevelWarn, "role.unknown",
			slog.String("role", cfg.Assistant.DefaultRole),
			slog.String("cause", "assistant.default_role has no menu"),
		)
	}

	if err := a.openSessions(ctx); err != nil {
		return err
	}

	var roles assistant.RoleResolver = NewStaticRoles(cfg.Assistant.Roles, cfg.Assistant.DefaultRole)
	if a.infra.DB != nil {
		roles = NewMemberStore(a.infra.DB, cfg.Assistant.DefaultRole)
	}

	bot, err := newBot(cfg.CoreConfig())
	if err != nil {
		return err
	}
	a.bot = bot
	a.dispatcher = tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2})

	svc, err := assistant.New(assistant.Options{
		Catalog:         catalog,
		Sessions:        a.sessions,
		Router:          flows,
		Roles:           roles,
		Transport:       tg.NewTransport(bot, a.dispatcher),
		MenuButtonLabel: cfg.Assistant.MenuButtonLabel,
		BackButtonTitle: cfg.Assistant.BackButtonTitle,
		EmptyMenuText:   cfg.Assistant.EmptyMenuText,
	})
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.assistant = router.NewAssistant(svc)

	a.registry = tg.NewRegistry()
	if err := a.assistant.Register(a.registry); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := registerCommands(a.registry, a.assistant, svc); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

func (a *App) openSessions(ctx context.Context) error {
	sc := a.cfg.Session
	switch sc.Backend {
	case coreconfig.SessionBackendRedis:
		r, err := session.DialRedis(ctx, sc.RedisURL, session.RedisOptions{Prefix: sc.KeyPrefix, TTL: sc.TTL()})
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		a.sessions = r
		a.closeSession = r.Close
	default:
		m := session.NewMemory(session.MemoryOptions{TTL: sc.TTL()})
		a.sessions = m
		a.janitor = m
	}
	logger.LogEvent(ctx, logger.SVCSessions, slog.LevelInfo, "sessions.ready",
		slog.String("backend", sc.Backend),
		slog.Duration("ttl", sc.TTL()),
	)
	return nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{})...)

	var stopJanitor context.CancelFunc
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			if a.janitor != nil {
				var jctx context.Context
				jctx, stopJanitor = context.WithCancel(ctx)
				go a.janitor.RunJanitor(jctx, a.cfg.Session.SweepInterval())
			}
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			if stopJanitor != nil {
				stopJanitor()
			}
			return a.close()
		},
	}, nil
}

func (a *App) close() error {
	var firstErr error
	if a.closeSession != nil {
		if err := a.closeSession(); err != nil {
			firstErr = err
		}
		a.closeSession = nil
	}
	if a.infra != nil && a.infra.DB != nil {
		if err := a.infra.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.infra.DB = nil
	}
	return firstErr
}
