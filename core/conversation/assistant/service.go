// Package assistant drives one inbound chat event through the menu core:
// normalise, load the session, route, render, and hand replies to a transport.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/docbot/core/conversation/flow"
	"github.com/m3rciful/docbot/core/conversation/input"
	"github.com/m3rciful/docbot/core/conversation/menu"
	"github.com/m3rciful/docbot/core/conversation/session"
	"github.com/m3rciful/docbot/core/logger"
)

const (
	defaultMenuButtonLabel = "Open menu"
	defaultBackButtonTitle = "⬅️ Menu"
	defaultEmptyMenuText   = "Your account has no menu configured yet. Please contact the business owner."

	component = "service.assistant"
)

// MenuToken is the free-text alias of the reserved "0" selection.
const MenuToken = "menu"

// Outcome tells the caller what Handle did with the event.
type Outcome string

const (
	OutcomeMenu       Outcome = "menu"
	OutcomeReset      Outcome = "reset"
	OutcomeTransition Outcome = "transition"
	OutcomeDelegated  Outcome = "delegated"
	OutcomeEmptyMenu  Outcome = "empty_menu"
)

// RoleResolver maps a user to the catalog role they see.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (menu.Role, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, userID string) (menu.Role, error)

// ResolveRole calls f.
func (f RoleResolverFunc) ResolveRole(ctx context.Context, userID string) (menu.Role, error) {
	return f(ctx, userID)
}

// StaticRole resolves every user to the same role.
func StaticRole(role menu.Role) RoleResolver {
	return RoleResolverFunc(func(context.Context, string) (menu.Role, error) {
		return role, nil
	})
}

// StateHandler continues a conversation the menu router does not own, such as
// collecting the client name once a document draft is open. Changes made to
// s are persisted after the handler returns.
type StateHandler func(ctx context.Context, req Request, s *session.Session) error

// Request is one inbound event addressed to a session.
type Request struct {
	// Key selects the session record (business or chat identity).
	Key string
	// To is the transport recipient for replies.
	To string
	// UserID is passed to the RoleResolver.
	UserID string
	Event  input.Event
}

// Options wires the service collaborators.
type Options struct {
	Catalog   *menu.Catalog
	Sessions  session.Repository
	Router    *flow.Router
	Roles     RoleResolver
	Transport Transport

	MenuButtonLabel string
	BackButtonTitle string
	EmptyMenuText   string
}

// Service is the assistant orchestrator.
type Service struct {
	catalog   *menu.Catalog
	sessions  session.Repository
	router    *flow.Router
	roles     RoleResolver
	transport Transport

	menuButtonLabel string
	backButtonTitle string
	emptyMenuText   string

	handlersMu sync.RWMutex
	handlers   map[session.State]StateHandler
}

// New validates options and builds a Service.
func New(opts Options) (*Service, error) {
	if opts.Sessions == nil {
		return nil, errors.New("assistant: session repository is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("assistant: transport is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("assistant: role resolver is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = menu.Default()
	}
	if opts.Router == nil {
		opts.Router = flow.New()
	}
	if opts.MenuButtonLabel == "" {
		opts.MenuButtonLabel = defaultMenuButtonLabel
	}
	if opts.BackButtonTitle == "" {
		opts.BackButtonTitle = defaultBackButtonTitle
	}
	if opts.EmptyMenuText == "" {
		opts.EmptyMenuText = defaultEmptyMenuText
	}
	return &Service{
		catalog:         opts.Catalog,
		sessions:        opts.Sessions,
		router:          opts.Router,
		roles:           opts.Roles,
		transport:       opts.Transport,
		menuButtonLabel: opts.MenuButtonLabel,
		backButtonTitle: opts.BackButtonTitle,
		emptyMenuText:   opts.EmptyMenuText,
		handlers:        make(map[session.State]StateHandler),
	}, nil
}

// Sessions exposes the repository for diagnostics.
func (s *Service) Sessions() session.Repository {
	return s.sessions
}

// RegisterStateHandler associates a state with the handler that continues it.
func (s *Service) RegisterStateHandler(st session.State, h StateHandler) {
	if h == nil || st == session.StateIdle {
		return
	}
	s.handlersMu.Lock()
	s.handlers[st] = h
	s.handlersMu.Unlock()
}

func (s *Service) stateHandler(st session.State) (StateHandler, bool) {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	h, ok := s.handlers[st]
	return h, ok
}

// Handle processes a single event to completion. The caller must not run
// two Handle calls for the same Key concurrently.
func (s *Service) Handle(ctx context.Context, req Request) (Outcome, error) {
	token := input.Normalize(&req.Event)

	role, err := s.roles.ResolveRole(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	sections := s.catalog.SectionsFor(role)
	rendered := menu.Render(sections)
	if rendered.Empty() {
		logger.Warn(ctx, component, "menu.empty",
			slog.String("role", string(role)),
			slog.String("session_key", req.Key),
		)
		s.send(ctx, "send.text", func() error {
			return s.transport.SendText(ctx, req.To, s.emptyMenuText)
		})
		return OutcomeEmptyMenu, nil
	}

	sess, err := s.sessions.Get(ctx, req.Key)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	if token == menu.BackSelection || token == MenuToken {
		if err := s.sessions.Clear(ctx, req.Key); err != nil {
			return "", fmt.Errorf("reset session: %w", err)
		}
		s.sendMenu(ctx, req, rendered, sections)
		return OutcomeReset, nil
	}

	// A state with its own handler receives numbers as data; everywhere else
	// they select from the menu the user was last shown.
	action := token
	if _, owned := s.stateHandler(sess.State); !owned {
		if it, ok := rendered.Lookup(token); ok {
			action = it.ID
		}
	}

	if status, ok := s.router.Route(ctx, action, sess); ok {
		if err := s.sessions.Set(ctx, req.Key, sess); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
		logger.Info(ctx, component, "flow.transition",
			slog.String("status", "ok"),
			slog.String("session_key", req.Key),
			slog.String("role", string(role)),
			slog.String("action", action),
			slog.String("state", string(sess.State)),
			slog.String("outcome", "ok"),
			slog.String("op", status),
		)
		prompt := s.router.Prompt(sess)
		if prompt == "" {
			prompt = status
		}
		s.send(ctx, "send.buttons", func() error {
			return s.transport.SendButtons(ctx, req.To, prompt, []Button{
				{ID: menu.BackSelection, Title: s.backButtonTitle},
			})
		})
		return OutcomeTransition, nil
	}

	if !sess.Idle() {
		if h, ok := s.stateHandler(sess.State); ok {
			herr := h(ctx, req, sess)
			if err := s.sessions.Set(ctx, req.Key, sess); err != nil {
				return OutcomeDelegated, errors.Join(herr, fmt.Errorf("save session: %w", err))
			}
			return OutcomeDelegated, herr
		}
	}

	if err := s.sessions.Touch(ctx, req.Key); err != nil {
		return "", fmt.Errorf("touch session: %w", err)
	}
	s.sendMenu(ctx, req, rendered, sections)
	return OutcomeMenu, nil
}

func (s *Service) sendMenu(ctx context.Context, req Request, rendered menu.Rendered, sections []menu.Section) {
	s.send(ctx, "send.list", func() error {
		return s.transport.SendList(ctx, req.To, rendered.Text, s.menuButtonLabel, ListSections(sections))
	})
}

// send hands a message to the transport; failures are logged, never returned.
func (s *Service) send(ctx context.Context, action string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn(ctx, component, "send.handoff_failed",
			slog.String("action", action),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
