// Package flow decides which conversation state a menu selection leads to.
package flow

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/docbot/core/conversation/session"
	"github.com/m3rciful/docbot/core/logger"
)

// Transition describes what a single action token does to a session.
// A nil Build leaves Session.Data untouched.
type Transition struct {
	Next   session.State
	Build  func(prev *session.Data) *session.Data
	Status string
}

// Router is a table-driven state machine keyed by action token.
type Router struct {
	transitions map[string]Transition
	prompts     map[session.State]string
}

// startDocument opens a fresh draft of the given type. Every document type
// shares the choose-client step that follows.
func startDocument(t session.DocType) func(*session.Data) *session.Data {
	return func(*session.Data) *session.Data {
		return &session.Data{DocType: t, Items: []session.LineItem{}}
	}
}

// DefaultTransitions is the menu transition table.
func DefaultTransitions() map[string]Transition {
	return map[string]Transition{
		"invoice:new": {Next: session.StateChooseClient, Build: startDocument(session.DocInvoice), Status: "creating invoice"},
		"receipt:new": {Next: session.StateChooseClient, Build: startDocument(session.DocReceipt), Status: "creating receipt"},
		"quote:new":   {Next: session.StateChooseClient, Build: startDocument(session.DocQuote), Status: "creating quote"},
		"payment:new": {Next: session.StatePaymentStart, Status: "recording payment"},
		"expense:new": {Next: session.StateExpenseAmount, Status: "recording expense"},
		"reports":     {Next: session.StateReportsMenu, Status: "opening reports"},
		"upgrade":     {Next: session.StateUpgradePackage, Status: "choosing upgrade package"},
		"settings":    {Next: session.StateSettingsMenu, Status: "opening settings"},
	}
}

// DefaultPrompts are the messages shown when a state is entered.
func DefaultPrompts() map[session.State]string {
	return map[session.State]string{
		session.StateChooseClient:   "Who is this %s for? Send the client name or phone number.",
		session.StatePaymentStart:   "Which invoice is this payment for? Send the invoice number.",
		session.StateExpenseAmount:  "How much did you spend? Send the amount.",
		session.StateReportsMenu:    "Which report would you like? Reply with today, week or month.",
		session.StateUpgradePackage: "Choose a package: basic or pro.",
		session.StateSettingsMenu:   "Settings: reply with business name, currency or logo.",
	}
}

// New builds a router over the default table.
func New() *Router {
	return NewWithTable(DefaultTransitions(), DefaultPrompts())
}

// NewWithTable builds a router over a custom table; the maps are copied.
func NewWithTable(transitions map[string]Transition, prompts map[session.State]string) *Router {
	r := &Router{
		transitions: make(map[string]Transition, len(transitions)),
		prompts:     make(map[session.State]string, len(prompts)),
	}
	for k, v := range transitions {
		r.transitions[k] = v
	}
	for k, v := range prompts {
		r.prompts[k] = v
	}
	return r
}

// Route applies the transition registered for action to s.
// It reports false and leaves s untouched when action matches nothing.
func (r *Router) Route(ctx context.Context, action string, s *session.Session) (string, bool) {
	t, ok := r.transitions[action]
	if !ok || s == nil {
		logger.Debug(ctx, "service.assistant", "flow.no_match",
			slog.String("action", logger.SanitizeLimit(action, 64)),
		)
		return "", false
	}

	prev := s.State
	s.State = t.Next
	if t.Build != nil {
		s.Data = t.Build(s.Data)
	}
	logger.Debug(ctx, "service.assistant", "flow.transition",
		slog.String("action", action),
		slog.String("prev_state", string(prev)),
		slog.String("state", string(t.Next)),
	)
	return t.Status, true
}

// Has reports whether action is part of the transition table.
func (r *Router) Has(action string) bool {
	_, ok := r.transitions[action]
	return ok
}

// Actions lists the table's action tokens in sorted order.
func (r *Router) Actions() []string {
	out := make([]string, 0, len(r.transitions))
	for k := range r.transitions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Prompt returns the message for the session's current state. A %s in the
// template is filled with the draft's document type.
func (r *Router) Prompt(s *session.Session) string {
	if s == nil {
		return ""
	}
	tmpl, ok := r.prompts[s.State]
	if !ok {
		return ""
	}
	docType := "document"
	if s.Data != nil && s.Data.DocType != "" {
		docType = string(s.Data.DocType)
	}
	return strings.ReplaceAll(tmpl, "%s", docType)
}
