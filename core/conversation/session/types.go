// Package session keeps per-user conversational state between messages.
// Records are created lazily on first lookup and mutated in place by the
// menu router and by downstream conversation handlers.
package session

import (
	"context"
	"errors"
)

// State identifies a step of the menu conversation.
type State string

const (
	// StateIdle is the implicit state of a freshly created session.
	StateIdle State = ""

	StateChooseClient   State = "creating_invoice_choose_client"
	StatePaymentStart   State = "payment_start"
	StateExpenseAmount  State = "expense_amount"
	StateReportsMenu    State = "reports_menu"
	StateUpgradePackage State = "upgrade_choose_package"
	StateSettingsMenu   State = "settings_menu"
)

// DocType distinguishes the document being composed in StateChooseClient.
type DocType string

const (
	DocInvoice DocType = "invoice"
	DocReceipt DocType = "receipt"
	DocQuote   DocType = "quote"
)

// LineItem is a single row of a document draft. Values are not validated here.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Data is the state-dependent payload of a session.
type Data struct {
	DocType DocType           `json:"doc_type,omitempty"`
	Items   []LineItem        `json:"items"`
	Temp    map[string]string `json:"temp,omitempty"`
}

// Session stores conversation state and payload for one key.
type Session struct {
	State State `json:"state,omitempty"`
	Data  *Data `json:"data,omitempty"`
}

// Idle reports whether no conversation step is active.
func (s *Session) Idle() bool {
	return s == nil || s.State == StateIdle
}

// Reset returns the session to idle and drops its payload.
func (s *Session) Reset() {
	if s == nil {
		return
	}
	s.State = StateIdle
	s.Data = nil
}

// ErrNilSession is returned by Set when no record is supplied.
var ErrNilSession = errors.New("session: nil session")

// Repository is the keyed session registry shared by the router and renderer.
//
// Get lazily creates an empty record. The in-memory backend hands out the live
// record, so mutations are visible to the next Get; shared backends return a
// copy and callers persist changes with Set.
type Repository interface {
	Get(ctx context.Context, key string) (*Session, error)
	Set(ctx context.Context, key string, s *Session) error
	Clear(ctx context.Context, key string) error
	Touch(ctx context.Context, key string) error
	Count(ctx context.Context) (int, error)
}
