package flow

import (
	"context"
	"testing"

	"github.com/m3rciful/docbot/core/conversation/menu"
	"github.com/m3rciful/docbot/core/conversation/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTransitions(t *testing.T) {
	keep := &session.Data{Temp: map[string]string{"k": "v"}}
	cases := []struct {
		action   string
		next     session.State
		wantDoc  session.DocType
		keepData bool
	}{
		{action: "invoice:new", next: session.StateChooseClient, wantDoc: session.DocInvoice},
		{action: "receipt:new", next: session.StateChooseClient, wantDoc: session.DocReceipt},
		{action: "quote:new", next: session.StateChooseClient, wantDoc: session.DocQuote},
		{action: "payment:new", next: session.StatePaymentStart, keepData: true},
		{action: "expense:new", next: session.StateExpenseAmount, keepData: true},
		{action: "reports", next: session.StateReportsMenu, keepData: true},
		{action: "upgrade", next: session.StateUpgradePackage, keepData: true},
		{action: "settings", next: session.StateSettingsMenu, keepData: true},
	}
	r := New()
	for _, tc := range cases {
		t.Run(tc.action, func(t *testing.T) {
			s := &session.Session{Data: keep}
			status, ok := r.Route(context.Background(), tc.action, s)
			require.True(t, ok)
			assert.NotEmpty(t, status)
			assert.Equal(t, tc.next, s.State)
			if tc.keepData {
				assert.Same(t, keep, s.Data)
				return
			}
			require.NotNil(t, s.Data)
			assert.Equal(t, tc.wantDoc, s.Data.DocType)
			assert.NotNil(t, s.Data.Items)
			assert.Empty(t, s.Data.Items)
			assert.Nil(t, s.Data.Temp)
		})
	}
}

func TestRouteInvoiceNew(t *testing.T) {
	s := &session.Session{}
	_, ok := New().Route(context.Background(), "invoice:new", s)
	require.True(t, ok)
	assert.Equal(t, session.State("creating_invoice_choose_client"), s.State)
	assert.Equal(t, session.DocInvoice, s.Data.DocType)
	assert.Equal(t, []session.LineItem{}, s.Data.Items)
}

func TestRouteUnknownLeavesSessionUntouched(t *testing.T) {
	r := New()
	for _, action := range []string{"", "0", "menu", "Invoice:New", "invoice:edit", "hello there"} {
		t.Run(action, func(t *testing.T) {
			s := &session.Session{
				State: session.StateExpenseAmount,
				Data:  &session.Data{Items: []session.LineItem{{Description: "logo design"}}},
			}
			before := *s
			beforeData := *s.Data

			status, ok := r.Route(context.Background(), action, s)
			assert.False(t, ok)
			assert.Empty(t, status)
			assert.Equal(t, before, *s)
			assert.Equal(t, beforeData, *s.Data)
		})
	}
}

func TestRouteNilSession(t *testing.T) {
	_, ok := New().Route(context.Background(), "reports", nil)
	assert.False(t, ok)
}

func TestDocumentIntentsShareState(t *testing.T) {
	r := New()
	states := map[session.State]int{}
	for _, a := range []string{"invoice:new", "receipt:new", "quote:new"} {
		s := &session.Session{}
		r.Route(context.Background(), a, s)
		states[s.State]++
	}
	assert.Equal(t, map[session.State]int{session.StateChooseClient: 3}, states)
}

func TestEveryCatalogItemRoutes(t *testing.T) {
	r := New()
	for _, id := range menu.Default().ItemIDs() {
		assert.True(t, r.Has(id), "catalog item %q has no transition", id)
	}
	assert.Len(t, r.Actions(), 8)
}

func TestEveryTransitionHasPrompt(t *testing.T) {
	r := New()
	for _, a := range r.Actions() {
		s := &session.Session{}
		_, ok := r.Route(context.Background(), a, s)
		require.True(t, ok)
		assert.NotEmpty(t, r.Prompt(s), a)
	}
}

func TestPromptFillsDocType(t *testing.T) {
	r := New()
	s := &session.Session{}
	r.Route(context.Background(), "receipt:new", s)
	assert.Equal(t, "Who is this receipt for? Send the client name or phone number.", r.Prompt(s))

	assert.Empty(t, r.Prompt(&session.Session{}))
	assert.Empty(t, r.Prompt(nil))
}

func TestNewWithTableCopiesInput(t *testing.T) {
	table := map[string]Transition{"x": {Next: "x_state", Status: "x"}}
	r := NewWithTable(table, nil)
	delete(table, "x")
	assert.True(t, r.Has("x"))
}
