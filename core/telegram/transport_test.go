package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/docbot/core/conversation/assistant"
	tgsender "github.com/m3rciful/docbot/core/telegram/sender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type sent struct {
	to     tele.Recipient
	what   interface{}
	markup *tele.ReplyMarkup
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := sent{to: to, what: what}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			s.markup = so.ReplyMarkup
		}
	}
	f.msgs = append(f.msgs, s)
	return &tele.Message{}, f.err
}

func TestTransportSendText(t *testing.T) {
	fs := &fakeSender{}
	tr := NewTransport(fs, nil)

	require.NoError(t, tr.SendText(context.Background(), "42", "hello"))
	require.Len(t, fs.msgs, 1)
	assert.Equal(t, "42", fs.msgs[0].to.Recipient())
	assert.Equal(t, "hello", fs.msgs[0].what)
	assert.Nil(t, fs.msgs[0].markup)
}

func TestTransportInvalidRecipient(t *testing.T) {
	fs := &fakeSender{}
	tr := NewTransport(fs, nil)

	err := tr.SendText(context.Background(), "not-a-chat", "hello")
	assert.Error(t, err)
	assert.Empty(t, fs.msgs)
}

func TestTransportSendButtons(t *testing.T) {
	fs := &fakeSender{}
	tr := NewTransport(fs, nil)

	err := tr.SendButtons(context.Background(), "7", "Which client?", []assistant.Button{
		{ID: "0", Title: "⬅️ Menu"},
	})
	require.NoError(t, err)
	require.Len(t, fs.msgs, 1)
	m := fs.msgs[0].markup
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 1)
	btn := m.InlineKeyboard[0][0]
	assert.Equal(t, "⬅️ Menu", btn.Text)
	assert.Equal(t, "menu_btn", btn.Unique)
	assert.Equal(t, "0", btn.Data)
}

func TestTransportSendList(t *testing.T) {
	fs := &fakeSender{}
	tr := NewTransport(fs, nil)

	err := tr.SendList(context.Background(), "7", "Pick one", "Open menu", []assistant.ListSection{
		{Title: "Documents", Rows: []assistant.ListRow{
			{ID: "invoice:new", Title: "New Invoice"},
			{ID: "receipt:new", Title: "New Receipt"},
			{ID: "quote:new", Title: "🔒 New Quote"},
		}},
		{Title: "Money", Rows: []assistant.ListRow{
			{ID: "payment:new", Title: "Record Payment"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, fs.msgs, 1)
	assert.Equal(t, "Pick one", fs.msgs[0].what)

	m := fs.msgs[0].markup
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 3)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Equal(t, "🔒 New Quote", m.InlineKeyboard[1][0].Text)
	assert.Equal(t, "quote:new", m.InlineKeyboard[1][0].Data)
	assert.Equal(t, "menu_list", m.InlineKeyboard[2][0].Unique)
	assert.Equal(t, "payment:new", m.InlineKeyboard[2][0].Data)
}

func TestTransportQueuesOnDispatcher(t *testing.T) {
	fs := &fakeSender{}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1, MaxRetries: 0})
	tr := NewTransport(fs, d)

	require.NoError(t, tr.SendText(context.Background(), "1", "a"))
	require.NoError(t, tr.SendText(context.Background(), "1", "b"))
	d.Close()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.Len(t, fs.msgs, 2)
	assert.Equal(t, "a", fs.msgs[0].what)
	assert.Equal(t, "b", fs.msgs[1].what)
}

func TestTransportFallsBackWhenQueueClosed(t *testing.T) {
	fs := &fakeSender{err: errors.New("boom")}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	d.Close()
	tr := NewTransport(fs, d)

	err := tr.SendText(context.Background(), "1", "late")
	assert.EqualError(t, err, "boom")
	assert.Len(t, fs.msgs, 1)
}
