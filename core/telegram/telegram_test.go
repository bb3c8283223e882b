package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/docbot/core/config"
	"github.com/m3rciful/docbot/core/telegram/commands"
)

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook", SecretToken: "s3cret"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "s3cret", wh.SecretToken)
	assert.Equal(t, "https://bot.example.com/hook", wh.Endpoint.PublicURL)

	lp, ok := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)

	lp, ok = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, lp.Timeout)
}

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	h := func(tele.Context) error { return nil }

	require.NoError(t, reg.RegisterCommand("/menu", commands.Command{Handler: h, Description: "Show the menu", Aliases: []string{"start"}}))
	require.NoError(t, reg.RegisterCommand("/sessions", commands.Command{Handler: h, Description: "Live sessions", AdminOnly: true}))
	assert.Error(t, reg.RegisterCommand("/menu", commands.Command{Handler: h, Description: "dup"}))
	assert.Error(t, reg.RegisterCommand("menu2", commands.Command{Handler: h, Description: "no slash"}))
	assert.Error(t, reg.RegisterCommand("/blank", commands.Command{Handler: h}))

	key, _, ok := reg.LookupCommand("/start")
	require.True(t, ok)
	assert.Equal(t, "/menu", key)

	_, _, ok = reg.LookupCommand("sessions")
	assert.True(t, ok)

	key, _, ok = reg.LookupCommand("/menu@docbot now")
	require.True(t, ok)
	assert.Equal(t, "/menu", key)

	_, _, ok = reg.LookupCommand("menu please")
	assert.False(t, ok)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/menu", visible[0].Text)
	assert.Len(t, reg.ListCommands(false), 2)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	h := func(tele.Context) error { return nil }

	require.NoError(t, reg.RegisterCallback("menu_list", h))
	require.NoError(t, reg.RegisterCallback("menu_btn", h))
	assert.Error(t, reg.RegisterCallback("menu_btn", h))

	_, ok := reg.GetCallback("menu_list")
	assert.True(t, ok)
	assert.Equal(t, []string{"menu_btn", "menu_list"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}
