package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		data    string
		unique  string
		payload string
	}{
		{data: "\fmenu_list|invoice:new", unique: "menu_list", payload: "invoice:new"},
		{data: "\fmenu_btn|0", unique: "menu_btn", payload: "0"},
		{data: "\fmenu_btn", unique: "menu_btn"},
		{data: "plain", unique: "plain"},
		{data: "a|b|c", unique: "a", payload: "b|c"},
		{data: ""},
	}
	for _, tc := range cases {
		u, p := Decode(tc.data)
		assert.Equal(t, tc.unique, u, tc.data)
		assert.Equal(t, tc.payload, p, tc.data)
	}
}

func TestEncodeDecode(t *testing.T) {
	u, p := Decode(Encode("menu_list", "expense:new"))
	assert.Equal(t, "menu_list", u)
	assert.Equal(t, "expense:new", p)
	assert.Equal(t, "\fmenu_btn", Encode("menu_btn", ""))
}

func TestParts(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	cases := map[string]struct {
		upd             tele.Update
		unique, payload string
	}{
		"raw":         {tele.Update{Callback: &tele.Callback{Data: "\fmenu_list|reports"}}, "menu_list", "reports"},
		"pre-split":   {tele.Update{Callback: &tele.Callback{Unique: "menu_btn", Data: "0"}}, "menu_btn", "0"},
		"no callback": {tele.Update{Message: &tele.Message{Text: "hi"}}, "", ""},
	}
	for name, tc := range cases {
		u, p := Parts(b.NewContext(tc.upd))
		assert.Equal(t, tc.unique, u, name)
		assert.Equal(t, tc.payload, p, name)
	}
}
