package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	btns := []Button{
		{Text: "A", Unique: "menu_list", Data: "a"},
		{Text: "B", Unique: "menu_list", Data: "b"},
		{Text: "C", Unique: "menu_list", Data: "c"},
	}
	m := Grid(2, btns...)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	last := m.InlineKeyboard[1][0]
	assert.Equal(t, "C", last.Text)
	assert.Equal(t, "menu_list", last.Unique)
	assert.Equal(t, "c", last.Data)

	assert.Len(t, Grid(0, btns...).InlineKeyboard, 3)
	assert.Empty(t, Grid(2).InlineKeyboard)
}

func TestSectionsStartNewRow(t *testing.T) {
	m := Sections(2,
		Section{Title: "Docs", Buttons: []Button{{Text: "1"}, {Text: "2"}, {Text: "3"}}},
		Section{Title: "Empty"},
		Section{Title: "Money", Buttons: []Button{{Text: "4"}}},
	)
	require.Len(t, m.InlineKeyboard, 3)
	assert.Equal(t, "3", m.InlineKeyboard[1][0].Text)
	assert.Equal(t, "4", m.InlineKeyboard[2][0].Text)
}
