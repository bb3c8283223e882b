// Package keyboard lays out inline keyboards for menu replies.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline data button. Unique and Data end up in the callback
// as "\f<Unique>|<Data>".
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Section is a run of buttons that never shares a row with its neighbours.
type Section struct {
	Title   string
	Buttons []Button
}

// Grid places buttons perRow to a row. perRow below 1 means one per row.
func Grid(perRow int, buttons ...Button) *tele.ReplyMarkup {
	return build(chunk(buttons, perRow))
}

// Sections lays out each section as its own grid, stacked in order. Empty
// sections produce no rows.
func Sections(perRow int, sections ...Section) *tele.ReplyMarkup {
	var rows [][]Button
	for _, s := range sections {
		rows = append(rows, chunk(s.Buttons, perRow)...)
	}
	return build(rows)
}

func chunk(buttons []Button, n int) [][]Button {
	n = max(n, 1)
	rows := make([][]Button, 0, (len(buttons)+n-1)/n)
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		rows = append(rows, buttons[:k])
		buttons = buttons[k:]
	}
	return rows
}

func build(rows [][]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup
}
