package assistant

import (
	"context"

	"github.com/m3rciful/docbot/core/conversation/menu"
)

// Button is a single quick-reply button.
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable row of a list message.
type ListRow struct {
	ID    string
	Title string
}

// ListSection groups list rows under a heading.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Transport delivers outbound messages. Calls are fire-and-forget: the
// returned error only reports that the message could not be handed over.
type Transport interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, body, buttonLabel string, sections []ListSection) error
}

// ListSections converts menu sections into list rows, keeping the lock glyph.
func ListSections(sections []menu.Section) []ListSection {
	out := make([]ListSection, 0, len(sections))
	for _, sec := range sections {
		rows := make([]ListRow, 0, len(sec.Items))
		for _, it := range sec.Items {
			title := it.Label
			if it.Locked {
				title = menu.LockGlyph + title
			}
			rows = append(rows, ListRow{ID: it.ID, Title: title})
		}
		out = append(out, ListSection{Title: sec.Section, Rows: rows})
	}
	return out
}
