// Package input turns inbound chat events into canonical action tokens.
package input

import "strings"

// Event is the logical shape of an inbound message. Any field may be nil.
type Event struct {
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// Text carries a free-text message body.
type Text struct {
	Body string `json:"body"`
}

// Interactive carries a structured reply to buttons or a list.
type Interactive struct {
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

// Reply identifies the tapped button or list row.
type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Normalize returns the action token for ev. Structured reply ids are already
// canonical and are returned verbatim; free text is trimmed and lowercased.
// Events without a usable payload yield "".
func Normalize(ev *Event) string {
	if ev == nil {
		return ""
	}
	if ia := ev.Interactive; ia != nil {
		if br := ia.ButtonReply; br != nil && br.ID != "" {
			return br.ID
		}
		if lr := ia.ListReply; lr != nil && lr.ID != "" {
			return lr.ID
		}
	}
	if ev.Text != nil {
		return strings.ToLower(strings.TrimSpace(ev.Text.Body))
	}
	return ""
}

// TextEvent builds an event carrying free text.
func TextEvent(body string) Event {
	return Event{Text: &Text{Body: body}}
}

// ButtonEvent builds an event carrying a button reply.
func ButtonEvent(id string) Event {
	return Event{Interactive: &Interactive{ButtonReply: &Reply{ID: id}}}
}

// ListEvent builds an event carrying a list reply.
func ListEvent(id string) Event {
	return Event{Interactive: &Interactive{ListReply: &Reply{ID: id}}}
}
