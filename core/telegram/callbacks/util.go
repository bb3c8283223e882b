// Package callbacks encodes and decodes inline keyboard callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Encode returns the raw callback data telebot produces for a data button.
func Encode(unique, payload string) string {
	if payload == "" {
		return "\f" + unique
	}
	return "\f" + unique + "|" + payload
}

// Decode splits raw callback data into its unique key and payload. The
// leading form feed is optional.
func Decode(data string) (unique, payload string) {
	unique, payload, _ = strings.Cut(strings.TrimPrefix(data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// Parts returns the unique key and payload of the callback in c. Callbacks
// that telebot already split keep Unique and Data apart.
func Parts(c tele.Context) (unique, payload string) {
	cb := c.Callback()
	switch {
	case cb == nil:
		return "", ""
	case cb.Unique != "":
		return cb.Unique, cb.Data
	}
	return Decode(cb.Data)
}
