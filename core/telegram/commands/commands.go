// Package commands describes slash commands exposed by the bot.
package commands

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Validation failures returned by Command.Validate.
var (
	ErrNoHandler     = errors.New("command has no handler")
	ErrNoDescription = errors.New("command has no description")
	ErrBadName       = errors.New("command name must be a slash and at least one character")
)

// Command is a registered slash command. Hidden and AdminOnly commands are
// left out of the client command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are alternative names, with or without the leading slash.
	Aliases []string
}

// Validate reports why cmd cannot be registered under name.
func (cmd Command) Validate(name string) error {
	switch {
	case cmd.Handler == nil:
		return ErrNoHandler
	case strings.TrimSpace(cmd.Description) == "":
		return ErrNoDescription
	case len(name) < 2 || name[0] != '/':
		return ErrBadName
	}
	return nil
}

// Listed reports whether cmd belongs in the public command menu.
func (cmd Command) Listed() bool {
	return !cmd.Hidden && !cmd.AdminOnly
}

// Answers reports whether name, already reduced to "/word", refers to cmd
// through one of its aliases.
func (cmd Command) Answers(name string) bool {
	for _, alias := range cmd.Aliases {
		if "/"+strings.TrimPrefix(alias, "/") == name {
			return true
		}
	}
	return false
}

// Canonical reduces user text to the command token it invokes: "/menu@docbot
// now" becomes "/menu". Text without a slash is treated as a bare name.
func Canonical(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "/" + text
	}
	text, _, _ = strings.Cut(text, " ")
	text, _, _ = strings.Cut(text, "@")
	return text
}
