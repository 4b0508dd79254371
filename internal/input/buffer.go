// Package input assembles raw key events into candidate identifier strings.
package input

import (
	"unicode/utf8"

	"github.com/LoctusTM/oskiosk-client/internal/keymap"
)

type ActionKind int

const (
	// ActionNone: the key was unrecognized or a no-op.
	ActionNone ActionKind = iota
	// ActionTyped: a literal was appended to the buffer.
	ActionTyped
	// ActionDeleted: the last character was removed.
	ActionDeleted
	// ActionResolve: a non-empty buffer was submitted; Identifier carries it.
	ActionResolve
	// ActionCheckout: the buffer was submitted while empty.
	ActionCheckout
)

// Action is the buffer's reaction to a single key event.
type Action struct {
	Kind       ActionKind
	Identifier string
}

// Buffer accumulates literals from printable keys. It performs no I/O; the
// session decides what to do with the emitted actions.
type Buffer struct {
	keys  *keymap.Table
	value string
}

func NewBuffer(keys *keymap.Table) *Buffer {
	return &Buffer{keys: keys}
}

// OnKey applies one key event. Submitting a non-empty buffer clears it
// immediately, before any resolver result comes back, so the operator can keep
// scanning.
func (b *Buffer) OnKey(code keymap.Code) Action {
	if literal, ok := b.keys.Literal(code); ok {
		b.value += literal
		return Action{Kind: ActionTyped}
	}

	switch code {
	case keymap.Enter:
		if b.value != "" {
			identifier := b.value
			b.value = ""
			return Action{Kind: ActionResolve, Identifier: identifier}
		}
		return Action{Kind: ActionCheckout}
	case keymap.Backspace:
		if b.value == "" {
			return Action{Kind: ActionNone}
		}
		_, size := utf8.DecodeLastRuneInString(b.value)
		b.value = b.value[:len(b.value)-size]
		return Action{Kind: ActionDeleted}
	}

	return Action{Kind: ActionNone}
}

// Value is the current buffer content, for display.
func (b *Buffer) Value() string {
	return b.value
}
