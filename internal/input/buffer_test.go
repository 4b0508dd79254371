package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoctusTM/oskiosk-client/internal/keymap"
)

func typeString(t *testing.T, b *Buffer, s string) {
	t.Helper()
	for _, r := range s {
		action := b.OnKey(keymap.FromRune(r))
		require.Equal(t, ActionTyped, action.Kind)
	}
}

func TestOnKey_PrintableKeysConcatenateInOrder(t *testing.T) {
	sut := NewBuffer(keymap.Default())

	typeString(t, sut, "A1B2")

	assert.Equal(t, "A1B2", sut.Value())
}

func TestOnKey_UnrecognizedKeysAreIgnored(t *testing.T) {
	sut := NewBuffer(keymap.Default())
	typeString(t, sut, "A1")

	action := sut.OnKey(keymap.Code(27)) // no literal, not a control key

	assert.Equal(t, ActionNone, action.Kind)
	assert.Equal(t, "A1", sut.Value())
}

func TestOnKey_BackspaceRemovesLastCharacter(t *testing.T) {
	sut := NewBuffer(keymap.Default())
	typeString(t, sut, "A1B")

	action := sut.OnKey(keymap.Backspace)

	assert.Equal(t, ActionDeleted, action.Kind)
	assert.Equal(t, "A1", sut.Value())
}

func TestOnKey_BackspaceOnEmptyBufferIsNoOp(t *testing.T) {
	sut := NewBuffer(keymap.Default())

	action := sut.OnKey(keymap.Backspace)

	assert.Equal(t, ActionNone, action.Kind)
	assert.Equal(t, "", sut.Value())
}

func TestOnKey_EnterSubmitsAndClearsBuffer(t *testing.T) {
	sut := NewBuffer(keymap.Default())
	typeString(t, sut, "A1")

	action := sut.OnKey(keymap.Enter)

	require.Equal(t, ActionResolve, action.Kind)
	assert.Equal(t, "A1", action.Identifier)
	// cleared immediately, before any resolver result comes back
	assert.Equal(t, "", sut.Value())
}

func TestOnKey_EnterOnEmptyBufferRequestsCheckout(t *testing.T) {
	sut := NewBuffer(keymap.Default())

	action := sut.OnKey(keymap.Enter)

	assert.Equal(t, ActionCheckout, action.Kind)
	assert.Equal(t, "", action.Identifier)
}

func TestOnKey_TypingContinuesAfterSubmit(t *testing.T) {
	sut := NewBuffer(keymap.Default())
	typeString(t, sut, "A1")
	sut.OnKey(keymap.Enter)

	typeString(t, sut, "U9")
	action := sut.OnKey(keymap.Enter)

	require.Equal(t, ActionResolve, action.Kind)
	assert.Equal(t, "U9", action.Identifier)
}
