// Package keymap holds the process-wide keycode-to-literal table. The table is
// built once at startup and read-only afterwards.
package keymap

import (
	"fmt"
	"os"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Code is a raw keyboard scan code.
type Code int

// Control codes recognized by the input buffer.
const (
	Backspace Code = 8
	Enter     Code = 13
)

// Table maps printable key codes to their literals. Codes without a mapping
// and the control codes above yield no literal.
type Table struct {
	literals map[Code]string
}

// Default returns the built-in table: digits 0-9 and letters A-Z.
func Default() *Table {
	literals := make(map[Code]string, 36)
	for c := '0'; c <= '9'; c++ {
		literals[Code(c)] = string(c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		literals[Code(c)] = string(c)
	}
	return &Table{literals: literals}
}

type tableFile struct {
	Literals map[int]string `yaml:"literals"`
}

// Load reads a table from a YAML file of the form:
//
//	literals:
//	  48: "0"
//	  65: "A"
//
// Control codes cannot be remapped.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap file: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keymap file: %w", err)
	}
	if len(f.Literals) == 0 {
		return nil, fmt.Errorf("keymap file %s defines no literals", path)
	}

	literals := make(map[Code]string, len(f.Literals))
	for code, literal := range f.Literals {
		c := Code(code)
		if c == Enter || c == Backspace {
			return nil, fmt.Errorf("keymap file %s remaps control code %d", path, code)
		}
		if literal == "" {
			return nil, fmt.Errorf("keymap file %s maps code %d to an empty literal", path, code)
		}
		literals[c] = literal
	}
	return &Table{literals: literals}, nil
}

// Literal returns the literal for a printable key code.
func (t *Table) Literal(c Code) (string, bool) {
	literal, ok := t.literals[c]
	return literal, ok
}

func (t *Table) Len() int {
	return len(t.literals)
}

// FromRune maps a typed rune onto the key code that produces it on the default
// table. Barcode scanners emit uppercase codes regardless of shift state.
func FromRune(r rune) Code {
	return Code(unicode.ToUpper(r))
}
