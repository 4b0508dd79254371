// Package tui renders the cashdesk session as a terminal UI. The bubbletea
// update loop is the session's single-threaded event loop: key messages and
// async completions each run to completion before the next one is processed.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LoctusTM/oskiosk-client/internal/keymap"
	"github.com/LoctusTM/oskiosk-client/internal/session"
)

type Model struct {
	session *session.Session
	fatal   error
}

func NewModel(s *session.Session) Model {
	return Model{session: s}
}

// Fatal reports the invariant violation that ended the session, if any.
func (m Model) Fatal() error {
	return m.fatal
}

func (m Model) Init() tea.Cmd {
	return nil
}

type eventMsg struct {
	ev session.Event
}

func runCommand(cmd session.Command) tea.Cmd {
	return func() tea.Msg {
		return eventMsg{ev: cmd(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.session.Abort()
			return m, nil
		case tea.KeyEnter:
			if cmd := m.session.HandleKey(keymap.Enter); cmd != nil {
				return m, runCommand(cmd)
			}
			return m, nil
		case tea.KeyBackspace:
			m.session.HandleKey(keymap.Backspace)
			return m, nil
		case tea.KeyRunes:
			// Printable keys never start async work.
			for _, r := range msg.Runes {
				m.session.HandleKey(keymap.FromRune(r))
			}
			return m, nil
		}

	case eventMsg:
		if err := m.session.Apply(msg.ev); err != nil {
			m.fatal = err
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	b := &strings.Builder{}
	cart := m.session.Cart()

	fmt.Fprintln(b, "oskiosk cashdesk")
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Scan: %s_\n", m.session.Buffer())
	fmt.Fprintln(b, "")

	if cart.User != nil {
		fmt.Fprintf(b, "Customer: %s\n", cart.User.Name)
	} else {
		fmt.Fprintln(b, "Customer: -")
	}
	fmt.Fprintln(b, "")

	if cart.Empty() {
		fmt.Fprintln(b, "  (cart is empty)")
	}
	var total int64
	for _, item := range cart.Items {
		fmt.Fprintf(b, "  %-30s %10s\n", item.Product.Name, formatCents(item.Pricing.Price))
		total += item.Pricing.Price
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Total: %s\n", formatCents(total))
	fmt.Fprintln(b, "")

	switch {
	case m.session.WaitCheckout():
		fmt.Fprintln(b, "Processing payment...")
	case m.session.WaitIdentifier():
		fmt.Fprintln(b, "Resolving identifier...")
	case m.session.AlertNotFound():
		fmt.Fprintln(b, "!! Identifier not found")
	case m.session.CheckoutError() != "":
		fmt.Fprintf(b, "!! Checkout failed: %s\n", m.session.CheckoutError())
	}

	fmt.Fprintln(b, "\nControls: scan or type an identifier, enter to add, enter on empty input to pay, esc to abort, ctrl+c to quit")
	return b.String()
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
