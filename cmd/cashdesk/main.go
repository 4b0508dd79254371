package main

import (
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LoctusTM/oskiosk-client/internal/client"
	"github.com/LoctusTM/oskiosk-client/internal/keymap"
	"github.com/LoctusTM/oskiosk-client/internal/session"
	"github.com/LoctusTM/oskiosk-client/internal/tui"
)

func main() {
	apiURL := getEnv("KIOSK_API_URL", "http://localhost:8080")
	apiToken := getEnv("KIOSK_API_TOKEN", "")
	keymapFile := getEnv("KEYMAP_FILE", "")
	logFile := getEnv("CASHDESK_LOG", "")

	keys := keymap.Default()
	if keymapFile != "" {
		loaded, err := keymap.Load(keymapFile)
		if err != nil {
			log.Fatalf("Failed to load keymap: %v", err)
		}
		keys = loaded
	}

	// The TUI owns the terminal, so session diagnostics go to a file.
	logWriter := io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logWriter = f
	}
	logger := log.New(logWriter, "cashdesk ", log.LstdFlags)

	backend := client.New(apiURL, apiToken)
	sess := session.New(keys, backend, backend, logger)

	program := tea.NewProgram(tui.NewModel(sess), tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		log.Fatalf("Cashdesk terminal failed: %v", err)
	}
	if m, ok := finalModel.(tui.Model); ok && m.Fatal() != nil {
		log.Fatalf("Session ended on invariant violation: %v", m.Fatal())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
