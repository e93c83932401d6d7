// Package prefs persists the single theme preference. It is the only state
// the dashboard keeps between runs.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidTheme is returned when SetTheme receives a value other than
// "light" or "dark".
var ErrInvalidTheme = errors.New("invalid theme")

// Recognized theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// themeKey is the fixed storage key inside the preference file.
const themeKey = "theme"

// Store reads and writes the preference file. When no value is stored the
// theme falls back to the OS dark-mode hint.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the given file path. The file and its
// directory are created on first SetTheme.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Theme returns the stored preference, or the OS fallback when unset or
// unreadable.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fallbackTheme()
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return fallbackTheme()
	}

	switch values[themeKey] {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return fallbackTheme()
	}
}

// SetTheme stores the preference. Only "light" and "dark" are accepted.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("SetTheme: %w: %q", ErrInvalidTheme, theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("SetTheme: create preference directory: %w", err)
		}
	}

	data, err := json.Marshal(map[string]string{themeKey: theme})
	if err != nil {
		return fmt.Errorf("SetTheme: encode preference: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("SetTheme: write %s: %w", s.path, err)
	}

	return nil
}

// fallbackTheme guesses the OS preference from environment hints. GTK_THEME
// covers GTK desktops, COLORFGBG dark terminal palettes. Headless or non-GTK
// hosts usually export neither and land on light.
func fallbackTheme() string {
	if strings.Contains(strings.ToLower(os.Getenv("GTK_THEME")), "dark") {
		return ThemeDark
	}
	// COLORFGBG is "<fg>;<bg>"; low background codes are the dark colors.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) >= 2 {
		if bg := parts[len(parts)-1]; bg == "0" || bg == "8" {
			return ThemeDark
		}
	}
	return ThemeLight
}
