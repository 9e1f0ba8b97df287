package tui

import (
	"strings"

	"github.com/atotto/clipboard"
)

// CopyFunc writes text to the system clipboard.
type CopyFunc func(string) error

type Option func(*Model)

// WithTitle overrides the board heading.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.title = title
		}
	}
}

// WithCopyFunc replaces the clipboard writer used by the copy-id action.
func WithCopyFunc(fn CopyFunc) Option {
	return func(m *Model) {
		if fn != nil {
			m.copyText = fn
		}
	}
}

// WithConfirmDelete toggles the delete confirmation prompt.
func WithConfirmDelete(enabled bool) Option {
	return func(m *Model) {
		m.confirmDelete = enabled
	}
}

// defaultCopyFunc writes through the platform clipboard.
func defaultCopyFunc(text string) error {
	return clipboard.WriteAll(text)
}
