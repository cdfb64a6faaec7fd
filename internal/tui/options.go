package tui

import "github.com/hylla/tix/internal/domain"

type Option func(*Model)

// ClipboardWriter copies text to the system clipboard.
type ClipboardWriter func(string) error

// WithConfirmDelete toggles the y/n prompt before deleting.
func WithConfirmDelete(enabled bool) Option {
	return func(m *Model) {
		m.confirmDelete = enabled
	}
}

// WithMarkdown toggles glamour rendering of descriptions in the detail view.
func WithMarkdown(enabled bool) Option {
	return func(m *Model) {
		m.renderMarkdown = enabled
	}
}

// WithShowDescription toggles the description snippet under each list row.
func WithShowDescription(enabled bool) Option {
	return func(m *Model) {
		m.showDescription = enabled
	}
}

// WithDefaultReporter prefills the reporter of new tickets.
func WithDefaultReporter(name string) Option {
	return func(m *Model) {
		m.defaultReporter = name
	}
}

// WithCreateDefaults sets the status and priority preselected in the create form.
// Invalid values are ignored.
func WithCreateDefaults(status domain.Status, priority domain.Priority) Option {
	return func(m *Model) {
		if status.Valid() {
			m.defaultStatus = status
		}
		if priority.Valid() {
			m.defaultPriority = priority
		}
	}
}

// WithClipboardWriter replaces the clipboard used by the copy-id action.
func WithClipboardWriter(w ClipboardWriter) Option {
	return func(m *Model) {
		if w != nil {
			m.copyToClipboard = w
		}
	}
}
