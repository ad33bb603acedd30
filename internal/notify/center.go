// Package notify manages the transient operator-facing advisories.
// Every note auto-dismisses after a fixed window.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDismiss is the window a note stays visible.
const DefaultDismiss = 5 * time.Second

// Kind is the visual class of a note.
type Kind int

const (
	// KindInfo is a neutral advisory.
	KindInfo Kind = iota

	// KindSuccess confirms a completed action.
	KindSuccess

	// KindError reports a recoverable failure.
	KindError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Note is one advisory with its dismissal identity.
type Note struct {
	ID   string
	Kind Kind
	Text string
	At   time.Time
}

// Option configures the center.
type Option func(*Center)

// WithDismissAfter overrides the auto-dismiss window.
func WithDismissAfter(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.dismiss = d
		}
	}
}

// WithAfterFunc injects the dismissal scheduler, for tests.
func WithAfterFunc(fn func(d time.Duration, f func()) func() bool) Option {
	return func(c *Center) { c.afterFunc = fn }
}

// WithOnChange registers a listener receiving the active notes after
// every change.
func WithOnChange(fn func([]Note)) Option {
	return func(c *Center) { c.onChange = fn }
}

// Center holds the active notes. Safe for concurrent use; dismiss
// timers fire on runtime goroutines.
type Center struct {
	mu        sync.Mutex
	dismiss   time.Duration
	afterFunc func(d time.Duration, f func()) func() bool
	onChange  func([]Note)
	notes     []Note
}

// New creates a center with the default 5 second dismiss window.
func New(opts ...Option) *Center {
	c := &Center{
		dismiss: DefaultDismiss,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info posts a neutral advisory and returns its id.
func (c *Center) Info(text string) string { return c.post(KindInfo, text) }

// Success posts a success advisory and returns its id.
func (c *Center) Success(text string) string { return c.post(KindSuccess, text) }

// Error posts a failure advisory and returns its id.
func (c *Center) Error(text string) string { return c.post(KindError, text) }

// Dismiss removes a note before its window elapses. Unknown ids are a
// no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	c.removeLocked(id)
	notes := c.activeLocked()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(notes)
	}
}

// Active returns the visible notes in posting order.
func (c *Center) Active() []Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *Center) post(kind Kind, text string) string {
	note := Note{ID: uuid.NewString(), Kind: kind, Text: text, At: time.Now()}

	c.mu.Lock()
	c.notes = append(c.notes, note)
	notes := c.activeLocked()
	fn := c.onChange
	c.mu.Unlock()

	c.afterFunc(c.dismiss, func() { c.Dismiss(note.ID) })
	if fn != nil {
		fn(notes)
	}
	return note.ID
}

func (c *Center) removeLocked(id string) {
	for i, note := range c.notes {
		if note.ID == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return
		}
	}
}

func (c *Center) activeLocked() []Note {
	out := make([]Note, len(c.notes))
	copy(out, c.notes)
	return out
}
