// Package dom is the slice of the browser document model the upload/verify
// controller depends on. Pages are injected, so the controller runs the same
// against a real browser (js/wasm builds) and against the in-memory Page.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Event types the controller listens for.
const (
	EventChange = "change"
	EventClick  = "click"
)

var (
	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrBadSelector is returned for selectors other than "#id".
	ErrBadSelector = errors.New("only #id selectors are supported")
)

// File is a user-selected file.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Event is what a listener receives. Files is only set for change events on
// file inputs, and is empty when the user cancelled the dialog.
type Event struct {
	Type  string
	Files []File
}

// Listener handles one event. Listeners run on the event source's goroutine
// and must not block.
type Listener func(Event)

// Element is a single DOM node.
type Element interface {
	ID() string
	Hidden() bool
	SetHidden(hidden bool)
	Disabled() bool
	SetDisabled(disabled bool)
	AddClass(class string)
	RemoveClass(class string)
	HasClass(class string) bool
	// Content is the node's text content.
	Content() string
	SetContent(text string)
	AddEventListener(eventType string, fn Listener)
}

// Document resolves selectors to elements.
type Document interface {
	QuerySelector(selector string) (Element, error)
}

// IDSelector returns the "#id" selector for id.
func IDSelector(id string) string {
	return "#" + strings.TrimPrefix(id, "#")
}

// ParseIDSelector extracts the id from a "#id" selector.
func ParseIDSelector(selector string) (string, error) {
	if !strings.HasPrefix(selector, "#") || len(selector) == 1 {
		return "", fmt.Errorf("%w: %q", ErrBadSelector, selector)
	}
	return selector[1:], nil
}
