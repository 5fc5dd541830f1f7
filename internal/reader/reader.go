// Package reader describes the event surface of the book rendition engine.
// locus never parses locators; they are threaded through for display and
// resume only.
package reader

import (
	"context"
	"strings"
)

// Selection is a passage highlighted by the reader.
type Selection struct {
	Locator string
	Text    string
}

// Empty reports whether the selection has no usable text.
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// EventKind distinguishes rendition events.
type EventKind int

const (
	// Selected fires when the reader highlights a passage.
	Selected EventKind = iota + 1
	// Relocated fires when the visible location changes.
	Relocated
)

// Event is one notification from the rendition engine. For Relocated only
// Selection.Locator is set.
type Event struct {
	Kind      EventKind
	Selection Selection
}

// Book is the metadata the session needs from the open book.
type Book struct {
	Title   string
	Creator string
}

// Source delivers rendition events until ctx is done or the source is
// exhausted, then closes the channel.
type Source interface {
	Book() Book
	Events(ctx context.Context) <-chan Event
}

// StaticSource replays a fixed list of events. The CLI builds one from
// flags and stdin in place of a live rendition engine.
type StaticSource struct {
	book   Book
	events []Event
}

// NewStaticSource returns a source for book that emits events in order.
func NewStaticSource(book Book, events ...Event) *StaticSource {
	return &StaticSource{book: book, events: events}
}

func (s *StaticSource) Book() Book { return s.book }

func (s *StaticSource) Events(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for _, e := range s.events {
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
