// Package editor implements the ordered item engine behind the pipeline
// builder. Items are addressed by their current sequence position; the
// per-item caches (raw payload text, validation error) are keyed by position
// too, so every structural mutation re-keys them to keep cached state attached
// to the item it belongs to rather than to the slot it happened to occupy.
package editor

import "fmt"

// Direction selects where MoveAt sends an item.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Item is one entry of an ordered list: a discriminant (step type, rule
// outcome) plus a payload (parameter object, condition text).
type Item[D comparable, P any] struct {
	Discriminant D
	Payload      P
}

// ParseFunc converts user-entered raw text into a payload value.
type ParseFunc[P any] func(text string) (P, error)

// List is an ordered sequence of items with position-keyed side-state.
// It is not safe for concurrent use; callers serialize access per session.
type List[D comparable, P any] struct {
	items           []Item[D, P]
	rawText         map[int]string
	validationError map[int]string
	parse           ParseFunc[P]
}

// NewList creates an empty list. parse is used by SetRawText and Materialize
// to turn cached raw text back into a payload.
func NewList[D comparable, P any](parse ParseFunc[P]) *List[D, P] {
	return &List[D, P]{
		items:           []Item[D, P]{},
		rawText:         map[int]string{},
		validationError: map[int]string{},
		parse:           parse,
	}
}

// Len returns the number of items.
func (l *List[D, P]) Len() int {
	return len(l.items)
}

// Items returns a copy of the current sequence.
func (l *List[D, P]) Items() []Item[D, P] {
	items := make([]Item[D, P], len(l.items))
	copy(items, l.items)

	return items
}

// ItemAt returns the item at position i.
func (l *List[D, P]) ItemAt(i int) (Item[D, P], error) {
	if !l.inRange(i) {
		return Item[D, P]{}, fmt.Errorf("item %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	return l.items[i], nil
}

// RawText returns the cached raw payload text at position i, if any.
func (l *List[D, P]) RawText(i int) (string, bool) {
	text, ok := l.rawText[i]

	return text, ok
}

// ValidationError returns the cached parse error at position i, if any.
func (l *List[D, P]) ValidationError(i int) (string, bool) {
	message, ok := l.validationError[i]

	return message, ok
}

// HasValidationErrors reports whether any position has a cached parse error.
func (l *List[D, P]) HasValidationErrors() bool {
	return len(l.validationError) > 0
}

// InsertAtEnd appends a new item. Existing side-state is untouched.
func (l *List[D, P]) InsertAtEnd(discriminant D, payload P) {
	l.items = append(l.items, Item[D, P]{Discriminant: discriminant, Payload: payload})
}

// RemoveAt deletes the item at position i. Side-state below i is unchanged,
// side-state at i is dropped with the item, and side-state above i shifts down
// one position so it stays with the content it belongs to.
func (l *List[D, P]) RemoveAt(i int) error {
	if !l.inRange(i) {
		return fmt.Errorf("remove at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	l.items = append(l.items[:i], l.items[i+1:]...)
	l.rawText = shiftDownAfterRemove(l.rawText, i)
	l.validationError = shiftDownAfterRemove(l.validationError, i)

	return nil
}

// MoveAt swaps the item at i with its neighbour in the given direction. A move
// that would cross a list boundary is a silent no-op. Side-state entries at
// the two positions swap independently of each other: an entry present on one
// side simply relocates, it is never fabricated on the other.
func (l *List[D, P]) MoveAt(i int, direction Direction) error {
	if !l.inRange(i) {
		return fmt.Errorf("move at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	target := i + 1
	if direction == DirectionUp {
		target = i - 1
	}

	if target < 0 || target >= len(l.items) {
		return nil
	}

	l.items[i], l.items[target] = l.items[target], l.items[i]
	swapEntries(l.rawText, i, target)
	swapEntries(l.validationError, i, target)

	return nil
}

// ChangeDiscriminant replaces the discriminant and payload at position i with
// the catalog default for the new discriminant. Cached raw text and errors at
// i are cleared: they described the old payload and must not survive the type
// change.
func (l *List[D, P]) ChangeDiscriminant(i int, discriminant D, defaultPayload P) error {
	if !l.inRange(i) {
		return fmt.Errorf("change discriminant at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	l.items[i] = Item[D, P]{Discriminant: discriminant, Payload: defaultPayload}
	delete(l.rawText, i)
	delete(l.validationError, i)

	return nil
}

// SetDiscriminant replaces only the discriminant at position i, keeping the
// payload and side-state. Used where the discriminant is an independent field
// (a rule's outcome) rather than the selector of the payload shape.
func (l *List[D, P]) SetDiscriminant(i int, discriminant D) error {
	if !l.inRange(i) {
		return fmt.Errorf("set discriminant at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	l.items[i].Discriminant = discriminant

	return nil
}

// SetPayload replaces the payload at position i directly.
func (l *List[D, P]) SetPayload(i int, payload P) error {
	if !l.inRange(i) {
		return fmt.Errorf("set payload at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	l.items[i].Payload = payload

	return nil
}

// SetRawText records the user's in-progress raw representation of payload i
// and validates it. The committed payload is not touched here; raw text is
// only parsed into the payload by Materialize.
func (l *List[D, P]) SetRawText(i int, text string) error {
	if !l.inRange(i) {
		return fmt.Errorf("set raw text at %d of %d: %w", i, len(l.items), ErrIndexOutOfRange)
	}

	l.rawText[i] = text

	if _, err := l.parse(text); err != nil {
		l.validationError[i] = err.Error()
	} else {
		delete(l.validationError, i)
	}

	return nil
}

// Materialize produces the final payload for every item: cached raw text is
// parsed where present, the committed payload is used otherwise. If any
// position has a pending validation error or unparsable raw text, nothing is
// committed and every failing position is reported.
func (l *List[D, P]) Materialize() ([]Item[D, P], error) {
	failures := map[int]string{}
	materialized := make([]Item[D, P], len(l.items))

	for i, item := range l.items {
		if message, ok := l.validationError[i]; ok {
			failures[i] = message

			continue
		}

		payload := item.Payload

		if text, ok := l.rawText[i]; ok {
			parsed, err := l.parse(text)
			if err != nil {
				failures[i] = err.Error()

				continue
			}

			payload = parsed
		}

		materialized[i] = Item[D, P]{Discriminant: item.Discriminant, Payload: payload}
	}

	if len(failures) > 0 {
		return nil, &AggregateValidationError{Messages: failures}
	}

	return materialized, nil
}

func (l *List[D, P]) inRange(i int) bool {
	return i >= 0 && i < len(l.items)
}

// shiftDownAfterRemove drops the entry at removed and moves every entry above
// it down one position.
func shiftDownAfterRemove(entries map[int]string, removed int) map[int]string {
	updated := make(map[int]string, len(entries))

	for position, value := range entries {
		switch {
		case position < removed:
			updated[position] = value
		case position > removed:
			updated[position-1] = value
		}
	}

	return updated
}

// swapEntries exchanges whatever entries exist at i and j, touching no other
// positions.
func swapEntries(entries map[int]string, i, j int) {
	iValue, iOK := entries[i]
	jValue, jOK := entries[j]

	delete(entries, i)
	delete(entries, j)

	if jOK {
		entries[i] = jValue
	}

	if iOK {
		entries[j] = iValue
	}
}
