package domain

import "time"

// Window is the half-open interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow rejects empty and inverted windows.
func NewWindow(from, to time.Time) (Window, error) {
	if !from.Before(to) {
		return Window{}, ErrInvalidTimeRange
	}
	return Window{From: from.UTC(), To: to.UTC()}, nil
}

// Overlaps is false for windows that only touch at an endpoint.
func (w Window) Overlaps(o Window) bool {
	return w.From.Before(o.To) && w.To.After(o.From)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

func (w Window) Equal(o Window) bool {
	return w.From.Equal(o.From) && w.To.Equal(o.To)
}
