package ledger

import (
	"context"
	"sync"
	"time"

	"tourbook/pkg/model"
)

// InMemory is a process-local Ledger over a fixed set of tours. It applies the
// same arithmetic as MongoLedger under a single lock and backs service tests
// and local tooling.
type InMemory struct {
	mu    sync.Mutex
	tours map[string]*model.Tour
}

func NewInMemory(tours ...*model.Tour) *InMemory {
	l := &InMemory{tours: make(map[string]*model.Tour, len(tours))}
	for _, t := range tours {
		l.Put(t)
	}
	return l
}

// Put stores a copy of t with normalized window dates.
func (l *InMemory) Put(t *model.Tour) {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := *t
	clone.StartDates = make([]model.AvailabilityWindow, len(t.StartDates))
	for i, w := range t.StartDates {
		w.Date = model.NormalizeDate(w.Date)
		clone.StartDates[i] = w
	}
	l.tours[t.ID] = &clone
}

// Tour returns a copy of the stored tour.
func (l *InMemory) Tour(id string) (*model.Tour, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tours[id]
	if !ok {
		return nil, false
	}
	clone := *t
	clone.StartDates = append([]model.AvailabilityWindow(nil), t.StartDates...)
	return &clone, true
}

func (l *InMemory) window(tourID string, date time.Time, requireActive bool) (*model.AvailabilityWindow, error) {
	t, ok := l.tours[tourID]
	if !ok || (requireActive && !t.IsActive) {
		return nil, ErrTourNotFound
	}
	w, ok := t.FindWindow(date)
	if !ok {
		return nil, ErrWindowNotFound
	}
	return w, nil
}

func (l *InMemory) FindWindow(_ context.Context, tourID string, date time.Time) (*model.AvailabilityWindow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, err := l.window(tourID, date, true)
	if err != nil {
		return nil, err
	}
	out := *w
	return &out, nil
}

func (l *InMemory) Reserve(_ context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, err := l.window(tourID, date, true)
	if err != nil {
		return nil, err
	}
	if !w.Reserve(count) {
		return nil, &CapacityError{Requested: count, Available: w.AvailableSpots}
	}
	out := *w
	return &out, nil
}

func (l *InMemory) Release(_ context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, err := l.window(tourID, date, false)
	if err != nil {
		return nil, err
	}
	w.Release(count)
	out := *w
	return &out, nil
}
