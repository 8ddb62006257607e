package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrInvalidDetails  = errors.New("delivery details are incomplete")
	ErrIndexOutOfRange = errors.New("delivery details index out of range")
	ErrNotFound        = errors.New("delivery details not found")
)

// Book is a user's saved addresses. At most one entry is selected, and
// every mutation is written through to the store.
type Book struct {
	store   Store
	userID  int64
	entries []Details
	mu      sync.RWMutex
}

func LoadBook(ctx context.Context, store Store, userID int64) (*Book, error) {
	entries, err := store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Book{
		store:   store,
		userID:  userID,
		entries: entries,
	}, nil
}

func (b *Book) All() []Details {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Details(nil), b.entries...)
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Add appends and selects details unless an equal entry already exists.
func (b *Book) Add(ctx context.Context, details Details) error {
	if !details.IsValid() {
		return ErrInvalidDetails
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(details) >= 0 {
		return nil
	}
	details.Selected = false
	b.entries = append(b.entries, details)
	b.selectAt(len(b.entries) - 1)
	return b.save(ctx)
}

func (b *Book) Edit(ctx context.Context, at int, details Details) error {
	if !details.IsValid() {
		return ErrInvalidDetails
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if at < 0 || at >= len(b.entries) {
		return ErrIndexOutOfRange
	}
	details.Selected = b.entries[at].Selected
	b.entries[at] = details
	return b.save(ctx)
}

func (b *Book) Remove(ctx context.Context, details Details) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(details)
	if idx < 0 {
		return ErrNotFound
	}
	wasSelected := b.entries[idx].Selected
	b.entries = append(b.entries[:idx], b.entries[idx+1:]...)
	if wasSelected && len(b.entries) > 0 {
		b.entries[0].Selected = true
	}
	return b.save(ctx)
}

func (b *Book) Select(ctx context.Context, details Details) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(details)
	if idx < 0 {
		return ErrNotFound
	}
	b.selectAt(idx)
	return b.save(ctx)
}

func (b *Book) Selected() (Details, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, d := range b.entries {
		if d.Selected {
			return d, true
		}
	}
	return Details{}, false
}

func (b *Book) indexOf(details Details) int {
	for i, d := range b.entries {
		if d.Equal(details) {
			return i
		}
	}
	return -1
}

func (b *Book) selectAt(idx int) {
	for i := range b.entries {
		b.entries[i].Selected = i == idx
	}
}

func (b *Book) save(ctx context.Context) error {
	if err := b.store.Save(ctx, b.userID, b.entries); err != nil {
		slog.Error("Failed to save delivery details", "error", err, "userID", b.userID)
		return err
	}
	return nil
}
