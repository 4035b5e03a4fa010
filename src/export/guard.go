package export

import (
	"errors"
	"sync"
)

var ErrExportInProgress = errors.New("an export is already in progress")

// Guard allows one running export per key, typically per admin. There is
// no cancellation: an export runs until it finishes and releases the key.
type Guard struct {
	mu     sync.Mutex
	active map[string]Format
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]Format)}
}

// Begin marks key as exporting format. The returned release must be called
// once the export is done.
func (g *Guard) Begin(key string, format Format) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if busy, ok := g.active[key]; ok {
		return nil, &BusyError{Format: busy}
	}
	g.active[key] = format

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

// State reports the format being exported for key, if any.
func (g *Guard) State(key string) (Format, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.active[key]
	return f, ok
}

// BusyError names the export that holds the key.
type BusyError struct {
	Format Format
}

func (e *BusyError) Error() string {
	return ErrExportInProgress.Error() + ": " + string(e.Format)
}

func (e *BusyError) Is(target error) bool { return target == ErrExportInProgress }
