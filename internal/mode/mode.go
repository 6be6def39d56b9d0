package mode

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Source names the endpoint family selected by a Mode value.
type Source string

const (
	SourceLive Source = "live"
	SourceMock Source = "mock"
)

// Reader is the read-only view of the data-source mode handed to
// consumers. Every read observes the value current at call time.
type Reader interface {
	UsesMockData() bool
}

// SourceOf returns the endpoint family selected by r.
func SourceOf(r Reader) Source {
	if r.UsesMockData() {
		return SourceMock
	}
	return SourceLive
}

// Listener is invoked after the mode changes, outside the controller lock.
type Listener func(usesMockData bool)

// Controller owns the process-wide usesMockData flag. It is the only
// component allowed to mutate the flag.
type Controller struct {
	mu        sync.RWMutex
	mock      bool
	listeners map[string]Listener
}

// NewController creates a Controller with the given initial value.
func NewController(usesMockData bool) *Controller {
	return &Controller{
		mock:      usesMockData,
		listeners: make(map[string]Listener),
	}
}

// UsesMockData reports whether views are served from the canned dataset.
func (c *Controller) UsesMockData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mock
}

// Set changes the mode. Listeners fire only when the value changes.
// It reports whether a change occurred.
func (c *Controller) Set(usesMockData bool) bool {
	c.mu.Lock()
	if c.mock == usesMockData {
		c.mu.Unlock()
		return false
	}
	c.mock = usesMockData
	listeners := c.snapshotLocked()
	c.mu.Unlock()

	slog.Info("data source mode changed", "source", sourceName(usesMockData))
	for _, fn := range listeners {
		fn(usesMockData)
	}
	return true
}

// Toggle flips the mode and returns the new value.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.mock = !c.mock
	next := c.mock
	listeners := c.snapshotLocked()
	c.mu.Unlock()

	slog.Info("data source mode toggled", "source", sourceName(next))
	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn for mode changes and returns a function that
// removes the registration.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	id := uuid.NewString()
	c.mu.Lock()
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func sourceName(mock bool) Source {
	if mock {
		return SourceMock
	}
	return SourceLive
}

// Static is a fixed Reader, useful where no controller is needed.
type Static bool

func (s Static) UsesMockData() bool { return bool(s) }
