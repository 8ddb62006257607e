package processing

import (
	"sync"
)

type Event interface {
	processingEvent()
}

type Completed struct {
	OrderID int
}

type Failed struct {
	Kind ErrorKind
	Err  error
}

type PendingUploadsUpdated struct {
	Pending int
	Total   int
}

type WillFinishOrder struct{}

// Aborted means the order was dropped before anything was charged.
type Aborted struct {
	Reason error
}

func (Completed) processingEvent()             {}
func (Aborted) processingEvent()               {}
func (Failed) processingEvent()                {}
func (PendingUploadsUpdated) processingEvent() {}
func (WillFinishOrder) processingEvent()       {}

// Events fans engine notifications out to subscribers. Handlers run on the
// publishing goroutine, so they should hand the event off and return.
type Events struct {
	mu       sync.RWMutex
	handlers map[int]func(Event)
	nextID   int
}

func NewEvents() *Events {
	return &Events{
		handlers: make(map[int]func(Event)),
	}
}

func (e *Events) Subscribe(handler func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.handlers, id)
		})
	}
}

func (e *Events) Publish(event Event) {
	e.mu.RLock()
	handlers := make([]func(Event), 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

func (e *Events) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}
