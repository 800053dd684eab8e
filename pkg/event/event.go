// Package event provides an in-process event dispatcher.
package event

import (
	"fmt"
	"sync"

	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(payload interface{})

// Bus dispatches named events to registered listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	pool     *workerpool.Pool
}

// Option configures a Bus.
type Option func(*Bus)

// WithPool runs async listeners on pool instead of a goroutine each. When
// the pool is full or closed the listener runs on the firing goroutine.
func WithPool(pool *workerpool.Pool) Option {
	return func(b *Bus) { b.pool = pool }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{handlers: map[string][]Handler{}}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Listen registers handler for event.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) snapshot(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire runs every listener synchronously. A panicking listener is logged
// and does not stop the others.
func (b *Bus) Fire(event string, payload interface{}) {
	for _, h := range b.snapshot(event) {
		call(event, h, payload)
	}
}

// FireAsync runs every listener in the background and returns at once.
func (b *Bus) FireAsync(event string, payload interface{}) {
	for _, h := range b.snapshot(event) {
		b.wg.Add(1)
		task := func() {
			defer b.wg.Done()
			call(event, h, payload)
		}
		if b.pool == nil {
			go task()
			continue
		}
		if err := b.pool.Submit(task); err != nil {
			task()
		}
	}
}

// Wait blocks until all listeners started by FireAsync have returned.
func (b *Bus) Wait() { b.wg.Wait() }

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func call(event string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked", "event", event, "error", fmt.Sprintf("%v", r))
		}
	}()
	h(payload)
}
