package storage

import (
	"context"
	"sync"
)

// MemoryPort keeps the collection in process memory. Used in tests and as
// a last-resort fallback when no durable medium is configured.
type MemoryPort struct {
	mu          sync.RWMutex
	data        []byte
	subscribers []func()
	closed      bool

	// WriteErr, when set, is returned by Write. Lets tests exercise the
	// store's write-failure path.
	WriteErr error
}

// NewMemoryPort creates an empty in-memory port.
func NewMemoryPort() *MemoryPort {
	return &MemoryPort{}
}

func (p *MemoryPort) Read(_ context.Context) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.data == nil {
		return nil, nil
	}
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out, nil
}

func (p *MemoryPort) Write(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.WriteErr != nil {
		return p.WriteErr
	}
	p.data = make([]byte, len(data))
	copy(p.data, data)
	return nil
}

func (p *MemoryPort) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// SimulateForeignWrite replaces the value as if another context wrote it
// and fires the change signal. Test helper.
func (p *MemoryPort) SimulateForeignWrite(data []byte) {
	p.mu.Lock()
	p.data = make([]byte, len(data))
	copy(p.data, data)
	subs := make([]func(), len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (p *MemoryPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
