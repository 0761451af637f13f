package wallet

import (
	"context"
	"sync"
)

// Pipe is the ordered, unbounded FIFO of updates flowing from the wallet to
// the UI.
//
// It is unbounded so state machine goroutines never block on a slow
// consumer; a blocked terminal sink would hold up ledger writes behind it.
//
// Producers call Send from any goroutine. The single consumer drains with
// Next. The signal channel is buffered with size 1 so repeated sends
// coalesce into one wakeup.
type Pipe struct {
	mu     sync.Mutex
	msgs   []Msg
	closed bool
	signal chan struct{}
}

// NewPipe creates an empty pipe.
func NewPipe() *Pipe {
	return &Pipe{
		msgs:   make([]Msg, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Send appends a message. Returns false if the pipe is closed.
func (p *Pipe) Send(m Msg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.msgs = append(p.msgs, m)

	select {
	case p.signal <- struct{}{}:
	default:
	}

	return true
}

// Next blocks until a message is available, the pipe is closed and drained,
// or ctx is done. The second return is false when no message was delivered.
func (p *Pipe) Next(ctx context.Context) (Msg, bool) {
	for {
		if m, ok := p.TryNext(); ok {
			return m, true
		}

		p.mu.Lock()
		if p.closed && len(p.msgs) == 0 {
			p.mu.Unlock()
			return Msg{}, false
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return Msg{}, false
		case <-p.signal:
		}
	}
}

// TryNext dequeues without blocking. Returns (Msg{}, false) if empty.
func (p *Pipe) TryNext() (Msg, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.msgs) == 0 {
		return Msg{}, false
	}

	m := p.msgs[0]

	// release the payload so the backing array does not retain it
	p.msgs[0] = Msg{}
	if len(p.msgs) == 1 {
		p.msgs = p.msgs[:0]
	} else {
		p.msgs = p.msgs[1:]
	}

	return m, true
}

// Len returns the number of queued messages.
func (p *Pipe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// Close marks the pipe as finished. Queued messages remain readable; the
// consumer sees (Msg{}, false) once drained.
func (p *Pipe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.signal)
}
