package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeFIFO(t *testing.T) {
	p := NewPipe()
	p.Send(Msg{Payload: StatusUpdate{Message: "one"}})
	p.Send(Msg{Payload: StatusUpdate{Message: "two"}})
	p.Send(Msg{Payload: StatusUpdate{Message: "three"}})

	ctx := context.Background()
	for _, want := range []string{"one", "two", "three"} {
		m, ok := p.Next(ctx)
		require.True(t, ok)
		assert.Equal(t, want, m.Payload.(StatusUpdate).Message)
	}
	assert.Equal(t, 0, p.Len())
}

func TestPipeBlocksUntilSend(t *testing.T) {
	p := NewPipe()
	done := make(chan Msg, 1)
	go func() {
		m, _ := p.Next(context.Background())
		done <- m
	}()

	time.Sleep(20 * time.Millisecond)
	p.Send(Msg{Payload: Sending{}})

	select {
	case m := <-done:
		assert.IsType(t, Sending{}, m.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never woke up")
	}
}

func TestPipeContextCancel(t *testing.T) {
	p := NewPipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := p.Next(ctx)
	assert.False(t, ok)
}

func TestPipeCloseDrains(t *testing.T) {
	p := NewPipe()
	p.Send(Msg{Payload: StatusUpdate{Message: "queued"}})
	p.Close()

	assert.False(t, p.Send(Msg{Payload: Sending{}}), "send after close is rejected")

	ctx := context.Background()
	m, ok := p.Next(ctx)
	require.True(t, ok, "queued messages survive close")
	assert.Equal(t, "queued", m.Payload.(StatusUpdate).Message)

	_, ok = p.Next(ctx)
	assert.False(t, ok)
}

func TestPipeConcurrentProducers(t *testing.T) {
	p := NewPipe()
	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				p.Send(Msg{Payload: Sending{}})
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := p.TryNext(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}
