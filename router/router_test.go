package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Registration Tests --------------------

func TestRegisterUnregister(t *testing.T) {
	r := New()

	id := r.Register(NonBlocking(func(_ payload.Response) error { return nil }))
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, r.ConsumerCount())

	r.Unregister(id)
	assert.Equal(t, 0, r.ConsumerCount())

	// Double unregister is a no-op
	r.Unregister(id)
	assert.Equal(t, 0, r.ConsumerCount())
}

func TestRegisterIDsUnique(t *testing.T) {
	r := New()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := r.Register(NonBlocking(func(_ payload.Response) error { return nil }))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

// -------------------- Dispatch Fan-Out Tests --------------------

func TestDispatch_ExactlyOncePerConsumer(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var counts [5]int32
	for i := 0; i < 5; i++ {
		i := i
		if i == 2 {
			// One consumer fails; siblings must still be delivered to.
			r.Register(NonBlocking(func(_ payload.Response) error {
				atomic.AddInt32(&counts[i], 1)
				return errors.New("consumer down")
			}))
			continue
		}
		r.Register(NonBlocking(func(_ payload.Response) error {
			atomic.AddInt32(&counts[i], 1)
			return nil
		}))
	}

	err := r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi"))
	require.NoError(t, err)

	for i := range counts {
		assert.Equal(t, int32(1), atomic.LoadInt32(&counts[i]))
	}
}

func TestDispatch_ConsumerPanicIsolated(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var delivered int32
	r.Register(NonBlocking(func(_ payload.Response) error {
		panic("boom")
	}))
	r.Register(NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}))

	err := r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}

func TestDispatch_TransportErrorPropagates(t *testing.T) {
	r := New(WithTransport(func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("wire down")
	}))

	var delivered int32
	r.Register(NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}))

	err := r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "wire down")
	assert.Equal(t, int32(0), atomic.LoadInt32(&delivered))
}

func TestDispatch_ResponseContent(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var (
		mu  sync.Mutex
		got payload.Response
	)
	r.Register(NonBlocking(func(resp payload.Response) error {
		mu.Lock()
		got = resp
		mu.Unlock()
		return nil
	}))

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "you said: hi", got.Text)
	assert.Equal(t, "core", got.Metadata["source"])
}

// -------------------- Visibility Tests --------------------

func TestDispatch_RegistrationVisibility(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var count int32
	id := r.Register(NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("one")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))

	r.Unregister(id)

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("two")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestShutdown(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var count int32
	r.Register(NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))
	r.Register(Blocking(func(_ payload.Response) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))

	r.Shutdown()
	assert.Equal(t, 0, r.ConsumerCount())

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

// -------------------- Blocking Pool Tests --------------------

func TestDispatch_BlockingPoolBounded(t *testing.T) {
	r := New(
		WithTransport(transport.InProcess(engine.New())),
		WithWorkerPoolSize(2),
	)

	var (
		running int32
		peak    int32
	)
	for i := 0; i < 6; i++ {
		r.Register(Blocking(func(_ payload.Response) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}))
	}

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDispatch_MixedConsumers(t *testing.T) {
	r := New(WithTransport(transport.InProcess(engine.New())))

	var count int32
	r.Register(NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))
	r.Register(Blocking(func(_ payload.Response) error {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&count, 1)
		return nil
	}))

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))
	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}

// -------------------- Default Transport Tests --------------------

func TestDispatch_DefaultSimulatedTransport(t *testing.T) {
	r := New()

	var (
		mu  sync.Mutex
		got payload.Response
	)
	r.Register(NonBlocking(func(resp payload.Response) error {
		mu.Lock()
		got = resp
		mu.Unlock()
		return nil
	}))

	require.NoError(t, r.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("ping")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "echo: ping", got.Text)
}
