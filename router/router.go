// Package router fans dispatched responses out to registered consumers. It
// owns the consumer registry, pushes each request through a pluggable
// transport, and delivers the response to every registered consumer exactly
// once per dispatch while isolating consumer failures from each other and
// from the caller.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/transport"
)

// DefaultWorkerPoolSize bounds concurrently running blocking consumers.
const DefaultWorkerPoolSize = 4

// defaultSimulatedDelay is the artificial latency of the fallback
// transport.
const defaultSimulatedDelay = 100 * time.Millisecond

// Options configures a Router instance using the functional options
// pattern.
type Options struct {
	// Transport carries requests to the backend. Defaults to a simulated
	// echo transport if nil.
	Transport transport.Transport

	// WorkerPoolSize bounds concurrently running blocking consumers.
	// Values below 1 fall back to DefaultWorkerPoolSize.
	WorkerPoolSize int

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// WithTransport sets the backend transport.
func WithTransport(tr transport.Transport) func(o *Options) {
	return func(o *Options) {
		o.Transport = tr
	}
}

// WithWorkerPoolSize sets the blocking consumer pool size.
func WithWorkerPoolSize(n int) func(o *Options) {
	return func(o *Options) {
		o.WorkerPoolSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Router dispatches requests through a transport and fans the response out
// to every registered consumer.
//
// Registration and unregistration take effect synchronously under the
// registry lock: once Register returns, the consumer is visible to the next
// dispatch; once Unregister returns, the consumer receives nothing from
// later dispatches. A dispatch already past its registry snapshot may still
// deliver to a consumer unregistered mid-flight.
type Router struct {
	mu        sync.RWMutex
	consumers map[string]Consumer

	transport transport.Transport
	workers   chan struct{}
	logger    logging.Logger
}

// New creates a Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		WorkerPoolSize: DefaultWorkerPoolSize,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Transport == nil {
		opts.Transport = transport.Simulated(defaultSimulatedDelay)
	}

	if opts.WorkerPoolSize < 1 {
		opts.WorkerPoolSize = DefaultWorkerPoolSize
	}

	return &Router{
		consumers: make(map[string]Consumer),
		transport: opts.Transport,
		workers:   make(chan struct{}, opts.WorkerPoolSize),
		logger:    opts.Logger,
	}
}

// Register adds a consumer and returns its registration id. The consumer is
// visible to any dispatch that starts after Register returns.
func (r *Router) Register(c Consumer) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.consumers[id] = c
	count := len(r.consumers)
	r.mu.Unlock()

	r.logger.Debug("router.register", "consumerID", id, "blocking", c.IsBlocking(), "consumers", count)

	return id
}

// Unregister removes the consumer registered under id. Unknown or already
// removed ids are a no-op.
func (r *Router) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.consumers[id]
	delete(r.consumers, id)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("router.unregister", "consumerID", id)
	}
}

// ConsumerCount returns the number of registered consumers.
func (r *Router) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumers)
}

// Dispatch sends the request through the transport and delivers the
// response to every registered consumer exactly once.
//
// The registry is snapshotted under the lock and released before any
// consumer runs, so a slow consumer never blocks registration. Consumer
// errors and panics are recovered and logged per consumer; only a
// transport failure is returned to the caller. Dispatch blocks until every
// consumer for this dispatch has finished.
func (r *Router) Dispatch(ctx context.Context, req payload.Request) error {
	start := time.Now()

	out, err := r.transport(ctx, req.ToMap())
	if err != nil {
		r.logger.Error("router.dispatch.transport_failed", "error", err.Error())
		return fmt.Errorf("transport: %w", err)
	}

	resp := payload.ResponseFromMap(out)

	r.mu.RLock()
	snapshot := make(map[string]Consumer, len(r.consumers))
	for id, c := range r.consumers {
		snapshot[id] = c
	}
	r.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		failMu   sync.Mutex
		failures int
	)

	for id, c := range snapshot {
		wg.Add(1)

		go func(id string, c Consumer) {
			defer wg.Done()

			if c.IsBlocking() {
				r.workers <- struct{}{}
				defer func() { <-r.workers }()
			}

			if err := r.deliver(id, c, resp); err != nil {
				failMu.Lock()
				failures++
				failMu.Unlock()
			}
		}(id, c)
	}

	wg.Wait()

	r.logger.Info("router.dispatch.done",
		"consumers", len(snapshot),
		"failures", failures,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// deliver runs one consumer, converting panics into errors so a misbehaving
// handler cannot take down the dispatch.
func (r *Router) deliver(id string, c Consumer, resp payload.Response) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("consumer panic: %v", rec)
			r.logger.Error("router.consumer.panic", "consumerID", id, "panic", fmt.Sprintf("%v", rec))
		}
	}()

	if c.handler == nil {
		return nil
	}

	if err := c.handler(resp); err != nil {
		r.logger.Warn("router.consumer.error", "consumerID", id, "error", err.Error())
		return err
	}

	return nil
}

// Shutdown clears the consumer registry. Dispatches that started earlier
// finish with their snapshot; later dispatches deliver to nobody.
func (r *Router) Shutdown() {
	r.mu.Lock()
	count := len(r.consumers)
	r.consumers = make(map[string]Consumer)
	r.mu.Unlock()

	r.logger.Info("router.shutdown", "consumers_dropped", count)
}
