// Package push delivers dispatched responses to external notification
// channels. A push consumer only acts when the response metadata explicitly
// lists its channel name; absent or empty channel lists mean no push, so an
// unadorned response never leaves the process.
package push

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/router"
)

// defaultPushTimeout bounds a single push delivery.
const defaultPushTimeout = 10 * time.Second

// Notifier sends one notification to an external channel.
type Notifier interface {
	Push(ctx context.Context, title, body string) error
}

// Options configures a push Consumer.
type Options struct {
	// Timeout bounds a single push delivery. Defaults to 10s.
	Timeout time.Duration

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// Consumer adapts a Notifier into a named router consumer. Delivery is
// gated by the response's metadata.push.channels list and push failures are
// logged, never propagated, so a broken channel cannot fail a dispatch.
type Consumer struct {
	name     string
	notifier Notifier
	timeout  time.Duration
	logger   logging.Logger
}

// NewConsumer creates a named push consumer around a notifier.
func NewConsumer(name string, notifier Notifier, optFns ...func(o *Options)) *Consumer {
	opts := Options{
		Timeout: defaultPushTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Consumer{
		name:     name,
		notifier: notifier,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Name returns the channel name this consumer answers to.
func (c *Consumer) Name() string {
	return c.name
}

// Consumer returns the router-facing consumer. Push deliveries may take a
// while, so it registers as blocking.
func (c *Consumer) Consumer() router.Consumer {
	return router.Blocking(c.handle)
}

func (c *Consumer) handle(resp payload.Response) error {
	if !c.allowedByChannels(resp.Metadata) {
		return nil
	}

	title := "message"
	if source, ok := resp.Metadata["source"].(string); ok && source != "" {
		title = source
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	err := c.notifier.Push(ctx, title, resp.DisplayText())

	if rl, ok := c.logger.(*logging.RouterLogger); ok {
		rl.LogPushDelivery(c.name, time.Since(start), err)
	} else if err != nil {
		c.logger.Error("push.failed", "channel", c.name, "error", err.Error())
	}

	// Push failures never propagate to the router.
	return nil
}

// allowedByChannels applies the channel filter: the push happens only when
// metadata.push.channels is a non-empty list containing this consumer's
// name. Anything else, including a missing or malformed list, declines.
func (c *Consumer) allowedByChannels(metadata map[string]any) bool {
	pushMD, ok := metadata["push"].(map[string]any)
	if !ok {
		return false
	}

	var channels []string
	switch raw := pushMD["channels"].(type) {
	case []string:
		channels = raw
	case []any:
		for _, v := range raw {
			if s, ok := v.(string); ok {
				channels = append(channels, s)
			}
		}
	}

	for _, ch := range channels {
		if ch == c.name {
			return true
		}
	}

	return false
}
