// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/internal/pipeline"
	"github.com/flowlight-io/telemetry/pkg/ringbuffer"
	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Compile-time check
var _ pipeline.Channel = (*InMemoryChannel)(nil)

var (
	// ErrNilTransmitter is returned when a channel is created without a
	// transmitter.
	ErrNilTransmitter = errors.New("transmitter is required")
)

// Config controls buffering and transmission of an InMemoryChannel.
type Config struct {
	// Capacity is the ring buffer size. When full, the oldest buffered
	// item is overwritten.
	Capacity int

	// BatchSize is the number of buffered items that triggers an early
	// drain ahead of the flush interval.
	BatchSize int

	// FlushInterval is how often buffered items are drained regardless of
	// batch size.
	FlushInterval time.Duration

	// MaxRetryTime caps the exponential-backoff retries for one batch.
	// Zero disables retries.
	MaxRetryTime time.Duration
}

// DefaultConfig returns the buffering defaults used by the agent.
func DefaultConfig() Config {
	return Config{
		Capacity:      1024,
		BatchSize:     128,
		FlushInterval: 5 * time.Second,
		MaxRetryTime:  30 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.BatchSize > c.Capacity {
		return errors.New("batch size cannot exceed capacity")
	}
	if c.FlushInterval <= 0 {
		return errors.New("flush interval must be positive")
	}
	return nil
}

// InMemoryChannel buffers telemetry in a drop-oldest ring buffer and drains
// it to a Transmitter in batches from a background goroutine. Send never
// blocks the telemetry-recording call site.
type InMemoryChannel struct {
	config      Config
	logger      logr.Logger
	transmitter Transmitter

	mu     sync.Mutex
	buf    *ringbuffer.RingBuffer[*telemetry.Item]
	notify chan struct{}

	wg sync.WaitGroup

	// Counters
	itemsSent    atomic.Uint64
	itemsDropped atomic.Uint64
	errorsCount  atomic.Uint64
}

// NewInMemoryChannel creates a channel draining into the given transmitter.
// Start must be called before items are transmitted; Send buffers either way.
func NewInMemoryChannel(config Config, transmitter Transmitter, logger logr.Logger) (*InMemoryChannel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if transmitter == nil {
		return nil, ErrNilTransmitter
	}

	buf, err := ringbuffer.New[*telemetry.Item](config.Capacity)
	if err != nil {
		return nil, err
	}

	return &InMemoryChannel{
		config:      config,
		logger:      logger.WithName("inmemory-channel"),
		transmitter: transmitter,
		buf:         buf,
		notify:      make(chan struct{}, 1),
	}, nil
}

// Send accepts an item for eventual delivery. It never blocks: when the
// buffer is full the oldest buffered item is dropped in favor of the new one.
func (c *InMemoryChannel) Send(ctx context.Context, item *telemetry.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.buf.Len() == c.buf.Cap() {
		c.itemsDropped.Add(1)
	}
	c.buf.Push(item)
	full := c.buf.Len() >= c.config.BatchSize
	c.mu.Unlock()

	if full {
		select {
		case c.notify <- struct{}{}:
		default:
			// Drain already pending
		}
	}
	return nil
}

// Start launches the background sender. It returns immediately; the sender
// runs until ctx is cancelled, flushing whatever remains on the way out.
func (c *InMemoryChannel) Start(ctx context.Context) error {
	c.logger.Info("Starting in-memory channel",
		"capacity", c.config.Capacity,
		"batch_size", c.config.BatchSize,
		"flush_interval", c.config.FlushInterval)

	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// Wait blocks until the background sender has exited.
func (c *InMemoryChannel) Wait() {
	c.wg.Wait()
}

// Flush synchronously drains and transmits everything currently buffered.
func (c *InMemoryChannel) Flush(ctx context.Context) error {
	return c.drain(ctx)
}

// Stats reports lifetime channel counters.
func (c *InMemoryChannel) Stats() (sent, dropped, errored uint64) {
	return c.itemsSent.Load(), c.itemsDropped.Load(), c.errorsCount.Load()
}

func (c *InMemoryChannel) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.notify:
			if err := c.drain(ctx); err != nil {
				c.logger.V(1).Info("Batch drain failed", "error", err)
			}
		case <-ticker.C:
			if err := c.drain(ctx); err != nil {
				c.logger.V(1).Info("Periodic drain failed", "error", err)
			}
		case <-ctx.Done():
			// Final flush; the parent context is gone, so bound it.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.drain(flushCtx); err != nil {
				c.logger.V(1).Info("Final drain failed", "error", err)
			}
			cancel()
			c.logger.Info("In-memory channel stopped",
				"items_sent", c.itemsSent.Load(),
				"items_dropped", c.itemsDropped.Load(),
				"errors", c.errorsCount.Load())
			return
		}
	}
}

// drain takes everything out of the buffer and transmits it in batches of at
// most BatchSize, retrying each batch with exponential backoff.
func (c *InMemoryChannel) drain(ctx context.Context) error {
	c.mu.Lock()
	items := c.buf.GetAll()
	c.buf.Clear()
	c.mu.Unlock()

	if len(items) == 0 {
		return nil
	}

	var lastErr error
	for start := 0; start < len(items); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		if err := c.transmit(ctx, batch); err != nil {
			c.errorsCount.Add(1)
			lastErr = err
			continue
		}
		c.itemsSent.Add(uint64(len(batch)))
	}
	return lastErr
}

func (c *InMemoryChannel) transmit(ctx context.Context, batch []*telemetry.Item) error {
	if c.config.MaxRetryTime <= 0 {
		return c.transmitter.Transmit(ctx, batch)
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := c.transmitter.Transmit(ctx, batch); err != nil {
			c.logger.V(1).Info("Transmission failed, retrying", "batch_size", len(batch), "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.config.MaxRetryTime),
	)
	return err
}
