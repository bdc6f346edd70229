// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

var (
	// ErrNilConfiguration is returned when a builder is constructed without
	// a configuration.
	ErrNilConfiguration = errors.New("configuration is required")

	// ErrNilSink is returned when a sink-scoped builder is constructed
	// without a sink.
	ErrNilSink = errors.New("sink is required")

	// ErrNilChannel is returned when a sink is created without a channel.
	ErrNilChannel = errors.New("sink channel is required")

	// ErrEmptySinkName is returned when a sink is created without a name.
	ErrEmptySinkName = errors.New("sink name is required")
)

// Configuration owns the shared processor chain and the ordered collection of
// sinks it serves. The sink collection preserves insertion order, which fixes
// the dispatch order for sequential broadcast; sink names are unique within a
// configuration.
//
// The shared chain slot is single-writer: only a completed Build replaces it.
// Reads take no lock because replacement is rare and externally synchronized
// relative to steady-state Track calls.
type Configuration struct {
	logger logr.Logger

	mu    sync.RWMutex
	sinks []*Sink

	chain atomic.Pointer[ProcessorChain]
}

// NewConfiguration creates a configuration with the given default sink. The
// default sink is the first element of the sink collection and serves all
// telemetry until further sinks are added.
func NewConfiguration(defaultSink *Sink, logger logr.Logger) (*Configuration, error) {
	if defaultSink == nil {
		return nil, ErrNilSink
	}
	return &Configuration{
		logger: logger.WithName("telemetry-config"),
		sinks:  []*Sink{defaultSink},
	}, nil
}

// AddSink appends a sink to the collection. Sink names must be unique.
func (c *Configuration) AddSink(sink *Sink) error {
	if sink == nil {
		return ErrNilSink
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sinks {
		if s.name == sink.name {
			return fmt.Errorf("sink %s already registered", sink.name)
		}
	}
	c.sinks = append(c.sinks, sink)
	c.logger.Info("Sink registered", "sink", sink.name)
	return nil
}

// Sinks returns the sink collection in insertion order, default sink first.
// The returned slice is a copy.
func (c *Configuration) Sinks() []*Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Sink{}, c.sinks...)
}

// DefaultSink returns the configuration's designated default sink.
func (c *Configuration) DefaultSink() *Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sinks[0]
}

// Chain returns the shared processor chain, or nil when none has been built.
func (c *Configuration) Chain() *ProcessorChain {
	return c.chain.Load()
}

func (c *Configuration) setChain(chain *ProcessorChain) {
	c.chain.Store(chain)
}

// Track runs one item through the shared chain. Before any chain has been
// built, items are handed to every sink in order, which matches what an
// empty chain's terminal would do.
func (c *Configuration) Track(item *telemetry.Item) {
	if chain := c.chain.Load(); chain != nil {
		chain.Process(item)
		return
	}
	for _, s := range c.Sinks() {
		if err := s.deliver(context.Background(), item); err != nil {
			c.logger.V(1).Info("Failed to deliver item to sink",
				"sink", s.name, "item", item.ID, "error", err)
		}
	}
}
