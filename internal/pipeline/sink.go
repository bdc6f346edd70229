// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Sink is a named destination owning exactly one transmission channel. A sink
// may additionally carry its own processor chain, installed by a sink-scoped
// ChainBuilder; items handed to the sink pass through that chain before
// reaching the channel.
type Sink struct {
	name    string
	channel Channel

	// Replaced only by a completed Build; read lock-free on the hot path.
	chain atomic.Pointer[ProcessorChain]
}

// NewSink creates a sink delivering to the given channel.
func NewSink(name string, channel Channel) (*Sink, error) {
	if name == "" {
		return nil, ErrEmptySinkName
	}
	if channel == nil {
		return nil, ErrNilChannel
	}
	return &Sink{name: name, channel: channel}, nil
}

// Name returns the sink's unique name within its configuration.
func (s *Sink) Name() string {
	return s.name
}

// Channel returns the sink's transmission channel.
func (s *Sink) Channel() Channel {
	return s.channel
}

// Chain returns the sink-scoped processor chain, or nil when none has been
// built for this sink.
func (s *Sink) Chain() *ProcessorChain {
	return s.chain.Load()
}

func (s *Sink) setChain(chain *ProcessorChain) {
	s.chain.Store(chain)
}

// deliver hands one item to the sink: through its own chain when one is
// installed, otherwise straight onto the channel.
func (s *Sink) deliver(ctx context.Context, item *telemetry.Item) error {
	if chain := s.chain.Load(); chain != nil {
		chain.Process(item)
		return nil
	}
	return s.channel.Send(ctx, item)
}
