// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

// BuilderOption configures a ChainBuilder at construction time.
type BuilderOption func(*ChainBuilder) error

// ForSink scopes the builder to one sink: the built chain is installed on
// that sink and its terminal transmits only to that sink's channel.
func ForSink(sink *Sink) BuilderOption {
	return func(b *ChainBuilder) error {
		if sink == nil {
			return ErrNilSink
		}
		b.sink = sink
		return nil
	}
}

// WithAsyncOptions sets the dispatch options for the broadcast terminal.
// Without them, broadcast dispatch is sequential and synchronous in sink
// order.
func WithAsyncOptions(opts *AsyncCallOptions) BuilderOption {
	return func(b *ChainBuilder) error {
		b.async = opts
		return nil
	}
}

// ChainBuilder accumulates processor factories and assembles them into one
// ProcessorChain. A builder is created per intended chain, loaded via Use,
// and consumed by a single Build call that installs the result into its
// target.
type ChainBuilder struct {
	cfg       *Configuration
	sink      *Sink
	async     *AsyncCallOptions
	factories []ProcessorFactory
}

// NewChainBuilder creates a builder targeting the given configuration. The
// configuration is mandatory; passing nil is a precondition violation
// reported here, never deferred into Build.
func NewChainBuilder(cfg *Configuration, opts ...BuilderOption) (*ChainBuilder, error) {
	if cfg == nil {
		return nil, ErrNilConfiguration
	}
	b := &ChainBuilder{cfg: cfg}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Use appends a factory to the registration list. Registration order is
// execution order: the first factory registered produces the first processor
// an incoming item sees. Factories are not validated here; construction
// failures surface during Build and degrade the chain instead of aborting it.
func (b *ChainBuilder) Use(factory ProcessorFactory) *ChainBuilder {
	b.factories = append(b.factories, factory)
	return b
}

// Build assembles the chain and installs it into the builder's target: the
// scoped sink when one was given, the shared configuration otherwise.
//
// Assembly starts from the terminal processor and walks the factories in
// reverse registration order so that every factory receives its fully-formed
// successor. A factory that fails is skipped entirely; the stage it would
// have produced is absent from the chain, with no placeholder and no retry.
//
// Build reads the factory list without consuming it.
func (b *ChainBuilder) Build() *ProcessorChain {
	terminal := b.terminalProcessor()

	// Chain in reverse execution order, terminal first.
	reversed := []Processor{terminal}
	current := terminal
	for i := len(b.factories) - 1; i >= 0; i-- {
		p, err := b.factories[i](current)
		if err != nil || p == nil {
			continue
		}
		current = p
		reversed = append(reversed, p)
	}

	processors := make([]Processor, len(reversed))
	for i, p := range reversed {
		processors[len(reversed)-1-i] = p
	}
	chain := &ProcessorChain{processors: processors}

	if b.sink != nil {
		b.sink.setChain(chain)
	} else {
		b.cfg.setChain(chain)
	}
	return chain
}

// terminalProcessor resolves the processor closest to transmission. A
// sink-scoped chain transmits straight onto its sink's channel. A shared
// chain forwards to the single configured sink, or broadcasts when the
// configuration serves several.
func (b *ChainBuilder) terminalProcessor() Processor {
	if b.sink != nil {
		return &transmitProcessor{channel: b.sink.channel}
	}
	sinks := b.cfg.Sinks()
	if len(sinks) == 1 {
		return &sinkProcessor{sink: sinks[0], logger: b.cfg.logger}
	}
	return &broadcastProcessor{
		sinks:  sinks,
		opts:   b.async,
		logger: b.cfg.logger,
	}
}
