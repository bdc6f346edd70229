// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/internal/channel"
	"github.com/flowlight-io/telemetry/internal/pipeline"
)

// Pipeline is an assembled telemetry pipeline: the configuration holding the
// processor chain and sinks, plus the channels that need a running sender.
type Pipeline struct {
	Config *pipeline.Configuration

	channels []*channel.InMemoryChannel
}

// Start launches the background senders of all memory channels.
func (p *Pipeline) Start(ctx context.Context) error {
	for _, ch := range p.channels {
		if err := ch.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until every channel's sender has exited.
func (p *Pipeline) Wait() {
	for _, ch := range p.channels {
		ch.Wait()
	}
}

// Flush synchronously drains every memory channel.
func (p *Pipeline) Flush(ctx context.Context) error {
	var lastErr error
	for _, ch := range p.channels {
		if err := ch.Flush(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Assemble builds a pipeline from a loaded definition. Memory channels drain
// into the given transmitter; debug channels log through the given logger.
// Processor names resolve through the registry, and unresolvable stages are
// omitted per the chain builder's failure tolerance.
func Assemble(f *File, reg *Registry, tr channel.Transmitter, logger logr.Logger) (*Pipeline, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{}

	var sinks []*pipeline.Sink
	for _, sc := range f.Sinks {
		ch, memCh, err := buildChannel(sc.Channel, tr, logger)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		if memCh != nil {
			p.channels = append(p.channels, memCh)
		}

		sink, err := pipeline.NewSink(sc.Name, ch)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", sc.Name, err)
		}
		sinks = append(sinks, sink)
	}

	cfg, err := pipeline.NewConfiguration(sinks[0], logger)
	if err != nil {
		return nil, err
	}
	for _, s := range sinks[1:] {
		if err := cfg.AddSink(s); err != nil {
			return nil, err
		}
	}
	p.Config = cfg

	if err := buildChain(f, reg, cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// buildChain constructs and installs the shared chain described by f. It is
// also the rebuild path used by the watcher: a fresh builder per call, whose
// Build atomically replaces the installed chain.
func buildChain(f *File, reg *Registry, cfg *pipeline.Configuration) error {
	var opts []pipeline.BuilderOption
	if f.Async != nil {
		opts = append(opts, pipeline.WithAsyncOptions(&pipeline.AsyncCallOptions{
			MaxConcurrency: f.Async.MaxConcurrency,
			Timeout:        time.Duration(f.Async.Timeout),
		}))
	}

	builder, err := pipeline.NewChainBuilder(cfg, opts...)
	if err != nil {
		return err
	}
	for _, pc := range f.Processors {
		builder.Use(reg.Factory(pc))
	}
	builder.Build()
	return nil
}

func buildChannel(cc ChannelConfig, tr channel.Transmitter, logger logr.Logger) (pipeline.Channel, *channel.InMemoryChannel, error) {
	switch cc.Type {
	case ChannelTypeDebug:
		return channel.NewDebugChannel(logger, cc.IncludeData), nil, nil
	case ChannelTypeMemory:
		chCfg := channel.DefaultConfig()
		if cc.Capacity > 0 {
			chCfg.Capacity = cc.Capacity
		}
		if cc.BatchSize > 0 {
			chCfg.BatchSize = cc.BatchSize
		}
		if cc.FlushInterval > 0 {
			chCfg.FlushInterval = time.Duration(cc.FlushInterval)
		}
		if cc.MaxRetryTime > 0 {
			chCfg.MaxRetryTime = time.Duration(cc.MaxRetryTime)
		}
		memCh, err := channel.NewInMemoryChannel(chCfg, tr, logger)
		if err != nil {
			return nil, nil, err
		}
		return memCh, memCh, nil
	default:
		return nil, nil, fmt.Errorf("unknown channel type %q", cc.Type)
	}
}
