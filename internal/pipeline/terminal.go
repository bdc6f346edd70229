// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Compile-time checks
var _ Processor = (*transmitProcessor)(nil)
var _ Processor = (*sinkProcessor)(nil)
var _ Processor = (*broadcastProcessor)(nil)

// transmitProcessor terminates a sink-scoped chain: items go straight onto
// the sink's channel.
type transmitProcessor struct {
	channel Channel
}

func (p *transmitProcessor) Process(item *telemetry.Item) {
	// Delivery errors are the channel's domain; nothing upstream can act
	// on them.
	_ = p.channel.Send(context.Background(), item)
}

// sinkProcessor terminates a shared chain serving exactly one sink.
type sinkProcessor struct {
	sink   *Sink
	logger logr.Logger
}

func (p *sinkProcessor) Process(item *telemetry.Item) {
	if err := p.sink.deliver(context.Background(), item); err != nil {
		p.logger.V(1).Info("Failed to deliver item to sink",
			"sink", p.sink.name, "item", item.ID, "error", err)
	}
}

// broadcastProcessor terminates a shared chain serving two or more sinks.
// Every sink receives an independent delivery of each item; one sink's
// failure never suppresses delivery to the others.
//
// Without AsyncCallOptions, dispatch is sequential and synchronous in sink
// order. With them, dispatch fans out across goroutines bounded by
// MaxConcurrency and Process returns without waiting for delivery to finish;
// cross-sink ordering is forfeited but each sink is invoked at most once per
// item. When the timeout elapses or the done signal fires mid-broadcast,
// sinks not yet dispatched are skipped without retry.
type broadcastProcessor struct {
	sinks  []*Sink
	opts   *AsyncCallOptions
	logger logr.Logger
}

func (p *broadcastProcessor) Process(item *telemetry.Item) {
	if p.opts == nil {
		p.sequential(item)
		return
	}
	p.concurrent(item)
}

func (p *broadcastProcessor) sequential(item *telemetry.Item) {
	for _, s := range p.sinks {
		if err := s.deliver(context.Background(), item); err != nil {
			p.logger.V(1).Info("Failed to deliver item to sink",
				"sink", s.name, "item", item.ID, "error", err)
		}
	}
}

func (p *broadcastProcessor) concurrent(item *telemetry.Item) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if p.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	if done := p.opts.Done; done != nil {
		select {
		case <-done:
			// Already signalled; no dispatch should start.
			cancel()
		default:
			go func() {
				select {
				case <-done:
					cancel()
				case <-ctx.Done():
				}
			}()
		}
	}

	limit := p.opts.MaxConcurrency
	if limit <= 0 || limit > len(p.sinks) {
		limit = len(p.sinks)
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	aborted := -1
loop:
	for i, s := range p.sinks {
		if ctx.Err() != nil {
			aborted = i
			break loop
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			aborted = i
			break loop
		}

		wg.Add(1)
		go func(s *Sink) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.deliver(ctx, item); err != nil {
				p.logger.V(1).Info("Failed to deliver item to sink",
					"sink", s.name, "item", item.ID, "error", err)
			}
		}(s)
	}

	if aborted >= 0 {
		p.logger.V(1).Info("Broadcast aborted, skipping remaining sinks",
			"item", item.ID, "skipped", len(p.sinks)-aborted, "reason", ctx.Err())
	}

	// The caller does not wait for the fan-out; release the context once
	// every dispatch has finished.
	go func() {
		wg.Wait()
		cancel()
	}()
}
