// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

import "github.com/flowlight-io/telemetry/pkg/telemetry"

// ProcessorChain is the finished, ordered sequence of processors produced by
// a ChainBuilder. The first element is the first processor to see an incoming
// item; the last is the terminal processor connected to at least one sink
// channel. Chains are immutable after assembly; replacing one means building
// a new chain, never editing an installed one.
type ProcessorChain struct {
	processors []Processor
}

// Process runs the item through the pipeline starting at the first processor.
// Each processor decides whether the item reaches its successor.
func (c *ProcessorChain) Process(item *telemetry.Item) {
	if c == nil || len(c.processors) == 0 {
		return
	}
	c.processors[0].Process(item)
}

// Len returns the number of processors in the chain, terminal included.
func (c *ProcessorChain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.processors)
}
