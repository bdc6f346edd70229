// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

// Package pipeline assembles telemetry processors into ordered chains and
// dispatches processed items to one or more transmission sinks.
//
// Callers register processor factories with a ChainBuilder in the order the
// processors should see incoming telemetry. Build wires the factories around
// a terminal processor chosen from the builder's target: a single sink's
// channel, a broadcast across every configured sink, or one specific sink
// when the chain is sink-scoped.
package pipeline

import (
	"context"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Processor is one stage of a telemetry pipeline. A processor either forwards
// the item to its successor, transforms it first, or drops it by not
// forwarding. Non-terminal processors hold a reference to exactly one
// successor; terminal processors hold sink channels instead.
type Processor interface {
	Process(item *telemetry.Item)
}

// ProcessorFactory constructs a processor wrapping the given successor.
// Factories must be pure with respect to chain structure: they may not reach
// past next or mutate the chain being assembled.
//
// Returning an error (or a nil processor) signals that the stage could not be
// constructed. This is recoverable: Build omits the stage and continues.
// Reporting the failure is the factory's responsibility, not the builder's.
type ProcessorFactory func(next Processor) (Processor, error)

// Channel accepts telemetry items for eventual delivery to a backend. Retry
// and queueing behavior live behind this interface.
type Channel interface {
	Send(ctx context.Context, item *telemetry.Item) error
}
