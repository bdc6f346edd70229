// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package channel

import (
	"context"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/flowlight-io/telemetry/internal/pipeline"
	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Compile-time check
var _ pipeline.Channel = (*DebugChannel)(nil)

// DebugChannel logs every item it receives instead of transmitting it.
// Useful for inspecting what a pipeline emits without a backend.
type DebugChannel struct {
	logger      logr.Logger
	includeData bool

	itemsSeen atomic.Uint64
}

func NewDebugChannel(logger logr.Logger, includeData bool) *DebugChannel {
	return &DebugChannel{
		logger:      logger.WithName("debug-channel"),
		includeData: includeData,
	}
}

func (c *DebugChannel) Send(ctx context.Context, item *telemetry.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.itemsSeen.Add(1)

	keysAndValues := []any{
		"id", item.ID,
		"kind", item.Kind,
		"name", item.Name,
		"source", item.Source,
		"timestamp", item.Timestamp,
	}
	if c.includeData {
		keysAndValues = append(keysAndValues, "properties", item.Properties, "data", item.Data)
	}
	c.logger.Info("Telemetry item", keysAndValues...)
	return nil
}

// ItemsSeen returns how many items the channel has logged.
func (c *DebugChannel) ItemsSeen() uint64 {
	return c.itemsSeen.Load()
}
