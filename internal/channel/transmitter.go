// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

// Package channel provides transmission channel implementations that move
// telemetry items from the end of a processor chain toward a backend.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// Transmitter moves one batch of telemetry items to a backend. It is the
// boundary the InMemoryChannel drains into; implementations own their wire
// format and endpoint.
type Transmitter interface {
	Transmit(ctx context.Context, items []*telemetry.Item) error
}

// WriterTransmitter writes batches as JSON lines to an io.Writer. It backs
// the agent's stdout mode and is handy in tests.
type WriterTransmitter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterTransmitter(w io.Writer) *WriterTransmitter {
	return &WriterTransmitter{w: w}
}

func (t *WriterTransmitter) Transmit(ctx context.Context, items []*telemetry.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	enc := json.NewEncoder(t.w)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
	}
	return nil
}
