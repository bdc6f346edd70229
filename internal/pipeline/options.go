// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package pipeline

import "time"

// AsyncCallOptions describes how the broadcast terminal schedules dispatch
// to multiple sinks. The value is read-only once handed to a builder.
type AsyncCallOptions struct {
	// MaxConcurrency bounds simultaneous sink dispatches. Zero or negative
	// means one goroutine per sink.
	MaxConcurrency int

	// Timeout bounds the total broadcast duration for one item. Sinks not
	// yet dispatched when it elapses are skipped for that item. Zero means
	// no deadline.
	Timeout time.Duration

	// Done aborts pending dispatches when closed. Optional.
	Done <-chan struct{}
}
