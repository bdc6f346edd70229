// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind identifies the family of a telemetry item.
type ItemKind string

const (
	KindTrace      ItemKind = "trace"      // Free-form diagnostic message
	KindMetric     ItemKind = "metric"     // Numeric measurement
	KindEvent      ItemKind = "event"      // Named application event
	KindException  ItemKind = "exception"  // Captured error or panic
	KindRequest    ItemKind = "request"    // Inbound operation
	KindDependency ItemKind = "dependency" // Outbound call to another component
)

// Item represents one captured telemetry record flowing through the pipeline.
//
// The Data field carries the kind-specific payload: a message string for
// KindTrace, a measurement value for KindMetric, and so on. Processors may
// read and replace Data but must not assume a concrete type beyond what the
// Kind implies.
type Item struct {
	// Record metadata
	ID        uuid.UUID
	Timestamp time.Time
	Source    string // e.g. "request-tracker", "background-worker"

	// Record identification
	Kind ItemKind
	Name string

	// Caller-supplied dimensions, copied into every transmission
	Properties map[string]string

	// Kind-specific payload
	Data any
}

// New creates an Item stamped with a fresh ID and the current time.
func New(kind ItemKind, name string) *Item {
	return &Item{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Kind:      kind,
		Name:      name,
	}
}

// SetProperty records a caller-supplied dimension on the item, allocating
// the property map on first use.
func (i *Item) SetProperty(key, value string) {
	if i.Properties == nil {
		i.Properties = make(map[string]string)
	}
	i.Properties[key] = value
}
