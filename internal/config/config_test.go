// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
sinks:
  - name: default
    channel:
      type: memory
      capacity: 256
      batchSize: 32
      flushInterval: 2s
      maxRetryTime: 10s
  - name: debug
    channel:
      type: debug
      includeData: true
processors:
  - name: drop-source
    settings:
      source: noisy-service
  - name: annotate
async:
  maxConcurrency: 4
  timeout: 500ms
`

func TestParse_FullDefinition(t *testing.T) {
	f, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, f.Sinks, 2)
	assert.Equal(t, "default", f.Sinks[0].Name)
	assert.Equal(t, ChannelTypeMemory, f.Sinks[0].Channel.Type)
	assert.Equal(t, 256, f.Sinks[0].Channel.Capacity)
	assert.Equal(t, 2*time.Second, time.Duration(f.Sinks[0].Channel.FlushInterval))
	assert.True(t, f.Sinks[1].Channel.IncludeData)

	require.Len(t, f.Processors, 2)
	assert.Equal(t, "drop-source", f.Processors[0].Name)
	assert.Equal(t, "noisy-service", f.Processors[0].Settings["source"])

	require.NotNil(t, f.Async)
	assert.Equal(t, 4, f.Async.MaxConcurrency)
	assert.Equal(t, 500*time.Millisecond, time.Duration(f.Async.Timeout))
}

func TestParse_RejectsInvalidDuration(t *testing.T) {
	_, err := Parse([]byte(`
sinks:
  - name: default
    channel:
      type: memory
      flushInterval: soon
`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidate_RequiresSinks(t *testing.T) {
	_, err := Parse([]byte(`processors: []`))
	assert.ErrorContains(t, err, "at least one sink")
}

func TestValidate_RejectsDuplicateSinkNames(t *testing.T) {
	_, err := Parse([]byte(`
sinks:
  - name: default
    channel: {type: debug}
  - name: default
    channel: {type: debug}
`))
	assert.ErrorContains(t, err, "duplicate name")
}

func TestValidate_RejectsUnknownChannelType(t *testing.T) {
	_, err := Parse([]byte(`
sinks:
  - name: default
    channel: {type: carrier-pigeon}
`))
	assert.ErrorContains(t, err, "unknown channel type")
}

func TestValidate_RequiresProcessorName(t *testing.T) {
	_, err := Parse([]byte(`
sinks:
  - name: default
    channel: {type: debug}
processors:
  - settings: {a: b}
`))
	assert.ErrorContains(t, err, "name is required")
}
