// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlight-io/telemetry/pkg/telemetry"
)

// mockTransmitter records transmitted batches and can fail a configured
// number of times before succeeding.
type mockTransmitter struct {
	mu       sync.Mutex
	batches  [][]*telemetry.Item
	failures int
	calls    int
}

func (m *mockTransmitter) Transmit(ctx context.Context, items []*telemetry.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("backend unavailable")
	}
	batch := append([]*telemetry.Item{}, items...)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockTransmitter) transmitted() []*telemetry.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*telemetry.Item
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func newTestChannel(t *testing.T, cfg Config, tr Transmitter) *InMemoryChannel {
	t.Helper()
	ch, err := NewInMemoryChannel(cfg, tr, logr.Discard())
	require.NoError(t, err)
	return ch
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Capacity = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BatchSize = bad.Capacity + 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.FlushInterval = 0
	assert.Error(t, bad.Validate())
}

func TestNewInMemoryChannel_RequiresTransmitter(t *testing.T) {
	_, err := NewInMemoryChannel(DefaultConfig(), nil, logr.Discard())
	assert.ErrorIs(t, err, ErrNilTransmitter)
}

func TestInMemoryChannel_FlushDeliversBuffered(t *testing.T) {
	tr := &mockTransmitter{}
	cfg := DefaultConfig()
	ch := newTestChannel(t, cfg, tr)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		item := telemetry.New(telemetry.KindTrace, fmt.Sprintf("msg-%d", i))
		require.NoError(t, ch.Send(ctx, item))
	}

	require.NoError(t, ch.Flush(ctx))

	got := tr.transmitted()
	require.Len(t, got, 5)
	assert.Equal(t, "msg-0", got[0].Name, "oldest first")
	assert.Equal(t, "msg-4", got[4].Name)

	sent, dropped, errored := ch.Stats()
	assert.Equal(t, uint64(5), sent)
	assert.Zero(t, dropped)
	assert.Zero(t, errored)
}

func TestInMemoryChannel_DropsOldestWhenFull(t *testing.T) {
	tr := &mockTransmitter{}
	cfg := Config{Capacity: 3, BatchSize: 3, FlushInterval: time.Hour}
	ch := newTestChannel(t, cfg, tr)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		item := telemetry.New(telemetry.KindTrace, fmt.Sprintf("msg-%d", i))
		require.NoError(t, ch.Send(ctx, item))
	}
	require.NoError(t, ch.Flush(ctx))

	got := tr.transmitted()
	require.Len(t, got, 3)
	assert.Equal(t, "msg-2", got[0].Name, "two oldest items overwritten")

	_, dropped, _ := ch.Stats()
	assert.Equal(t, uint64(2), dropped)
}

func TestInMemoryChannel_BatchThresholdTriggersDrain(t *testing.T) {
	tr := &mockTransmitter{}
	cfg := Config{Capacity: 16, BatchSize: 4, FlushInterval: time.Hour}
	ch := newTestChannel(t, cfg, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ch.Start(ctx))

	for i := 0; i < 4; i++ {
		require.NoError(t, ch.Send(ctx, telemetry.New(telemetry.KindMetric, "m")))
	}

	require.Eventually(t, func() bool {
		return len(tr.transmitted()) == 4
	}, time.Second, 5*time.Millisecond, "drain fires on batch threshold, not only on the ticker")
}

func TestInMemoryChannel_PeriodicFlush(t *testing.T) {
	tr := &mockTransmitter{}
	cfg := Config{Capacity: 16, BatchSize: 16, FlushInterval: 20 * time.Millisecond}
	ch := newTestChannel(t, cfg, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ch.Start(ctx))

	require.NoError(t, ch.Send(ctx, telemetry.New(telemetry.KindEvent, "solo")))

	require.Eventually(t, func() bool {
		return len(tr.transmitted()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryChannel_RetriesTransmission(t *testing.T) {
	tr := &mockTransmitter{failures: 2}
	cfg := Config{Capacity: 16, BatchSize: 16, FlushInterval: time.Hour, MaxRetryTime: 5 * time.Second}
	ch := newTestChannel(t, cfg, tr)

	ctx := context.Background()
	require.NoError(t, ch.Send(ctx, telemetry.New(telemetry.KindTrace, "retry-me")))
	require.NoError(t, ch.Flush(ctx))

	assert.Len(t, tr.transmitted(), 1)
	tr.mu.Lock()
	assert.Equal(t, 3, tr.calls, "two failures then one success")
	tr.mu.Unlock()
}

func TestInMemoryChannel_FinalFlushOnShutdown(t *testing.T) {
	tr := &mockTransmitter{}
	cfg := Config{Capacity: 16, BatchSize: 16, FlushInterval: time.Hour}
	ch := newTestChannel(t, cfg, tr)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ch.Start(ctx))
	require.NoError(t, ch.Send(ctx, telemetry.New(telemetry.KindTrace, "last-words")))

	cancel()
	ch.Wait()

	assert.Len(t, tr.transmitted(), 1)
}

func TestWriterTransmitter_EncodesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	tr := NewWriterTransmitter(&buf)

	item := telemetry.New(telemetry.KindTrace, "hello")
	require.NoError(t, tr.Transmit(context.Background(), []*telemetry.Item{item}))

	assert.Contains(t, buf.String(), `"hello"`)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}
