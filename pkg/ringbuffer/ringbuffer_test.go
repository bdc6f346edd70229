// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package ringbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlight-io/telemetry/pkg/ringbuffer"
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := ringbuffer.New[int](0)
	assert.Error(t, err)

	_, err = ringbuffer.New[int](-1)
	assert.Error(t, err)
}

func TestRingBuffer_PushAndGetAll(t *testing.T) {
	rb, err := ringbuffer.New[int](4)
	require.NoError(t, err)

	assert.Zero(t, rb.Len())
	assert.Equal(t, 4, rb.Cap())

	rb.Push(1)
	rb.Push(2)
	rb.Push(3)

	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []int{1, 2, 3}, rb.GetAll())
}

func TestRingBuffer_OverwritesOldestWhenFull(t *testing.T) {
	rb, err := ringbuffer.New[int](3)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}

	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []int{3, 4, 5}, rb.GetAll())
}

func TestRingBuffer_Clear(t *testing.T) {
	rb, err := ringbuffer.New[string](2)
	require.NoError(t, err)

	rb.Push("a")
	rb.Push("b")
	rb.Clear()

	assert.Zero(t, rb.Len())
	assert.Nil(t, rb.GetAll())

	rb.Push("c")
	assert.Equal(t, []string{"c"}, rb.GetAll())
}

func TestRingBuffer_GetAllReturnsCopy(t *testing.T) {
	rb, err := ringbuffer.New[int](3)
	require.NoError(t, err)

	rb.Push(1)
	rb.Push(2)

	out := rb.GetAll()
	out[0] = 99

	assert.Equal(t, []int{1, 2}, rb.GetAll())
}
