package aqgo

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueueKeepsOrder(t *testing.T) {
	q := newCommandQueue()
	// No receiver yet: pushes must still return.
	for i := 0; i < 100; i++ {
		q.push(strconv.Itoa(i))
	}
	q.close()

	var got []string
	for line := range q.out {
		got = append(got, line)
	}
	require.Len(t, got, 100)
	for i, line := range got {
		assert.Equal(t, strconv.Itoa(i), line)
	}
}

func TestCommandQueueDrainsAfterClose(t *testing.T) {
	q := newCommandQueue()
	q.push("a")
	q.push("b")
	q.close()

	assert.Equal(t, "a", <-q.out)
	assert.Equal(t, "b", <-q.out)
	_, ok := <-q.out
	assert.False(t, ok)
}

func TestCommandQueueCloseEmpty(t *testing.T) {
	q := newCommandQueue()
	q.close()
	_, ok := <-q.out
	assert.False(t, ok)
}
