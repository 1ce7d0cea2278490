package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ n uint64 }

func (i item) Key() uint64 { return i.n }

func TestPushRejectsDuplicateKey(t *testing.T) {
	h := New[uint64, item]()
	assert.True(t, h.Push(item{5}))
	assert.False(t, h.Push(item{5}))
	assert.Equal(t, 1, h.Len())
}

func TestPopReturnsLowestNumberFirst(t *testing.T) {
	h := New[uint64, item]()
	h.Push(item{13})
	h.Push(item{11})
	h.Push(item{12})

	first, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(11), first.n)

	second, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(12), second.n)

	third, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(13), third.n)
}

func TestPopEmptyReturnsFalse(t *testing.T) {
	h := New[uint64, item]()
	_, ok := h.Pop()
	assert.False(t, ok)
}

func TestPeekDoesNotRemove(t *testing.T) {
	h := New[uint64, item]()
	h.Push(item{1})
	peeked, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(1), peeked.n)
	assert.Equal(t, 1, h.Len())
}

func TestPopWaitBlocksUntilPush(t *testing.T) {
	h := New[uint64, item]()
	result := make(chan item, 1)
	go func() {
		v, err := h.PopWait(context.Background())
		if err == nil {
			result <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	h.Push(item{42})

	select {
	case v := <-result:
		assert.Equal(t, uint64(42), v.n)
	case <-time.After(time.Second):
		t.Fatal("PopWait did not return after push")
	}
}

func TestPopWaitRespectsContextCancellation(t *testing.T) {
	h := New[uint64, item]()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := h.PopWait(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("PopWait did not return after cancellation")
	}
}

func TestPushAfterPopOfSameKeyIsAccepted(t *testing.T) {
	h := New[uint64, item]()
	h.Push(item{9})
	h.Pop()
	assert.True(t, h.Push(item{9}))
}
