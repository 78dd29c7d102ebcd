package flowz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSliceReplaysToEachSubscriber(t *testing.T) {
	source := FromSlice(1, 2, 3)

	for i := 0; i < 2; i++ {
		items, err := Collect(source)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, items)
	}
}

func TestFromSliceHonorsDemand(t *testing.T) {
	w := &manualSubscriber{}
	FromSlice(1, 2, 3, 4).Subscribe(w)

	assert.Empty(t, w.items)

	w.sub.Request(2)
	assert.Equal(t, []int{1, 2}, w.items)
	assert.False(t, w.completed)

	w.sub.Request(2)
	assert.Equal(t, []int{1, 2, 3, 4}, w.items)
	assert.True(t, w.completed)
}

func TestFromSliceCancelStopsEmission(t *testing.T) {
	w := &manualSubscriber{}
	FromSlice(1, 2, 3).Subscribe(w)

	w.sub.Request(1)
	w.sub.Cancel()
	w.sub.Request(10)

	assert.Equal(t, []int{1}, w.items)
	assert.False(t, w.completed)
}

func TestFromSliceEmpty(t *testing.T) {
	items, err := Collect(FromSlice[int]())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFromChannelDeliversAndCompletes(t *testing.T) {
	in := make(chan int)
	source := FromChannel(context.Background(), in)

	go func() {
		for i := 1; i <= 5; i++ {
			in <- i
		}
		close(in)
	}()

	items, err := Collect(source)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestFromChannelContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)

	errs := make(chan error, 1)
	sub := &funcSubscriber[int]{
		onSubscribe: func(s Subscription) { s.Request(Unbounded) },
		onError:     func(err error) { errs <- err },
	}
	FromChannel(ctx, in).Subscribe(sub)

	cancel()

	select {
	case err := <-errs:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for context error")
	}
}

func TestFromChannelSubscriberCancel(t *testing.T) {
	in := make(chan int, 4)
	in <- 1
	in <- 2

	w := &manualSubscriber{}
	FromChannel(context.Background(), in).Subscribe(w)

	w.sub.Cancel()
	w.sub.Cancel()

	// The pump exits without reading further; goleak verifies it in TestMain.
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, w.items)
}

// funcSubscriber adapts callbacks into a Subscriber for tests.
type funcSubscriber[T any] struct {
	onSubscribe func(Subscription)
	onNext      func(T)
	onError     func(error)
	onComplete  func()
}

func (f *funcSubscriber[T]) OnSubscribe(s Subscription) {
	if f.onSubscribe != nil {
		f.onSubscribe(s)
	}
}

func (f *funcSubscriber[T]) OnNext(v T) {
	if f.onNext != nil {
		f.onNext(v)
	}
}

func (f *funcSubscriber[T]) OnError(err error) {
	if f.onError != nil {
		f.onError(err)
	}
}

func (f *funcSubscriber[T]) OnComplete() {
	if f.onComplete != nil {
		f.onComplete()
	}
}
