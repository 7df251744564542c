package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func newQueue(t *testing.T, capacity int, opts ...Option[int]) *ThreadsafeQueue[int] {
	t.Helper()
	q, err := NewThreadsafeQueue[int]("test", capacity, opts...)
	test.That(t, err, test.ShouldBeNil)
	return q
}

func TestNewRejectsBadCapacity(t *testing.T) {
	_, err := NewThreadsafeQueue[int]("bad", 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "capacity")
}

func TestFIFO(t *testing.T) {
	for _, n := range []int{1, 2, 7, 32} {
		q := newQueue(t, n)
		for i := 0; i < n; i++ {
			test.That(t, q.Push(i), test.ShouldBeTrue)
		}
		test.That(t, q.Len(), test.ShouldEqual, n)
		for i := 0; i < n; i++ {
			got, ok := q.PopBlocking(time.Second)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, got, test.ShouldEqual, i)
		}
		test.That(t, q.Len(), test.ShouldEqual, 0)
	}
}

func TestOverflowDropsNewest(t *testing.T) {
	q := newQueue(t, 2)
	test.That(t, q.Push(1), test.ShouldBeTrue)
	test.That(t, q.Push(2), test.ShouldBeTrue)
	test.That(t, q.Push(3), test.ShouldBeFalse)
	test.That(t, q.Dropped(), test.ShouldEqual, uint64(1))
	test.That(t, q.Len(), test.ShouldEqual, 2)

	got, ok := q.PopBlocking(time.Second)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, 1)
	test.That(t, q.Push(4), test.ShouldBeTrue)

	got, ok = q.PopBlocking(time.Second)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, 2)
	got, ok = q.PopBlocking(time.Second)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, 4)
}

func TestShutdownDiscardsPending(t *testing.T) {
	q := newQueue(t, 4)
	test.That(t, q.Push(1), test.ShouldBeTrue)
	test.That(t, q.Push(2), test.ShouldBeTrue)
	q.Shutdown()
	q.Shutdown()

	test.That(t, q.IsShutdown(), test.ShouldBeTrue)
	test.That(t, errors.Is(q.Err(), ErrQueueClosed), test.ShouldBeTrue)
	test.That(t, q.Err().Error(), test.ShouldContainSubstring, `"test"`)
	_, ok := q.PopBlocking(time.Second)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, q.Push(3), test.ShouldBeFalse)
	test.That(t, q.Dropped(), test.ShouldEqual, uint64(0))
	test.That(t, q.Len(), test.ShouldEqual, 2)
}

func TestErrBeforeShutdown(t *testing.T) {
	q := newQueue(t, 1)
	test.That(t, q.Err(), test.ShouldBeNil)
	test.That(t, q.Push(1), test.ShouldBeTrue)
	test.That(t, q.Push(2), test.ShouldBeFalse)
	test.That(t, q.Err(), test.ShouldBeNil)
}

func TestShutdownWakesBlockedConsumers(t *testing.T) {
	q := newQueue(t, 4)
	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.PopBlocking(time.Hour)
			results <- ok
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Shutdown()
	wg.Wait()
	close(results)
	for ok := range results {
		test.That(t, ok, test.ShouldBeFalse)
	}
}

func TestPopBlockingTimeout(t *testing.T) {
	mock := clock.NewMock()
	q := newQueue(t, 1, WithClock[int](mock))

	done := make(chan bool, 1)
	go func() {
		_, ok := q.PopBlocking(100 * time.Millisecond)
		done <- ok
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case ok := <-done:
			test.That(t, ok, test.ShouldBeFalse)
			return
		default:
		}
		test.That(t, time.Now().Before(deadline), test.ShouldBeTrue)
		mock.Add(100 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

func TestPopBlockingWakesOnPush(t *testing.T) {
	q := newQueue(t, 1)
	done := make(chan int, 1)
	go func() {
		got, ok := q.PopBlocking(time.Minute)
		if !ok {
			got = -1
		}
		done <- got
	}()
	time.Sleep(10 * time.Millisecond)
	test.That(t, q.Push(42), test.ShouldBeTrue)
	select {
	case got := <-done:
		test.That(t, got, test.ShouldEqual, 42)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer was not woken by push")
	}
}

func TestConcurrentProducersNoLossOrDuplicates(t *testing.T) {
	const producers, perProducer = 4, 250
	q := newQueue(t, producers*perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(p*perProducer + i)
			}
		}(p)
	}

	seen := map[int]bool{}
	lastPerProducer := map[int]int{}
	for len(seen) < producers*perProducer {
		got, ok := q.PopBlocking(5 * time.Second)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, seen[got], test.ShouldBeFalse)
		seen[got] = true

		// each producer's items arrive in the order it pushed them.
		p := got / perProducer
		if last, ok := lastPerProducer[p]; ok {
			test.That(t, got, test.ShouldBeGreaterThan, last)
		}
		lastPerProducer[p] = got
	}
	wg.Wait()
	test.That(t, q.Dropped(), test.ShouldEqual, uint64(0))
}
