package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := NewCache(time.Minute)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

// counter returns a fetcher yielding successive values and counting calls.
func counter(calls *atomic.Int32) Fetcher[int] {
	return func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}
}

func TestFetchServesFreshDataFromCache(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32

	first := Fetch(context.Background(), c, KeyInternships, counter(&calls))
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.Data)
	assert.False(t, first.IsStale)

	second := Fetch(context.Background(), c, KeyInternships, counter(&calls))
	assert.Equal(t, 1, second.Data)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchDeduplicatesConcurrentRequests(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"a"}, nil
	}

	var wg sync.WaitGroup
	results := make([]Result[[]string], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), c, KeyDocuments, fetch)
		}(i)
	}

	require.Eventually(t, func() bool { return Snapshot[[]string](c, KeyDocuments).IsLoading }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, res := range results {
		assert.Equal(t, []string{"a"}, res.Data)
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	c, clock := newTestCache(t)
	var calls atomic.Int32

	Fetch(context.Background(), c, KeyPartnerships, counter(&calls))
	clock.Advance(2 * time.Minute)

	stale := Fetch(context.Background(), c, KeyPartnerships, counter(&calls))
	assert.True(t, stale.IsStale)
	assert.Equal(t, 1, stale.Data, "stale data is served immediately")

	require.Eventually(t, func() bool { return calls.Load() == 2 && !Snapshot[int](c, KeyPartnerships).IsStale }, time.Second, time.Millisecond)
	assert.Equal(t, 2, Snapshot[int](c, KeyPartnerships).Data)
}

func TestFailedRevalidationKeepsData(t *testing.T) {
	c, clock := newTestCache(t)
	Fetch(context.Background(), c, KeyMe, func(context.Context) (string, error) { return "ada", nil })
	clock.Advance(2 * time.Minute)

	boom := errors.New("connection refused")
	Fetch(context.Background(), c, KeyMe, func(context.Context) (string, error) { return "", boom })
	c.Close()

	snap := Snapshot[string](c, KeyMe)
	assert.Equal(t, "ada", snap.Data)
	assert.ErrorIs(t, snap.Err, boom)
}

func TestErrorIsStoredWithoutAutomaticRetry(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("503")
	var calls atomic.Int32
	failing := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	}

	res := Fetch(context.Background(), c, KeyInternships, failing)
	require.ErrorIs(t, res.Err, boom)
	assert.False(t, res.HasData())

	res = Fetch(context.Background(), c, KeyInternships, failing)
	require.ErrorIs(t, res.Err, boom)
	assert.EqualValues(t, 1, calls.Load(), "errors are not retried automatically")

	res = Refetch(context.Background(), c, KeyInternships, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, res.Err)
	assert.Equal(t, 7, res.Data)

	Fetch(context.Background(), c, KeyCompanyInternships, failing)
	c.Invalidate(KeyCompanyInternships)
	res = Fetch(context.Background(), c, KeyCompanyInternships, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Data)
}

func TestDisabledFetchNeverRequests(t *testing.T) {
	c, _ := newTestCache(t)
	res := Fetch(context.Background(), c, KeyMe, func(context.Context) (string, error) {
		t.Fatal("disabled fetch must not call the fetcher")
		return "", nil
	}, Enabled(false))
	assert.False(t, res.HasData())
	assert.NoError(t, res.Err)
}

func TestInvalidation(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	ctx := context.Background()

	Fetch(ctx, c, "/messages/with/a", counter(&calls))
	Fetch(ctx, c, "/messages/with/b", counter(&calls))
	Fetch(ctx, c, KeyConversations, counter(&calls))
	require.EqualValues(t, 3, calls.Load())

	c.InvalidatePrefix("/messages/with/")
	assert.True(t, Snapshot[int](c, "/messages/with/a").IsStale)
	assert.False(t, Snapshot[int](c, KeyConversations).IsStale)

	Fetch(ctx, c, "/messages/with/a", counter(&calls))
	Fetch(ctx, c, KeyConversations, counter(&calls))
	assert.EqualValues(t, 4, calls.Load())

	c.Clear()
	assert.Empty(t, c.Keys())
	assert.False(t, Snapshot[int](c, KeyConversations).HasData())
}

func TestInvalidationDuringFetchDiscardsResult(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	Fetch(ctx, c, KeyStudentApplications, func(context.Context) (string, error) { return "v1", nil })

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Result[string])
	go func() {
		done <- Refetch(ctx, c, KeyStudentApplications, func(context.Context) (string, error) {
			close(started)
			<-release
			return "before mutation", nil
		})
	}()

	<-started
	c.Invalidate(KeyStudentApplications)
	close(release)
	late := <-done
	assert.True(t, late.IsStale, "a result overtaken by an invalidation is not fresh")

	snap := Snapshot[string](c, KeyStudentApplications)
	assert.Equal(t, "v1", snap.Data)
	assert.True(t, snap.IsStale)

	res := Fetch(ctx, c, KeyStudentApplications, func(context.Context) (string, error) { return "after mutation", nil })
	require.NoError(t, res.Err)
	assert.Equal(t, "after mutation", res.Data)
	assert.False(t, res.IsStale)
}

func TestClearDuringFetchDropsResult(t *testing.T) {
	c, _ := newTestCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		Fetch(context.Background(), c, KeyMe, func(context.Context) (string, error) {
			close(started)
			<-release
			return "previous user", nil
		})
	}()

	<-started
	c.Clear()
	close(release)
	<-done
	assert.False(t, Snapshot[string](c, KeyMe).HasData())
}

func TestTypeMismatchIsReported(t *testing.T) {
	c, _ := newTestCache(t)
	Fetch(context.Background(), c, KeyMe, func(context.Context) (string, error) { return "ada", nil })
	res := Snapshot[int](c, KeyMe)
	assert.Error(t, res.Err)
}

func TestResolve(t *testing.T) {
	key, ok := Resolve(KeyConversation, map[string]string{"peerId": "42"})
	assert.True(t, ok)
	assert.Equal(t, "/messages/with/42", key)

	key, ok = Resolve(KeyConversation, nil)
	assert.False(t, ok)
	assert.Equal(t, "/messages/with/", key)

	key, ok = Resolve(KeyDocuments, nil)
	assert.True(t, ok)
	assert.Equal(t, KeyDocuments, key)
}
