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
)

func TestKey_HasPrefix(t *testing.T) {
	params := map[string]any{"page": 1, "status": "PENDING"}

	tests := []struct {
		name   string
		key    Key
		prefix Key
		want   bool
	}{
		{name: "same key", key: Key{"doctor-profile", "D1"}, prefix: Key{"doctor-profile", "D1"}, want: true},
		{name: "name only", key: Key{"admin-appointments", params}, prefix: Key{"admin-appointments"}, want: true},
		{name: "other id", key: Key{"doctor-profile", "D1"}, prefix: Key{"doctor-profile", "D2"}},
		{name: "longer prefix", key: Key{"dashboard-stats"}, prefix: Key{"dashboard-stats", "x"}},
		{name: "empty prefix", key: Key{"dashboard-stats"}, prefix: Key{}},
		{name: "name is not a string prefix", key: Key{"doctor-profiles"}, prefix: Key{"doctor-profile"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}
}

func TestKey_StringIsOrderIndependentForMaps(t *testing.T) {
	a := Key{"orders", map[string]any{"status": "PAID", "page": 2}}
	b := Key{"orders", map[string]any{"page": 2, "status": "PAID"}}
	assert.Equal(t, a.String(), b.String())
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"doctor-profile", "D1"}
	var calls int32
	load := func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "first", nil
		}
		return "second", nil
	}

	v, err := Fetch(context.Background(), c, key, load)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = Fetch(context.Background(), c, key, load)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, 1, c.Invalidate(Key{"doctor-profile"}))
	cached, stale := c.State(key)
	assert.True(t, cached)
	assert.True(t, stale)

	v, err = Fetch(context.Background(), c, key, load)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	_, stale = c.State(key)
	assert.False(t, stale)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"dashboard-stats"}
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := Fetch(context.Background(), c, key, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_ConcurrentReadsShareOneCall(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"doctor-profile", "D1"}
	var calls int32
	release := make(chan struct{})

	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "dr. who", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"dr. who", "dr. who"}, results)
}

func TestFetch_CancelledWaiterDiscardsLateResult(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"patient-profile", "P1"}
	release := make(chan struct{})
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		_, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
			<-release
			return "late", nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	close(release)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	v, err := Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
		return "unused", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestFetch_InvalidateDuringFetchLeavesEntryStale(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"appointment", "A1"}
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "before-write", nil
		})
		assert.NoError(t, err)
	}()

	<-started
	c.Invalidate(Key{"appointment", "A1"})
	close(release)
	<-done

	cached, stale := c.State(key)
	assert.True(t, cached)
	assert.True(t, stale)
}

func TestFetch_ReadAfterWriteStartsItsOwnFetch(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"appointment", "A1"}
	var server atomic.Value
	server.Store("old")
	load := func(ctx context.Context) (string, error) { return server.Load().(string), nil }

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
			v, _ := load(ctx)
			close(started)
			<-release
			return v, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "old", v)
	}()
	<-started

	_, err := Mutate(context.Background(), c, func(ctx context.Context) (struct{}, error) {
		server.Store("new")
		return struct{}{}, nil
	}, key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := Fetch(ctx, c, key, load)
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	<-done

	cached, stale := c.State(key)
	assert.True(t, cached)
	assert.False(t, stale)
	v, err = Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
		return "", errors.New("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestFetch_StaleAfterAge(t *testing.T) {
	c := NewCache(time.Minute, nil)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	key := Key{"admin-appointments"}
	var calls int32
	load := func(ctx context.Context) (int32, error) { return atomic.AddInt32(&calls, 1), nil }

	_, err := Fetch(context.Background(), c, key, load)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	v, _ := Fetch(context.Background(), c, key, load)
	assert.Equal(t, int32(1), v)

	now = now.Add(time.Minute)
	v, _ = Fetch(context.Background(), c, key, load)
	assert.Equal(t, int32(2), v)
}

func TestFetch_TypeMismatch(t *testing.T) {
	c := NewCache(0, nil)
	key := Key{"dashboard-stats"}
	_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	_, err = Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) { return "x", nil })
	assert.Error(t, err)
}

func TestMutate_InvalidatesOnlyOnSuccess(t *testing.T) {
	k1 := Key{"doctor-appointments", "D1"}
	k2 := Key{"dashboard-stats"}
	other := Key{"doctor-appointments", "D2"}

	seed := func(c *Cache) {
		for _, k := range []Key{k1, k2, other} {
			_, err := Fetch(context.Background(), c, k, func(ctx context.Context) (bool, error) { return true, nil })
			require.NoError(t, err)
		}
	}

	t.Run("success", func(t *testing.T) {
		c := NewCache(0, nil)
		seed(c)

		out, err := Mutate(context.Background(), c, func(ctx context.Context) (string, error) {
			return "ok", nil
		}, k1, k2)
		require.NoError(t, err)
		assert.Equal(t, "ok", out)

		_, stale := c.State(k1)
		assert.True(t, stale)
		_, stale = c.State(k2)
		assert.True(t, stale)
		_, stale = c.State(other)
		assert.False(t, stale)
	})

	t.Run("failure", func(t *testing.T) {
		c := NewCache(0, nil)
		seed(c)
		boom := errors.New("rejected")

		_, err := Mutate(context.Background(), c, func(ctx context.Context) (string, error) {
			return "", boom
		}, k1, k2)
		assert.ErrorIs(t, err, boom)

		for _, k := range []Key{k1, k2, other} {
			_, stale := c.State(k)
			assert.False(t, stale)
		}
	})
}
