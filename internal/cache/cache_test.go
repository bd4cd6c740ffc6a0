package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "redis_errors_total"}, []string{"operation"})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Run("host and port", func(t *testing.T) {
		client := NewRedisClient(mr.Addr(), nil)
		require.NotNil(t, client)
		t.Cleanup(func() { _ = client.Close() })
	})

	t.Run("url", func(t *testing.T) {
		client := NewRedisClient("redis://"+mr.Addr()+"/0", nil)
		require.NotNil(t, client)
		t.Cleanup(func() { _ = client.Close() })
	})

	t.Run("empty address", func(t *testing.T) {
		assert.Nil(t, NewRedisClient("  ", nil))
	})

	t.Run("bad url", func(t *testing.T) {
		assert.Nil(t, NewRedisClient("redis://%zz", nil))
	})

	t.Run("unreachable", func(t *testing.T) {
		dead := miniredis.RunT(t)
		addr := dead.Addr()
		dead.Close()
		assert.Nil(t, NewRedisClient(addr, nil))
	})
}

func TestMetricsHook_CountsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	errs := newErrCounter()
	client := NewRedisClient(mr.Addr(), errs)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()

	// A miss is not an error.
	_, err := client.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(errs.WithLabelValues("get")))

	mr.SetError("READONLY")
	_ = client.Set(ctx, "k", "v", 0).Err()
	assert.Equal(t, 1.0, testutil.ToFloat64(errs.WithLabelValues("set")))
}

func TestSessionStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewSessionStorage(client)

	val, err := store.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("abc", []byte("payload"), time.Hour))
	assert.True(t, mr.Exists(SessionPrefix+"abc"))
	assert.Equal(t, time.Hour, mr.TTL(SessionPrefix+"abc"))

	val, err = store.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	require.NoError(t, store.Delete("abc"))
	assert.False(t, mr.Exists(SessionPrefix+"abc"))

	// Empty keys and values are ignored.
	require.NoError(t, store.Set("", []byte("x"), 0))
	require.NoError(t, store.Set("k", nil, 0))
	assert.False(t, mr.Exists(SessionPrefix+"k"))
}

func TestSessionStorage_ResetKeepsForeignKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewSessionStorage(client)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(k, []byte(k), 0))
	}
	require.NoError(t, mr.Set("other", "keep"))

	require.NoError(t, store.Reset())
	assert.Equal(t, []string{"other"}, mr.Keys())
	assert.NoError(t, store.Close())
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantPass string
		wantDB   int
		wantTLS  bool
	}{
		{"redis://:mypassword@redis:6379/1", "redis:6379", "mypassword", 1, false},
		{"rediss://:s3cret@redis.example.com:6380/2", "redis.example.com:6380", "s3cret", 2, true},
		{"redis:6379", "redis:6379", "", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			opts, err := ParseOptions(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAddr, opts.Addr)
			assert.Equal(t, tc.wantPass, opts.Password)
			assert.Equal(t, tc.wantDB, opts.DB)
			assert.Equal(t, tc.wantTLS, opts.TLSConfig != nil)
			require.NotNil(t, opts.MaintNotificationsConfig)
		})
	}

	_, err := ParseOptions("redis://host:6379/notadb")
	assert.Error(t, err)
}
