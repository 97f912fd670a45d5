package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxbrian/ruleset-converter/internal/cache"
)

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("ETag", `W/"v1"`)
		w.Write([]byte("DOMAIN,example.com\n"))
	}))
	defer srv.Close()

	f := NewFetcher(cache.NewSourceCache(0), 5*time.Second)
	body, err := f.Fetch(context.Background(), srv.URL+"/rules.list")

	require.NoError(t, err)
	assert.Equal(t, "DOMAIN,example.com\n", body)
	assert.Equal(t, "v1", f.ETag(srv.URL+"/rules.list"))
}

func TestFetch_NotModified(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("DOMAIN,example.com"))
	}))
	defer srv.Close()

	f := NewFetcher(cache.NewSourceCache(0), 5*time.Second)
	first, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	second, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetch_FreshCacheSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("payload: []"))
	}))
	defer srv.Close()

	f := NewFetcher(cache.NewSourceCache(time.Hour), 5*time.Second)
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(nil, 5*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.yaml")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, srv.URL+"/missing.yaml", fe.Source)
}

func TestFetch_EmptyBodyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	body, err := NewFetcher(nil, 5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.list")
	require.NoError(t, os.WriteFile(path, []byte("DOMAIN,local.example"), 0o644))

	f := NewFetcher(nil, time.Second)

	body, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "DOMAIN,local.example", body)

	body, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "DOMAIN,local.example", body)

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "missing.list"))
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGeoIPFetcher_GetDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoip.db")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0o644))

	db, err := NewGeoIPFetcher(NewFetcher(nil, time.Second), path).GetDB(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, db)

	empty := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = NewGeoIPFetcher(NewFetcher(nil, time.Second), empty).GetDB(context.Background())
	assert.Error(t, err)
}
