package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "CrateBot")
		w.Write([]byte("<html><body>Booking: booking@sarahlane.com</body></html>"))
	}))
	t.Cleanup(srv.Close)

	f := NewDirectFetcher(100)
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "booking@sarahlane.com")
}

func TestDirectFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := NewDirectFetcher(100)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDirectFetcher_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok page content"))
	}))
	t.Cleanup(srv.Close)

	// 10 rps: three sequential fetches need at least ~200ms.
	f := NewDirectFetcher(10)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestDirectFetcher_ContextCancelled(t *testing.T) {
	f := NewDirectFetcher(0.001) // effectively never grants a second slot
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _ = f.Fetch(context.Background(), "") // consume the burst slot; fails on request
	_, err := f.Fetch(ctx, "http://127.0.0.1:1")
	require.Error(t, err)
}
