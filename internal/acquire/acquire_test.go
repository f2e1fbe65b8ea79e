// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/httputil"
	"github.com/pdiddy/openadas/pkg/types"
)

const pecFile = "adf15/pec96#h/pec96#h_pju#h0.dat"

func init() {
	httputil.RetryBaseDelay = 0
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// newMirror serves files from a map keyed by URL path.
func newMirror(t *testing.T, files map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSourceURL(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"http://open.adas.ac.uk/download/", pecFile, "http://open.adas.ac.uk/download/adf15/pec96][h/pec96][h_pju][h0.dat"},
		{"http://mirror/adas", "/adf21/bms97#h/bms97#h_c6.dat", "http://mirror/adas/adf21/bms97][h/bms97][h_c6.dat"},
		{"/srv/adas/", "adf11/scd96/scd96_c.dat", "/srv/adas/adf11/scd96/scd96_c.dat"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceURL(tt.base, tt.rel))
		})
	}
}

func TestResolveOrder(t *testing.T) {
	var hits int32
	mirror := newMirror(t, map[string]string{
		"/adf15/pec96][h/pec96][h_pju][h0.dat": "mirror copy",
	}, &hits)

	adas := t.TempDir()
	cache := t.TempDir()
	cfg := types.AcquisitionConfig{AdasPath: adas, CacheDir: cache, BaseURL: mirror.URL + "/"}
	r := NewResolver(cfg, mirror.Client(), nil)
	ctx := context.Background()

	src, err := r.Resolve(ctx, pecFile)
	require.NoError(t, err)
	assert.Equal(t, OriginDownload, src.Origin)
	assert.Equal(t, filepath.Join(cache, filepath.FromSlash(pecFile)), src.Path)
	data, err := os.ReadFile(src.Path)
	require.NoError(t, err)
	assert.Equal(t, "mirror copy", string(data))

	src, err = r.Resolve(ctx, pecFile)
	require.NoError(t, err)
	assert.Equal(t, OriginCache, src.Origin)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "cached file is not downloaded again")

	local := writeFile(t, adas, pecFile, "local copy")
	src, err = r.Resolve(ctx, pecFile)
	require.NoError(t, err)
	assert.Equal(t, OriginLocal, src.Origin)
	assert.Equal(t, local, src.Path)
}

func TestResolveNotFound(t *testing.T) {
	var hits int32
	mirror := newMirror(t, map[string]string{}, &hits)

	tests := []struct {
		name string
		cfg  types.AcquisitionConfig
	}{
		{"mirror 404", types.AcquisitionConfig{CacheDir: t.TempDir(), BaseURL: mirror.URL}},
		{"offline", types.AcquisitionConfig{CacheDir: t.TempDir(), BaseURL: mirror.URL, Offline: true}},
		{"no base url", types.AcquisitionConfig{CacheDir: t.TempDir()}},
		{"no cache", types.AcquisitionConfig{AdasPath: t.TempDir()}},
		{"missing in local mirror", types.AcquisitionConfig{CacheDir: t.TempDir(), BaseURL: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.cfg, mirror.Client(), nil).Resolve(context.Background(), pecFile)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
		})
	}
}

func TestResolveServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	cache := t.TempDir()
	r := NewResolver(types.AcquisitionConfig{CacheDir: cache, BaseURL: ts.URL}, ts.Client(), nil)
	_, err := r.Resolve(context.Background(), pecFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.False(t, errors.Is(err, errors.ErrNotFound))

	entries, err := os.ReadDir(filepath.Join(cache, "adf15", "pec96#h"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file is left in the cache")
}

func TestResolveSendsCredentials(t *testing.T) {
	var gotAuth, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	cfg := types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "openadas-test/1.0"},
		CacheDir:   t.TempDir(),
		BaseURL:    ts.URL,
		Token:      "tok_123",
	}
	_, err := NewResolver(cfg, ts.Client(), nil).Resolve(context.Background(), pecFile)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok_123", gotAuth)
	assert.Equal(t, "openadas-test/1.0", gotUA)
}

func TestResolveRetriesThrottledMirror(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "eventually")
	}))
	defer ts.Close()

	r := NewResolver(types.AcquisitionConfig{CacheDir: t.TempDir(), BaseURL: ts.URL, MaxRetries: 3}, ts.Client(), nil)
	src, err := r.Resolve(context.Background(), pecFile)
	require.NoError(t, err)
	assert.Equal(t, OriginDownload, src.Origin)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestResolveLocalMirrorViaGetter(t *testing.T) {
	mirror := t.TempDir()
	writeFile(t, mirror, "adf15/pec96][h/pec96][h_pju][h0.dat", "from getter")

	cache := t.TempDir()
	r := NewResolver(types.AcquisitionConfig{CacheDir: cache, BaseURL: mirror}, nil, nil)
	src, err := r.Resolve(context.Background(), pecFile)
	require.NoError(t, err)
	assert.Equal(t, OriginDownload, src.Origin)

	info, err := os.Lstat(src.Path)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "cache holds a copy")
	data, err := os.ReadFile(src.Path)
	require.NoError(t, err)
	assert.Equal(t, "from getter", string(data))
}

func TestResolveRejectsEmptyPath(t *testing.T) {
	r := NewResolver(types.AcquisitionConfig{CacheDir: t.TempDir()}, nil, nil)
	for _, rel := range []string{"", "  ", "/", "."} {
		_, err := r.Resolve(context.Background(), rel)
		assert.Error(t, err, "%q", rel)
	}
}

func TestResolveConfinesToRoot(t *testing.T) {
	cache := t.TempDir()
	writeFile(t, cache, "adf11/scd96/scd96_h.dat", "x")
	r := NewResolver(types.AcquisitionConfig{CacheDir: cache, Offline: true}, nil, nil)

	src, err := r.Resolve(context.Background(), "../../adf11/scd96/scd96_h.dat")
	require.NoError(t, err)
	assert.Equal(t, "adf11/scd96/scd96_h.dat", src.Rel)
	assert.Equal(t, OriginCache, src.Origin)
}
