// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire locates ADAS source files on the local machine,
// downloading them from a mirror into a cache when they are missing.
//
// Files are addressed by their path relative to the ADAS root, for
// example "adf15/pec96#h/pec96#h_pju#h0.dat".
package acquire

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/httputil"
	"github.com/pdiddy/openadas/pkg/types"
)

// Origin records where a resolved file was found.
type Origin int

const (
	OriginLocal Origin = iota
	OriginCache
	OriginDownload
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "adas"
	case OriginCache:
		return "cache"
	default:
		return "download"
	}
}

// Source is a resolved ADAS file.
type Source struct {
	Rel    string
	Path   string
	Origin Origin
}

// Resolver finds source files. It is safe for concurrent use; downloads
// are spaced by the configured DownloadDelay.
type Resolver struct {
	cfg    types.AcquisitionConfig
	client *http.Client
	log    *zap.SugaredLogger

	mu   sync.Mutex
	last time.Time
}

// NewResolver returns a Resolver. A nil client gets one with cfg.Timeout.
func NewResolver(cfg types.AcquisitionConfig, client *http.Client, log *zap.SugaredLogger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{cfg: cfg, client: client, log: log}
}

// Resolve returns a local path for rel, searching the ADAS tree, then the
// download cache, then downloading into the cache. A file that cannot be
// found anywhere is NotFound.
func (r *Resolver) Resolve(ctx context.Context, rel string) (Source, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return Source{}, err
	}

	if r.cfg.AdasPath != "" {
		p := filepath.Join(r.cfg.AdasPath, filepath.FromSlash(clean))
		if isFile(p) {
			return Source{Rel: clean, Path: p, Origin: OriginLocal}, nil
		}
	}

	if r.cfg.CacheDir == "" {
		return Source{}, errors.NotFoundf("%s: not in the ADAS tree and no cache directory is configured", clean)
	}
	target := filepath.Join(r.cfg.CacheDir, filepath.FromSlash(clean))
	if isFile(target) {
		return Source{Rel: clean, Path: target, Origin: OriginCache}, nil
	}
	if r.cfg.Offline || r.cfg.BaseURL == "" {
		return Source{}, errors.NotFoundf("%s: not installed locally and downloads are disabled", clean)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Source{}, errors.Wrapf(err, "creating cache directory for %s", clean)
	}
	if err := r.pace(ctx); err != nil {
		return Source{}, err
	}

	src := SourceURL(r.cfg.BaseURL, clean)
	r.log.Infow("downloading source file", "file", clean, "from", src)
	if isHTTP(src) {
		err = r.downloadHTTP(ctx, src, target)
	} else {
		err = fetch(ctx, src, target)
	}
	if err != nil {
		return Source{}, errors.Wrapf(err, "downloading %s", clean)
	}
	return Source{Rel: clean, Path: target, Origin: OriginDownload}, nil
}

// SourceURL joins rel onto base. The mirror publishes '#' in ADAS file
// names as "][".
func SourceURL(base, rel string) string {
	p := strings.TrimLeft(strings.ReplaceAll(rel, "#", "]["), "/")
	return strings.TrimSuffix(base, "/") + "/" + p
}

// pace waits until DownloadDelay has passed since the previous download.
func (r *Resolver) pace(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wait := time.Until(r.last.Add(r.cfg.DownloadDelay)); !r.last.IsZero() && wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	r.last = time.Now()
	return nil
}

// downloadHTTP fetches url to destPath through a temporary file.
func (r *Resolver) downloadHTTP(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.cfg.MaxRetries, r.log)
	if err != nil {
		return errors.Wrap(err, "HTTP request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFoundf("HTTP 404 from %s", url)
	case resp.StatusCode != http.StatusOK:
		return errors.Newf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return errors.Wrap(copyErr, "writing download")
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return errors.Wrap(closeErr, "closing temp file")
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// cleanRel rejects paths that would escape the ADAS root or cache.
func cleanRel(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(strings.TrimSpace(rel)))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", errors.Newf("empty source path %q", rel)
	}
	return clean, nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isHTTP(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
