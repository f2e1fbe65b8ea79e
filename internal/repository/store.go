// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repository persists decoded rate records in a tree of YAML
// files, one file per address, each mapping record keys to records.
//
// Put serialises its read-merge-write cycle per file with an advisory
// file lock and publishes the merged file by renaming a temporary file
// over it, so Get never needs a lock and never observes a partial file.
package repository

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/pkg/types"
)

const (
	fileExt   = ".yaml"
	lockExt   = ".lock"
	tmpPrefix = ".put-"

	defaultLockRetry = 50 * time.Millisecond
)

// Store reads and writes the repository rooted at a directory.
type Store struct {
	root        string
	lockTimeout time.Duration
}

// Entry pairs a record with the key it is stored under.
type Entry struct {
	Key    address.Key
	Record Record
}

// NewStore returns a Store rooted at cfg.Path. The directory is created
// lazily by the first Put.
func NewStore(cfg types.RepositoryConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("repository path is not configured")
	}
	root, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving repository path %s", cfg.Path)
	}
	return &Store{root: root, lockTimeout: cfg.LockTimeout}, nil
}

// Root returns the absolute repository directory.
func (s *Store) Root() string { return s.root }

type pending struct {
	path    string
	records map[string]Record
}

// Put merges entries into the repository. Every key and record is
// validated before anything is written; an InvalidAddress or
// ShapeMismatch leaves the repository untouched. Entries sharing a file
// are merged under one lock. A record replaces any existing record with
// the same key; other records in the file are preserved.
func (s *Store) Put(ctx context.Context, entries ...Entry) error {
	files := make(map[string]*pending)
	for _, e := range entries {
		rel, err := e.Key.Path()
		if err != nil {
			return err
		}
		rk, err := e.Key.RecordKey()
		if err != nil {
			return err
		}
		if err := e.Record.Validate(); err != nil {
			return errors.Wrapf(err, "%s", e.Key)
		}
		p, ok := files[rel]
		if !ok {
			p = &pending{path: s.filePath(rel), records: make(map[string]Record)}
			files[rel] = p
		}
		p.records[rk] = e.Record
	}

	for _, rel := range sortedKeys(files) {
		if err := s.merge(ctx, files[rel]); err != nil {
			return errors.Wrapf(err, "writing %s", rel)
		}
	}
	return nil
}

func (s *Store) merge(ctx context.Context, p *pending) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory %s", dir)
	}

	unlock, err := s.lock(ctx, p.path)
	if err != nil {
		return err
	}
	defer unlock()

	records, err := readFile(p.path)
	if err != nil {
		return err
	}
	for k, rec := range p.records {
		records[k] = rec
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "marshaling records")
	}
	return writeAtomic(p.path, data)
}

func (s *Store) lock(ctx context.Context, path string) (func(), error) {
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	fl := flock.New(path + lockExt)
	locked, err := fl.TryLockContext(ctx, defaultLockRetry)
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", path)
	}
	if !locked {
		return nil, errors.Newf("could not lock %s", path)
	}
	return func() { fl.Unlock() }, nil
}

// Get returns the record stored under key. A missing file and a missing
// record both yield ErrNotFound.
func (s *Store) Get(key address.Key) (Record, error) {
	rel, err := key.Path()
	if err != nil {
		return Record{}, err
	}
	rk, err := key.RecordKey()
	if err != nil {
		return Record{}, err
	}
	records, err := readFile(s.filePath(rel))
	if err != nil {
		return Record{}, errors.Wrapf(err, "reading %s", rel)
	}
	rec, ok := records[rk]
	if !ok {
		return Record{}, errors.NotFoundf("%s: no record %q installed", key, rk)
	}
	return rec, nil
}

// RecordKeys returns the sorted record keys in the file addressed by key.
// Transition and metastable fields of key are ignored.
func (s *Store) RecordKeys(key address.Key) ([]string, error) {
	key.Transition = address.NumericTransition(1, 1)
	key.Metastable = 1
	rel, err := key.Path()
	if err != nil {
		return nil, err
	}
	records, err := readFile(s.filePath(rel))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", rel)
	}
	if len(records) == 0 {
		return nil, errors.NotFoundf("%s: nothing installed", rel)
	}
	return sortedKeys(records), nil
}

// Files returns the slash-separated paths, without extension, of every
// repository file under the given class (all classes when empty).
func (s *Store) Files(class address.Class) ([]string, error) {
	start := s.root
	if class != "" {
		start = filepath.Join(s.root, filepath.FromSlash(string(class)))
	}
	var files []string
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != start {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(strings.TrimSuffix(rel, fileExt)))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", start)
	}
	sort.Strings(files)
	return files, nil
}

func (s *Store) filePath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel)+fileExt)
}

// readFile loads a repository file. A missing file is an empty record set.
func readFile(path string) (map[string]Record, error) {
	records := make(map[string]Record)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), errors.ErrMalformedRecord)
	}
	if records == nil {
		records = make(map[string]Record)
	}
	return records, nil
}

// writeAtomic writes data to a temporary file beside path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), tmpPrefix+"*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	if writeErr == nil {
		writeErr = tmpFile.Sync()
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return errors.Wrap(writeErr, "writing temp file")
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return errors.Wrap(closeErr, "closing temp file")
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "setting permissions")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
