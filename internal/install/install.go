// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package install drives the ADF decoders over a manifest of source files
// and merges the decoded records into the repository.
package install

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/openadas/internal/acquire"
	"github.com/pdiddy/openadas/internal/catalog"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/repository"
)

// Resolver turns a path relative to the ADAS root into a local file.
type Resolver interface {
	Resolve(ctx context.Context, rel string) (acquire.Source, error)
}

// Summary holds the outcome of an install run. Failed counts failed
// source files plus blocks that could not be decoded inside otherwise
// installed files.
type Summary struct {
	RunID     string
	Installed int
	Skipped   int
	Failed    int
	Records   int
}

// Total returns the number of jobs and blocks accounted for.
func (s Summary) Total() int {
	return s.Installed + s.Skipped + s.Failed
}

// HasFailures reports whether any file or block failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Option configures an Installer.
type Option func(*Installer)

// WithCatalog records provenance in c and skips sources whose content is
// unchanged since they were last installed.
func WithCatalog(c *catalog.Catalog) Option {
	return func(i *Installer) { i.catalog = c }
}

// WithForce reinstalls sources even when the catalog says they are
// unchanged.
func WithForce(force bool) Option {
	return func(i *Installer) { i.force = force }
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(i *Installer) { i.log = log }
}

// Installer installs the files named by its manifest. The manifest is
// copied at construction and never changes afterwards.
type Installer struct {
	manifest Manifest
	store    *repository.Store
	resolver Resolver
	catalog  *catalog.Catalog
	log      *zap.SugaredLogger
	force    bool
}

// New returns an Installer for m.
func New(m Manifest, store *repository.Store, resolver Resolver, opts ...Option) *Installer {
	i := &Installer{
		manifest: m.clone(),
		store:    store,
		resolver: resolver,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Manifest returns a copy of the installer's manifest.
func (i *Installer) Manifest() Manifest {
	return i.manifest.clone()
}

// Install runs every job in manifest order, printing one status line per
// job to w, and continues after individual failures. It returns early
// only when ctx is cancelled.
func (i *Installer) Install(ctx context.Context, w io.Writer) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	log := i.log.With("run", summary.RunID)

	if i.catalog != nil {
		if err := i.catalog.BeginRun(ctx, summary.RunID); err != nil {
			return summary, err
		}
	}

	for _, j := range i.jobs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := i.run(ctx, j, summary.RunID, log)
		switch {
		case res.err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", j.name, res.err)
			log.Warnw("install failed", "source", j.name, "target", j.target, "error", res.err)
			summary.Failed++
			continue
		case res.skipped:
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", j.name)
			summary.Skipped++
			continue
		}
		fmt.Fprintf(w, "installed: %s (%d records, %s)\n", j.name, res.records, res.origin)
		summary.Installed++
		summary.Records += res.records
		for _, p := range res.partial {
			fmt.Fprintf(w, "failed:  %s (%v)\n", j.name, p)
			log.Warnw("block not installed", "source", j.name, "error", p)
			summary.Failed++
		}
	}

	if i.catalog != nil {
		if err := i.catalog.FinishRun(ctx, summary.RunID, summary.Installed, summary.Skipped, summary.Failed); err != nil {
			return summary, err
		}
	}
	fmt.Fprintf(w, "\nInstall summary: %d installed, %d skipped, %d failed (total: %d)\n",
		summary.Installed, summary.Skipped, summary.Failed, summary.Total())
	log.Infow("install finished", "installed", summary.Installed, "skipped", summary.Skipped,
		"failed", summary.Failed, "records", summary.Records)
	return summary, nil
}

type result struct {
	records int
	origin  string
	skipped bool
	partial []error
	err     error
}

// run installs one job. Decoding finishes before anything is written, so
// a fatal decode error leaves the repository untouched.
func (i *Installer) run(ctx context.Context, j job, runID string, log *zap.SugaredLogger) result {
	var (
		path   string
		origin = "manifest"
		digest = j.digest
	)
	if j.file != "" {
		src, err := i.resolver.Resolve(ctx, j.file)
		if err != nil {
			return result{err: err}
		}
		path, origin = src.Path, src.Origin.String()
		log.Debugw("resolved source", "file", j.file, "path", path, "origin", origin)

		if i.catalog != nil {
			if digest, err = catalog.Digest(path); err != nil {
				return result{err: err}
			}
		}
	}

	if i.catalog != nil && !i.force {
		same, err := i.catalog.Unchanged(ctx, j.name, j.target, digest)
		if err != nil {
			return result{err: err}
		}
		if same {
			return result{skipped: true}
		}
	}

	entries, partial, err := j.decode(path)
	if err != nil {
		return result{err: err}
	}
	if len(entries) == 0 {
		return result{err: errors.Join(append([]error{errors.NotFoundf("no records decoded")}, partial...)...)}
	}
	if err := i.store.Put(ctx, entries...); err != nil {
		return result{err: err}
	}

	if i.catalog != nil {
		records := make([]catalog.Record, 0, len(entries))
		for _, e := range entries {
			file, _ := e.Key.Path()
			key, _ := e.Key.RecordKey()
			records = append(records, catalog.Record{Class: string(e.Key.Class), File: file, Key: key})
		}
		src := catalog.Source{Path: j.name, Target: j.target, Dialect: j.dialect, Digest: digest, Failed: len(partial)}
		if err := i.catalog.Installed(ctx, runID, src, records); err != nil {
			return result{err: err}
		}
	}
	return result{records: len(entries), origin: origin, partial: partial}
}
