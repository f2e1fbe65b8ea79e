// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"strings"

	"github.com/pdiddy/openadas/internal/errors"
)

// ListOptions filters List.
type ListOptions struct {
	// Class restricts results to a rate class path such as "pec/excitation"
	// or a class prefix such as "beam".
	Class string

	// Source restricts results to records decoded from one source file.
	Source string
}

// Entry is an installed record with its provenance.
type Entry struct {
	Class       string `json:"class" yaml:"class"`
	File        string `json:"file" yaml:"file"`
	Key         string `json:"key" yaml:"key"`
	Source      string `json:"source" yaml:"source"`
	Dialect     string `json:"dialect" yaml:"dialect"`
	Digest      string `json:"digest" yaml:"digest"`
	RunID       string `json:"run_id" yaml:"run_id"`
	InstalledAt string `json:"installed_at" yaml:"installed_at"`
}

// List returns installed records sorted by repository file and key.
func (c *Catalog) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.class, r.file, r.record_key, r.source,
			COALESCE(s.dialect, ''), COALESCE(s.digest, ''), r.run_id, COALESCE(s.installed_at, '')
		FROM records r
		LEFT JOIN sources s ON s.path = r.source AND s.target = r.target
		WHERE 1=1`)
	if opts.Class != "" {
		class := strings.Trim(opts.Class, "/")
		qb.WriteString(` AND (r.class = ? OR r.class LIKE ?)`)
		args = append(args, class, class+"/%")
	}
	if opts.Source != "" {
		qb.WriteString(` AND r.source = ?`)
		args = append(args, opts.Source)
	}
	qb.WriteString(` ORDER BY r.file, r.record_key`)

	rows, err := c.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Class, &e.File, &e.Key, &e.Source, &e.Dialect, &e.Digest, &e.RunID, &e.InstalledAt); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
