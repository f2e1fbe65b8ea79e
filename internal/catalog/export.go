// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/errors"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Runs    []Run   `json:"runs" yaml:"runs"`
	Records []Entry `json:"records" yaml:"records"`
}

// ExportYAML writes the catalog to export.yaml next to the database and
// returns the file written. It accepts the same filters as List.
func (c *Catalog) ExportYAML(ctx context.Context, opts ListOptions) (string, error) {
	doc, err := c.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "marshaling YAML")
	}
	return c.writeExport("export.yaml", data)
}

// ExportJSON writes the catalog to export.json next to the database.
func (c *Catalog) ExportJSON(ctx context.Context, opts ListOptions) (string, error) {
	doc, err := c.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshaling JSON")
	}
	return c.writeExport("export.json", data)
}

func (c *Catalog) export(ctx context.Context, opts ListOptions) (Export, error) {
	runs, err := c.Runs(ctx)
	if err != nil {
		return Export{}, errors.Wrap(err, "querying for export")
	}
	records, err := c.List(ctx, opts)
	if err != nil {
		return Export{}, errors.Wrap(err, "querying for export")
	}
	return Export{Runs: runs, Records: records}, nil
}

func (c *Catalog) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(filepath.Dir(c.path), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
