// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openadas/internal/catalog"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the install catalog to YAML or JSON",
	Long: `Export writes the install runs and installed records (or a filtered
subset) to export.yaml or export.json next to the catalog database. Supports
the same filter flags as list.`,
	RunE: runExport,
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cat, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := context.Background()
	opts := listOptions(cmd)

	var path string
	switch format {
	case "yaml", "":
		path, err = cat.ExportYAML(ctx, opts)
	case "json":
		path, err = cat.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}
