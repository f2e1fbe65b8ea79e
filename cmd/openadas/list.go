// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openadas/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed records from the install catalog",
	Long: `List shows every record the catalog knows about with the source file it
was decoded from and the run that installed it. --class matches a class and
every class below it, so --class beam lists all beam records.`,
	RunE: runList,
}

func init() {
	addFilterFlags(listCmd)
	listCmd.Flags().Bool("json", false, "output entries as JSON")
	listCmd.Flags().Bool("runs", false, "list install runs instead of records")

	rootCmd.AddCommand(listCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("class", "", "filter by rate class or class prefix")
	cmd.Flags().String("source", "", "filter by source file")
}

func listOptions(cmd *cobra.Command) catalog.ListOptions {
	class, _ := cmd.Flags().GetString("class")
	source, _ := cmd.Flags().GetString("source")
	return catalog.ListOptions{Class: class, Source: source}
}

func runList(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if runs, _ := cmd.Flags().GetBool("runs"); runs {
		list, err := cat.Runs(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, list)
		}
		rows := make([][]string, len(list))
		for i, r := range list {
			finished := "-"
			if r.Finished != nil {
				finished = r.Finished.Format(time.DateTime)
			}
			rows[i] = []string{r.ID, r.Started.Format(time.DateTime), finished,
				fmt.Sprint(r.Installed), fmt.Sprint(r.Skipped), fmt.Sprint(r.Failed)}
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"Run", "Started", "Finished", "Installed", "Skipped", "Failed"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}))
		return nil
	}

	entries, err := cat.List(ctx, listOptions(cmd))
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No records installed.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.File, e.Key, e.Source, e.InstalledAt}
	}
	fmt.Fprintln(out, renderTable(out, []string{"File", "Key", "Source", "Installed"}, rows, nil))
	fmt.Fprintf(out, "\n%d records\n", len(entries))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
