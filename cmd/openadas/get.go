// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/adf"
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/repository"
)

var getCmd = &cobra.Command{
	Use:   "get <class> <species> [ionisation]",
	Short: "Print an installed record",
	Long: `Get reads one record from the repository and prints its axes, tables and
scalars. Class is a full class path (pec/excitation, beam/stopping) or an
unambiguous short name (stopping, cx); ADF11 codes (scd, acd, plt) are
accepted for atomic classes. Beam classes need --donor; transition-keyed
classes need --transition. Without a required transition or metastable,
the record keys installed for the address are listed instead.

  openadas get stopping c 6 --donor h
  openadas get pec/excitation h 0 --transition "3 -> 2"`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runGet,
}

func init() {
	getCmd.Flags().String("donor", "", "beam or donor species")
	getCmd.Flags().String("transition", "", `transition as "upper -> lower"`)
	getCmd.Flags().Int("metastable", 0, "donor metastable index")
	getCmd.Flags().Bool("yaml", false, "print the record as YAML")

	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key, err := keyFromArgs(cmd, args)
	if err != nil {
		return err
	}
	store, err := repository.NewStore(cfg.Repository)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	needsTransition := key.Class.HasTransition() && key.Transition.IsZero()
	needsMetastable := key.Class.HasMetastable() && key.Metastable == 0
	if needsTransition || needsMetastable {
		keys, err := store.RecordKeys(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d records\n", key, len(keys))
		for _, k := range keys {
			fmt.Fprintln(out, "  "+k)
		}
		return nil
	}

	rec, err := store.Get(key)
	if err != nil {
		return err
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rec)
	}
	fmt.Fprintln(out, key)
	printRecord(out, rec)
	return nil
}

// keyFromArgs builds a key from the positional class, species and
// ionisation arguments plus the --donor, --transition and --metastable
// flags.
func keyFromArgs(cmd *cobra.Command, args []string) (address.Key, error) {
	class, err := address.ParseClass(args[0])
	if err != nil {
		if atomic, aerr := adf.ParseAtomicClass(args[0]); aerr == nil {
			class, err = atomic, nil
		}
	}
	if err != nil {
		return address.Key{}, err
	}
	species, err := element.Lookup(args[1])
	if err != nil {
		return address.Key{}, err
	}
	key := address.Key{Class: class, Species: species}
	if len(args) > 2 {
		if key.Ionisation, err = strconv.Atoi(args[2]); err != nil {
			return address.Key{}, fmt.Errorf("ionisation stage %q is not an integer", args[2])
		}
	}

	if donor, _ := cmd.Flags().GetString("donor"); donor != "" {
		if key.Donor, err = element.Lookup(donor); err != nil {
			return address.Key{}, err
		}
	}
	if t, _ := cmd.Flags().GetString("transition"); t != "" {
		if key.Transition, err = address.ParseTransition(t); err != nil {
			return address.Key{}, err
		}
	}
	key.Metastable, _ = cmd.Flags().GetInt("metastable")
	return key, nil
}

// printRecord writes scalars, then one-dimensional tables as axis/value
// columns, then two-dimensional tables as a grid.
func printRecord(w io.Writer, rec repository.Record) {
	for _, name := range sortedNames(rec.Scalars) {
		fmt.Fprintf(w, "%s = %s\n", name, formatFloat(rec.Scalars[name]))
	}
	for _, name := range sortedNames(rec.Tables) {
		t := rec.Tables[name]
		fmt.Fprintf(w, "\n%s [%s]\n", name, strings.Join(t.Axes, " x "))
		switch len(t.Axes) {
		case 1:
			axis := rec.Axes[t.Axes[0]]
			rows := make([][]string, len(t.Values))
			for i, v := range t.Values {
				rows[i] = []string{axisValue(axis, i), formatFloat(v)}
			}
			fmt.Fprintln(w, renderTable(w, []string{t.Axes[0], name}, rows, []columnAlignment{alignRight, alignRight}))
		case 2:
			rowAxis, colAxis := rec.Axes[t.Axes[0]], rec.Axes[t.Axes[1]]
			headers := []string{t.Axes[0] + ` \ ` + t.Axes[1]}
			for j := range colAxis {
				headers = append(headers, formatFloat(colAxis[j]))
			}
			aligns := make([]columnAlignment, len(headers))
			for i := range aligns {
				aligns[i] = alignRight
			}
			var rows [][]string
			for i := range rowAxis {
				row := []string{formatFloat(rowAxis[i])}
				for j := range colAxis {
					row = append(row, formatFloat(t.Values[i*len(colAxis)+j]))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(w, renderTable(w, headers, rows, aligns))
		}
	}
}

func sortedNames[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func axisValue(axis []float64, i int) string {
	if i < len(axis) {
		return formatFloat(axis[i])
	}
	return ""
}
