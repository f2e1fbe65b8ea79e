// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openadas/internal/install"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the built-in install manifest or check a manifest file",
	Long: `Manifest prints the manifest compiled into openadas. Redirect it to a
file, edit it and pass it to "openadas install --manifest". With --check the
named manifest is validated and its job count printed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if check, _ := cmd.Flags().GetString("check"); check != "" {
			m, err := loadManifest(check)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files\n", check, m.Len())
			return nil
		}
		_, err := cmd.OutOrStdout().Write(install.DefaultManifestYAML())
		return err
	},
}

func init() {
	manifestCmd.Flags().String("check", "", "validate this manifest file")

	rootCmd.AddCommand(manifestCmd)
}
