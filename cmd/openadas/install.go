// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/openadas/internal/acquire"
	"github.com/pdiddy/openadas/internal/catalog"
	"github.com/pdiddy/openadas/internal/install"
	"github.com/pdiddy/openadas/internal/repository"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download, decode and store the files named by a manifest",
	Long: `Install resolves every file in the manifest (local ADAS tree, download
cache, then the OpenADAS mirror), decodes it and merges its records into the
repository. Sources whose content is unchanged since the last install are
skipped unless --force is given. A failed file does not stop the batch; the
command exits non-zero when any file or block failed.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().String("manifest", "", "manifest file (default: the built-in manifest)")
	installCmd.Flags().Bool("force", false, "reinstall sources the catalog reports as unchanged")
	installCmd.Flags().Bool("no-catalog", false, "do not record provenance or skip unchanged sources")
	installCmd.Flags().Bool("offline", false, "never download; use the ADAS tree and cache only")
	installCmd.Flags().String("adas-path", "", "local ADAS tree searched before the download cache")

	_ = viper.BindPFlag("acquisition.offline", installCmd.Flags().Lookup("offline"))
	_ = viper.BindPFlag("acquisition.adas_path", installCmd.Flags().Lookup("adas-path"))

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("manifest")
	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	store, err := repository.NewStore(cfg.Repository)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	opts := []install.Option{install.WithLogger(logger), install.WithForce(force)}
	if noCatalog, _ := cmd.Flags().GetBool("no-catalog"); !noCatalog {
		cat, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer cat.Close()
		opts = append(opts, install.WithCatalog(cat))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resolver := acquire.NewResolver(cfg.Acquisition, nil, logger)
	summary, err := install.New(m, store, resolver, opts...).Install(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) or block(s) failed to install", summary.Failed)
	}
	return nil
}

// loadManifest reads the manifest at path, or returns the built-in one
// when path is empty.
func loadManifest(path string) (install.Manifest, error) {
	if path == "" {
		return install.DefaultManifest(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return install.Manifest{}, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	m, err := install.LoadManifest(f)
	if err != nil {
		return install.Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
