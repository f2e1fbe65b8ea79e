// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/repository"
)

var wavelengthCmd = &cobra.Command{
	Use:   "wavelength <species> <ionisation> <transition>",
	Short: "Print the installed wavelength of a transition in nm",
	Example: `  openadas wavelength h 0 "3 -> 2"
  openadas wavelength c 5 "8 -> 7"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		species, err := element.Lookup(args[0])
		if err != nil {
			return err
		}
		ionisation, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("ionisation stage %q is not an integer", args[1])
		}
		transition, err := address.ParseTransition(args[2])
		if err != nil {
			return err
		}

		store, err := repository.NewStore(cfg.Repository)
		if err != nil {
			return err
		}
		nm, err := store.Wavelength(address.Key{
			Class:      address.Wavelength,
			Species:    species,
			Ionisation: ionisation,
			Transition: transition,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s nm\n", formatFloat(nm))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wavelengthCmd)
}
