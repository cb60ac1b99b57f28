package main

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "occapi",
		Short: "Inspect and load OCCAPI course catalogue data",
		Long: `occapi works with the cache of provider course catalogues.

It encodes and checks cache keys, loads provider data through the cache
and shows how course metadata applies to programmes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewKeyCommand())
	rootCmd.AddCommand(NewLoadCommand())
	rootCmd.AddCommand(NewProvidersCommand())
	rootCmd.AddCommand(NewMetaCommand())

	return rootCmd
}
