package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/occapi/cache"
)

// NewKeyCommand groups the cache key subcommands
func NewKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Encode, decode and validate cache keys",
	}

	cmd.AddCommand(newKeyEncodeCommand())
	cmd.AddCommand(newKeyDecodeCommand())
	cmd.AddCommand(newKeyValidateCommand())

	return cmd
}

func newKeyEncodeCommand() *cobra.Command {
	var k cache.Key
	var filterType, resourceType string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a cache key from its parts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k.FilterType = cache.ResourceType(filterType)
			k.Type = cache.ResourceType(resourceType)

			s, err := cache.Encode(k)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVar(&k.Provider, "provider", "", "provider machine name")
	cmd.Flags().StringVar(&filterType, "filter-type", "", "filter resource type")
	cmd.Flags().StringVar(&k.FilterID, "filter-id", "", "filter resource ID")
	cmd.Flags().StringVar(&resourceType, "type", "", "resource type")
	cmd.Flags().StringVar(&k.ID, "id", "", "resource ID, for a single resource")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newKeyDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <key>",
		Short: "Show the parts of a cache key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := cache.Decode(args[0])

			index := ""
			if cache.IsIndexKey(args[0]) {
				index = "Yes"
			}

			renderTable(cmd.OutOrStdout(), []string{"Part", "Value"}, [][]string{
				{"Provider", k.Provider},
				{"Filter type", string(k.FilterType)},
				{"Filter ID", k.FilterID},
				{"Resource type", string(k.Type)},
				{"Resource ID", k.ID},
				{"Index", index},
			})
			return nil
		},
	}
}

func newKeyValidateCommand() *cobra.Command {
	var single bool
	var resourceType, filterType string

	cmd := &cobra.Command{
		Use:   "validate <key>",
		Short: "Check that a key is a well formed collection or resource key",
		Long: `Check that a key is a well formed collection key, or a single resource key
with --single. With --type or --filter the key must also hold that resource or
filter type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch {
			case single:
				if filterType != "" {
					return fmt.Errorf("--filter applies to collection keys only")
				}
				err = cache.ValidateResourceKey(args[0], cache.ResourceType(resourceType))
			case resourceType != "" || filterType != "":
				err = cache.ValidateCollectionKey(args[0], cache.ResourceType(resourceType), cache.ResourceType(filterType))
			default:
				err = cache.Validate(cache.Decode(args[0]), false)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&single, "single", false, "expect a single resource key")
	cmd.Flags().StringVar(&resourceType, "type", "", "expected resource type")
	cmd.Flags().StringVar(&filterType, "filter", "", "expected filter type")

	return cmd
}
