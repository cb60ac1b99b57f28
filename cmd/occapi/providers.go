package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/occapi/internal/config"
	"github.com/briangreenhill/occapi/internal/fetch"
	"github.com/briangreenhill/occapi/internal/providers"
)

// NewProvidersCommand creates the providers command
func NewProvidersCommand() *cobra.Command {
	var (
		providersFile string
		check         bool
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the configured providers",
		Long: `List the configured providers. With --check every provider index is
requested and the HTTP status is shown, 0 meaning no response.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if providersFile == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				providersFile = cfg.ProvidersFile
			}

			registry, err := providers.LoadFile(providersFile)
			if err != nil {
				return err
			}

			header := providers.ListingHeader()
			rows := registry.Listing()

			if check {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				client := fetch.New(fetch.WithTimeout(timeout))

				header = append(header, "Response")
				for i, p := range registry.List() {
					rows[i] = append(rows[i], strconv.Itoa(client.StatusCode(ctx, p.IndexEndpoint())))
				}
			}

			renderTable(cmd.OutOrStdout(), header, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&providersFile, "providers", "", "provider definitions file (default $OCCAPI_PROVIDERS)")
	cmd.Flags().BoolVar(&check, "check", false, "request each provider index and show the response status")
	cmd.Flags().DurationVar(&timeout, "timeout", fetch.DefaultTimeout, "timeout of each check")
	return cmd
}
