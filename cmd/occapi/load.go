package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/occapi/cache"
	"github.com/briangreenhill/occapi/internal/catalogue"
	"github.com/briangreenhill/occapi/internal/config"
	"github.com/briangreenhill/occapi/internal/fetch"
	"github.com/briangreenhill/occapi/internal/providers"
)

// NewLoadCommand creates the load command
func NewLoadCommand() *cobra.Command {
	var (
		providersFile string
		store         string
		cacheDir      string
		resourceType  string
		filterType    string
		refresh       bool
	)

	cmd := &cobra.Command{
		Use:   "load <key>",
		Short: "Load a cache key from its provider and print the payload",
		Long: `Load the data stored under a cache key, fetching it from the provider when
it is missing or older than the provider index. --refresh fetches the provider
index first, which makes every other entry of that provider stale.

Settings come from the OCCAPI_* environment variables; flags override them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("providers") {
				cfg.ProvidersFile = providersFile
			}
			if flags.Changed("store") {
				cfg.Store = store
			}
			if flags.Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			lvl, _ := cfg.Level()
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(lvl).With().Timestamp().Logger()

			registry, err := providers.LoadFile(cfg.ProvidersFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, err := cfg.OpenStore(ctx)
			if err != nil {
				return err
			}
			if c, ok := st.(io.Closer); ok {
				defer c.Close() //nolint:errcheck
			}

			client := fetch.New(fetch.WithTimeout(cfg.FetchTimeout), fetch.WithLogger(logger))
			svc := catalogue.NewService(registry, cache.NewLoader(st, client, cache.WithLogger(logger)), catalogue.WithLogger(logger))

			body, err := loadKey(ctx, svc, args[0], cache.ResourceType(resourceType), cache.ResourceType(filterType), refresh)
			if err != nil {
				return err
			}
			return printPayload(cmd.OutOrStdout(), cmd.ErrOrStderr(), body)
		},
	}

	cmd.Flags().StringVar(&providersFile, "providers", "", "provider definitions file (default $OCCAPI_PROVIDERS)")
	cmd.Flags().StringVar(&store, "store", "", "cache store: memory, file or redis (default $OCCAPI_STORE)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory of the file store (default $OCCAPI_CACHE_DIR)")
	cmd.Flags().StringVar(&resourceType, "type", "", "expected resource type")
	cmd.Flags().StringVar(&filterType, "filter", "", "expected filter type, for collections")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refresh the provider index first")

	return cmd
}

func loadKey(ctx context.Context, svc *catalogue.Service, key string, resourceType, filterType cache.ResourceType, refresh bool) (json.RawMessage, error) {
	k := cache.Decode(key)

	if cache.IsIndexKey(key) {
		return svc.Index(ctx, k.Provider, refresh)
	}

	if refresh {
		if err := svc.Refresh(ctx, k.Provider); err != nil {
			return nil, err
		}
	}

	if k.Single() {
		return svc.Resource(ctx, key, resourceType)
	}
	return svc.Collection(ctx, key, resourceType, filterType)
}

func printPayload(out, errOut io.Writer, body json.RawMessage) error {
	if len(body) == 0 {
		fmt.Fprintln(errOut, "no data available from provider")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}
