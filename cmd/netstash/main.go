// Command netstash is a small CLI over the caching layer: fetch a URL
// through the cache, download a file, or clear cache entries.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/netstash/netstash"
	"github.com/netstash/netstash/download"
	"github.com/netstash/netstash/outcome"
	"github.com/netstash/netstash/store"
)

type fileConfig struct {
	BaseURL string `yaml:"base_url"`
	TTL     string `yaml:"ttl"`
	Offline *bool  `yaml:"offline"`
	Cache   struct {
		Backend string `yaml:"backend"` // memory, sqlite, redis
		Path    string `yaml:"path"`
		Redis   string `yaml:"redis_url"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"cache"`
	DownloadDir string `yaml:"download_dir"`
}

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "netstash",
		Short:         "Client-side request/response cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(getCmd(), downloadCmd(), clearCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newSession(ctx context.Context) (*netstash.Session, error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	opts := []netstash.Option{netstash.WithLogger(log)}

	if configPath != "" {
		buf, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		var cfg fileConfig
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if cfg.BaseURL != "" {
			opts = append(opts, netstash.WithBaseURL(cfg.BaseURL))
		}
		if cfg.TTL != "" {
			opts = append(opts, netstash.WithTTLString(cfg.TTL))
		}
		if cfg.Offline != nil {
			opts = append(opts, netstash.WithOfflineMode(*cfg.Offline))
		}
		if cfg.DownloadDir != "" {
			opts = append(opts, netstash.WithDownloadDir(cfg.DownloadDir))
		}
		switch cfg.Cache.Backend {
		case "", "memory":
		case "sqlite":
			kv, err := store.NewSQLite(ctx, cfg.Cache.Path)
			if err != nil {
				return nil, fmt.Errorf("open sqlite cache: %w", err)
			}
			opts = append(opts, netstash.WithKV(kv))
		case "redis":
			ropts, err := redis.ParseURL(cfg.Cache.Redis)
			if err != nil {
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
			opts = append(opts, netstash.WithKV(store.NewRedis(redis.NewClient(ropts), cfg.Cache.Prefix)))
		default:
			return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
		}
	}

	return netstash.New(opts...)
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a URL through the cache and print the JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			key := args[0]
			for o := range netstash.Fetch[json.RawMessage](ctx, s, key, s.Get(key), nil) {
				switch o.Kind {
				case outcome.KindLoading:
					fmt.Fprintln(os.Stderr, "loading...")
				case outcome.KindSuccess:
					fmt.Println(string(o.Data))
				case outcome.KindFailure:
					return fmt.Errorf("%s (%s)", o.Message, o.Cause)
				}
			}
			return nil
		},
	}
}

func downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <url>",
		Short: "Download a file through the streaming path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			key := args[0]
			for o := range netstash.Fetch[download.File](ctx, s, key, s.Get(key), nil) {
				switch o.Kind {
				case outcome.KindLoading:
					if o.Progress != outcome.ProgressUnknown {
						fmt.Fprintf(os.Stderr, "\r%3d%%", o.Progress)
					}
				case outcome.KindSuccess:
					fmt.Fprintln(os.Stderr)
					fmt.Printf("%s (%d bytes)\n", o.Data.Path, o.Data.Size)
				case outcome.KindFailure:
					fmt.Fprintln(os.Stderr)
					return fmt.Errorf("%s (%s)", o.Message, o.Cause)
				}
			}
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key]",
		Short: "Clear one cache entry, or all entries when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var key string
			if len(args) == 1 {
				key = args[0]
			}
			for o := range s.ClearCache(ctx, key) {
				if o.Kind == outcome.KindFailure {
					return fmt.Errorf("%s (%s)", o.Message, o.Cause)
				}
			}
			fmt.Println("cache cleared")
			return nil
		},
	}
}
