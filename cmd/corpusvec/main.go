// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/corpusvec"
	"github.com/poiesic/corpusvec/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := corpusvec.DefaultConfig()

	return &cli.App{
		Name:  "corpusvec",
		Usage: "Load a SQLite text corpus into a vector collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Embed every record of a table and upsert it into a collection",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML config file; flags that are set override it",
					},
					&cli.PathFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Path to the SQLite database",
						Value:   defaults.Source.Path,
					},
					&cli.StringFlag{
						Name:  "table",
						Usage: "Table holding the records",
						Value: defaults.Source.Table,
					},
					&cli.StringFlag{
						Name:  "id-column",
						Usage: "Column holding the record identifier",
						Value: defaults.Source.IDColumn,
					},
					&cli.StringFlag{
						Name:  "text-column",
						Usage: "Column holding the record text",
						Value: defaults.Source.TextColumn,
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Embedding provider (ollama, openai)",
						Value: defaults.Embedding.Provider,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: defaults.Embedding.Host,
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: defaults.Embedding.Model,
					},
					&cli.StringFlag{
						Name:  "index",
						Usage: "Vector index backend (badger, qdrant)",
						Value: defaults.Index.Backend,
					},
					&cli.PathFlag{
						Name:  "index-path",
						Usage: "Directory of the badger index",
						Value: defaults.Index.Path,
					},
					&cli.StringFlag{
						Name:  "qdrant-host",
						Usage: "Qdrant gRPC host",
						Value: defaults.Index.QdrantHost,
					},
					&cli.IntFlag{
						Name:  "qdrant-port",
						Usage: "Qdrant gRPC port",
						Value: defaults.Index.QdrantPort,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection to upsert into",
						Value: defaults.Index.Collection,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries written per index call",
						Value: defaults.Pipeline.BatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: defaults.Pipeline.ReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Attempts per embedding call on transport failures",
						Value: defaults.Pipeline.MaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: defaults.Pipeline.RetryDelay,
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Maximum embedding calls per second (0 for unlimited)",
						Value: defaults.Pipeline.RateLimit,
					},
					&cli.DurationFlag{
						Name:  "embed-timeout",
						Usage: "Timeout for a single embedding call (0 for none)",
						Value: defaults.Embedding.Timeout,
					},
				},
			},
		},
	}
}

// loadConfig starts from the config file, or the defaults, and applies every
// flag the user set explicitly.
func loadConfig(c *cli.Context) (*corpusvec.Config, error) {
	cfg := corpusvec.DefaultConfig()
	if path := c.Path("config"); path != "" {
		var err error
		cfg, err = corpusvec.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
	}

	strs := map[string]*string{
		"source":          &cfg.Source.Path,
		"table":           &cfg.Source.Table,
		"id-column":       &cfg.Source.IDColumn,
		"text-column":     &cfg.Source.TextColumn,
		"provider":        &cfg.Embedding.Provider,
		"embedding-host":  &cfg.Embedding.Host,
		"embedding-model": &cfg.Embedding.Model,
		"index":           &cfg.Index.Backend,
		"index-path":      &cfg.Index.Path,
		"qdrant-host":     &cfg.Index.QdrantHost,
		"collection":      &cfg.Index.Collection,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	ints := map[string]*int{
		"qdrant-port":     &cfg.Index.QdrantPort,
		"batch-size":      &cfg.Pipeline.BatchSize,
		"report-interval": &cfg.Pipeline.ReportInterval,
		"max-attempts":    &cfg.Pipeline.MaxAttempts,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	if c.IsSet("retry-delay") {
		cfg.Pipeline.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("rate-limit") {
		cfg.Pipeline.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("embed-timeout") {
		cfg.Embedding.Timeout = c.Duration("embed-timeout")
	}
	return cfg, nil
}

func loadCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	loader, err := corpusvec.NewLoader(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up loader: %w", err)
	}
	defer loader.Close()

	out := c.App.ErrWriter
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "Source: %s (%s.%s, %s)\n", cfg.Source.Path, cfg.Source.Table, cfg.Source.IDColumn, cfg.Source.TextColumn)
	fmt.Fprintf(out, "Embedding: %s %s at %s\n", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Host)
	fmt.Fprintf(out, "Index: %s collection %q\n", cfg.Index.Backend, cfg.Index.Collection)
	fmt.Fprintln(out)

	stats, err := loader.Run(ctx, ingestion.WithProgress(out, cfg.Pipeline.ReportInterval))
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "Interrupted: %s\n", stats)
		}
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Fprintf(out, "Done: %s\n", stats)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
