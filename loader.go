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


// Package corpusvec loads the rows of a SQLite table into a vector collection.
package corpusvec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/corpusvec/ai"
	"github.com/poiesic/corpusvec/ai/ollama"
	"github.com/poiesic/corpusvec/ai/openai"
	"github.com/poiesic/corpusvec/ingestion"
	"github.com/poiesic/corpusvec/source"
	"github.com/poiesic/corpusvec/source/sqlite"
	"github.com/poiesic/corpusvec/storage"
	"github.com/poiesic/corpusvec/storage/badger"
	"github.com/poiesic/corpusvec/storage/qdrant"
)

// Loader owns the three collaborators of a load run: the source reader, the
// embedding client and the vector index.
type Loader struct {
	config   *Config
	reader   source.Reader
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	reader   source.Reader
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// WithReader uses reader instead of opening the configured SQLite file.
// The Loader takes ownership and closes it.
func WithReader(reader source.Reader) LoaderOption {
	return func(o *loaderOptions) {
		o.reader = reader
	}
}

// WithEmbedder uses embedder instead of the configured provider.
func WithEmbedder(embedder ai.Embedder) LoaderOption {
	return func(o *loaderOptions) {
		o.embedder = embedder
	}
}

// WithIndex uses index instead of opening the configured backend.
// The Loader takes ownership and closes it.
func WithIndex(index storage.VectorIndex) LoaderOption {
	return func(o *loaderOptions) {
		o.index = index
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		o.logger = logger
	}
}

// NewLoader validates cfg and opens the source, the embedding client and the
// index. On failure anything already opened is closed again.
func NewLoader(cfg *Config, opts ...LoaderOption) (*Loader, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &loaderOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "loader")

	var cleanup []func() error
	runCleanup := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			if err := cleanup[i](); err != nil {
				logger.Error("cleanup failed", "err", err)
			}
		}
	}

	reader := o.reader
	if reader == nil {
		r, err := sqlite.Open(cfg.Source.Path,
			sqlite.WithTable(cfg.Source.Table),
			sqlite.WithIDColumn(cfg.Source.IDColumn),
			sqlite.WithTextColumn(cfg.Source.TextColumn),
			sqlite.WithLogger(o.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("open source: %w", err)
		}
		reader = r
	}
	cleanup = append(cleanup, reader.Close)

	embedder := o.embedder
	if embedder == nil {
		e, err := newEmbedder(cfg.AIConfig())
		if err != nil {
			runCleanup()
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		embedder = e
	}

	index := o.index
	if index == nil {
		i, err := openIndex(cfg.Index)
		if err != nil {
			runCleanup()
			return nil, fmt.Errorf("open index: %w", err)
		}
		index = i
	}

	logger.Debug("loader ready",
		"source", cfg.Source.Path,
		"provider", cfg.Embedding.Provider,
		"model", cfg.Embedding.Model,
		"index", cfg.Index.Backend,
		"collection", cfg.Index.Collection)

	return &Loader{
		config:   cfg,
		reader:   reader,
		embedder: embedder,
		index:    index,
		logger:   o.logger,
	}, nil
}

func newEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.NewEmbedder(cfg)
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cfg.Provider)
	}
}

func openIndex(cfg IndexConfig) (storage.VectorIndex, error) {
	switch cfg.Backend {
	case IndexBadger:
		return badger.OpenCollection(cfg.Path, cfg.Collection)
	case IndexQdrant:
		return qdrant.OpenCollection(qdrant.Config{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantTLS,
		}, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// Config returns the validated configuration.
func (l *Loader) Config() *Config {
	return l.config
}

// Index returns the vector index entries are written to.
func (l *Loader) Index() storage.VectorIndex {
	return l.index
}

// NewPipeline builds an ingestion pipeline from the loader's components and
// config. Extra options are applied after the config-derived ones.
func (l *Loader) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	all := append(l.config.PipelineOptions(), ingestion.WithLogger(l.logger))
	all = append(all, opts...)
	return ingestion.NewPipeline(l.reader, l.embedder, l.index, all...)
}

// Run loads every record of the source into the index.
func (l *Loader) Run(ctx context.Context, opts ...ingestion.Option) (ingestion.Stats, error) {
	pipeline, err := l.NewPipeline(opts...)
	if err != nil {
		return ingestion.Stats{}, err
	}
	return pipeline.Run(ctx)
}

// Close releases the index and then the source.
func (l *Loader) Close() error {
	var errs []error
	if err := l.index.Close(); err != nil {
		l.logger.Error("failed to close index", "err", err)
		errs = append(errs, fmt.Errorf("close index: %w", err))
	}
	if err := l.reader.Close(); err != nil {
		l.logger.Error("failed to close source", "err", err)
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	return errors.Join(errs...)
}
