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


package corpusvec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poiesic/corpusvec/ai"
	"github.com/poiesic/corpusvec/ingestion"
	"github.com/poiesic/corpusvec/source/sqlite"
	"gopkg.in/yaml.v3"
)

// Index backends.
const (
	IndexBadger = "badger"
	IndexQdrant = "qdrant"
)

// Defaults for the King James verses corpus.
const (
	DefaultSourcePath     = "bible.db"
	DefaultIndexPath      = "literature_chroma_db"
	DefaultCollection     = "bible_verses"
	DefaultQdrantHost     = "localhost"
	DefaultQdrantPort     = 6334
	DefaultMaxAttempts    = 1
	DefaultRetryBaseDelay = time.Second
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one load run.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// SourceConfig locates the SQLite table to read.
type SourceConfig struct {
	Path       string `yaml:"path" validate:"required"`
	Table      string `yaml:"table" validate:"required,identifier"`
	IDColumn   string `yaml:"id_column" validate:"required,identifier"`
	TextColumn string `yaml:"text_column" validate:"required,identifier"`
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Provider      string        `yaml:"provider" validate:"oneof=ollama openai"`
	Host          string        `yaml:"host" validate:"required,url"`
	Model         string        `yaml:"model" validate:"required"`
	Token         string        `yaml:"token"`
	Timeout       time.Duration `yaml:"timeout" validate:"min=0s"`
	StripNewLines bool          `yaml:"strip_newlines"`
}

// IndexConfig selects the vector collection.
type IndexConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=badger qdrant"`
	Path         string `yaml:"path" validate:"required_if=Backend badger"`
	Collection   string `yaml:"collection" validate:"required,excludesall=:"`
	QdrantHost   string `yaml:"qdrant_host" validate:"required_if=Backend qdrant"`
	QdrantPort   int    `yaml:"qdrant_port" validate:"required_if=Backend qdrant,max=65535"`
	QdrantAPIKey string `yaml:"qdrant_api_key"`
	QdrantTLS    bool   `yaml:"qdrant_tls"`
}

// PipelineConfig tunes batching, retries, throttling and progress output.
// RateLimit is in embedding calls per second; zero means unlimited.
type PipelineConfig struct {
	BatchSize      int           `yaml:"batch_size" validate:"min=1"`
	ReportInterval int           `yaml:"report_interval" validate:"min=1"`
	MaxAttempts    int           `yaml:"max_attempts" validate:"min=1"`
	RetryDelay     time.Duration `yaml:"retry_delay" validate:"min=0s"`
	RateLimit      float64       `yaml:"rate_limit" validate:"min=0"`
}

// DefaultConfig returns the configuration for the verses corpus: rows from
// bible.db embedded by a local Ollama mxbai-embed-large and stored in the
// bible_verses collection under literature_chroma_db.
func DefaultConfig() *Config {
	embedding := ai.DefaultConfig()
	return &Config{
		Source: SourceConfig{
			Path:       DefaultSourcePath,
			Table:      sqlite.DefaultTable,
			IDColumn:   sqlite.DefaultIDColumn,
			TextColumn: sqlite.DefaultTextColumn,
		},
		Embedding: EmbeddingConfig{
			Provider:      embedding.Provider,
			Host:          embedding.Host,
			Model:         embedding.Model,
			Token:         embedding.Token,
			Timeout:       embedding.Timeout,
			StripNewLines: embedding.StripNewLines,
		},
		Index: IndexConfig{
			Backend:    IndexBadger,
			Path:       DefaultIndexPath,
			Collection: DefaultCollection,
			QdrantHost: DefaultQdrantHost,
			QdrantPort: DefaultQdrantPort,
		},
		Pipeline: PipelineConfig{
			BatchSize:      ingestion.DefaultBatchSize,
			ReportInterval: ingestion.DefaultReportInterval,
			MaxAttempts:    DefaultMaxAttempts,
			RetryDelay:     DefaultRetryBaseDelay,
		},
	}
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig.
// ${VAR} references are expanded from the environment before parsing and
// unknown keys are rejected.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return sqlite.IsIdentifier(fl.Field().String())
	})
	return v
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(msgs...))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the embedding section into a normalized ai.Config.
// The per-call timeout is applied by the pipeline, so the HTTP client is left
// without one.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
		ai.WithTimeout(0),
		ai.WithStripNewLines(c.Embedding.StripNewLines),
	)
	cfg.Normalize()
	return cfg
}

// PipelineOptions returns the ingestion options described by the config.
// Metadata keys follow the source column names.
func (c *Config) PipelineOptions() []ingestion.Option {
	return []ingestion.Option{
		ingestion.WithBatchSize(c.Pipeline.BatchSize),
		ingestion.WithMetadataKeys(c.Source.IDColumn, c.Source.TextColumn),
		ingestion.WithRetry(c.Pipeline.MaxAttempts, c.Pipeline.RetryDelay),
		ingestion.WithEmbedTimeout(c.Embedding.Timeout),
		ingestion.WithRateLimit(c.Pipeline.RateLimit),
	}
}
