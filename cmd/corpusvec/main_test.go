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
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/corpusvec"
	"github.com/poiesic/corpusvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findFlag(t *testing.T, app *cli.App, name string) cli.Flag {
	t.Helper()
	for _, flag := range app.Commands[0].Flags {
		for _, n := range flag.Names() {
			if n == name {
				return flag
			}
		}
	}
	t.Fatalf("flag %q not found", name)
	return nil
}

func TestLoadCommand_Flags(t *testing.T) {
	app := newApp()
	require.Len(t, app.Commands, 1)
	assert.Equal(t, "load", app.Commands[0].Name)

	for _, name := range []string{
		"config", "source", "table", "id-column", "text-column",
		"provider", "embedding-host", "embedding-model",
		"index", "index-path", "qdrant-host", "qdrant-port", "collection",
		"batch-size", "report-interval", "max-attempts", "retry-delay", "rate-limit", "embed-timeout",
	} {
		findFlag(t, app, name)
	}

	t.Run("defaults target the verses corpus", func(t *testing.T) {
		assert.Equal(t, "bible.db", findFlag(t, app, "source").(*cli.PathFlag).Value)
		assert.Equal(t, "bible_verses", findFlag(t, app, "table").(*cli.StringFlag).Value)
		assert.Equal(t, "mxbai-embed-large", findFlag(t, app, "embedding-model").(*cli.StringFlag).Value)
		assert.Equal(t, "literature_chroma_db", findFlag(t, app, "index-path").(*cli.PathFlag).Value)
		assert.Equal(t, 100, findFlag(t, app, "batch-size").(*cli.IntFlag).Value)
		assert.Equal(t, 1, findFlag(t, app, "max-attempts").(*cli.IntFlag).Value)
	})

	t.Run("no env vars", func(t *testing.T) {
		assert.Empty(t, findFlag(t, app, "embedding-host").(*cli.StringFlag).EnvVars)
		assert.Empty(t, findFlag(t, app, "embedding-model").(*cli.StringFlag).EnvVars)
	})
}

// captureConfig runs the load command with its action replaced and returns
// the resolved config.
func captureConfig(t *testing.T, args ...string) (*corpusvec.Config, error) {
	t.Helper()
	app := newApp()
	var cfg *corpusvec.Config
	app.Commands[0].Action = func(c *cli.Context) error {
		var err error
		cfg, err = loadConfig(c)
		return err
	}
	err := app.Run(append([]string{"corpusvec", "load"}, args...))
	return cfg, err
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without flags", func(t *testing.T) {
		cfg, err := captureConfig(t)
		require.NoError(t, err)
		assert.Equal(t, corpusvec.DefaultConfig(), cfg)
	})

	t.Run("flags override defaults", func(t *testing.T) {
		cfg, err := captureConfig(t,
			"--source", "/data/kjv.db",
			"--provider", "openai",
			"--index", "qdrant",
			"--qdrant-port", "6400",
			"--batch-size", "32",
			"--embed-timeout", "5s",
			"--rate-limit", "2.5",
		)
		require.NoError(t, err)
		assert.Equal(t, "/data/kjv.db", cfg.Source.Path)
		assert.Equal(t, "openai", cfg.Embedding.Provider)
		assert.Equal(t, "qdrant", cfg.Index.Backend)
		assert.Equal(t, 6400, cfg.Index.QdrantPort)
		assert.Equal(t, 32, cfg.Pipeline.BatchSize)
		assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
		assert.Equal(t, 2.5, cfg.Pipeline.RateLimit)
		assert.Equal(t, "bible_verses", cfg.Source.Table)
	})

	t.Run("set flags override the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpusvec.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
source:
  table: kjv
pipeline:
  batch_size: 10
  report_interval: 5
`), 0o644))

		cfg, err := captureConfig(t, "--config", path, "--batch-size", "20")
		require.NoError(t, err)
		assert.Equal(t, "kjv", cfg.Source.Table)
		assert.Equal(t, 20, cfg.Pipeline.BatchSize)
		assert.Equal(t, 5, cfg.Pipeline.ReportInterval)
	})

	t.Run("bad config file", func(t *testing.T) {
		_, err := captureConfig(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	run := func(level string) error {
		app := newApp()
		app.Commands[0].Action = func(*cli.Context) error { return nil }
		return app.Run([]string{"corpusvec", "--log-level", level, "load"})
	}

	assert.NoError(t, run("DEBUG"))
	assert.ErrorContains(t, run("loud"), "invalid log level")
}

func TestLoadCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bible.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE bible_verses (verse TEXT PRIMARY KEY, text TEXT)`,
		`INSERT INTO bible_verses VALUES ('A:1', 'alpha')`,
		`INSERT INTO bible_verses VALUES ('A:2', 'beta')`,
		`INSERT INTO bible_verses VALUES ('A:3', 'gamma')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Input == "beta" {
			http.Error(w, "model overloaded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5,0]]}`))
	}))
	defer server.Close()

	indexPath := filepath.Join(dir, "index")
	var out bytes.Buffer
	app := newApp()
	app.ErrWriter = &out

	err = app.Run([]string{"corpusvec", "load",
		"--source", dbPath,
		"--embedding-host", server.URL,
		"--index-path", indexPath,
		"--collection", "verses",
		"--batch-size", "2",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Done: 3 records read, 2 indexed in 1 batches")
	assert.Contains(t, out.String(), "1 failed")

	backend, err := badger.OpenBackend(indexPath, false)
	require.NoError(t, err)
	defer backend.Close()
	collection, err := badger.NewCollection(backend, "verses")
	require.NoError(t, err)

	ctx := context.Background()
	count, err := collection.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	entry, err := collection.Get(ctx, "A:3")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, entry.Vector)
	assert.Equal(t, "gamma", entry.Metadata["text"])
}
