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


// Package sqlite reads records from a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"

	"github.com/poiesic/corpusvec/core"
	"github.com/poiesic/corpusvec/source"
	_ "modernc.org/sqlite"
)

// Default table layout of the bible corpus.
const (
	DefaultTable      = "bible_verses"
	DefaultIDColumn   = "verse"
	DefaultTextColumn = "text"
)

var (
	// ErrInvalidIdentifier is returned for table or column names that are not
	// plain SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")

	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// IsIdentifier reports whether name can be used as a table or column name.
func IsIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// Reader implements source.Reader over one table of a SQLite file.
type Reader struct {
	db         *sql.DB
	path       string
	table      string
	idColumn   string
	textColumn string
	logger     *slog.Logger
}

var _ source.Reader = (*Reader)(nil)

// Option configures a Reader.
type Option func(*Reader) error

// WithTable sets the table to read.
func WithTable(table string) Option {
	return func(r *Reader) error {
		if !identifierRe.MatchString(table) {
			return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
		}
		r.table = table
		return nil
	}
}

// WithIDColumn sets the column holding record identifiers.
func WithIDColumn(column string) Option {
	return func(r *Reader) error {
		if !identifierRe.MatchString(column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
		}
		r.idColumn = column
		return nil
	}
}

// WithTextColumn sets the column holding record text.
func WithTextColumn(column string) Option {
	return func(r *Reader) error {
		if !identifierRe.MatchString(column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column)
		}
		r.textColumn = column
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) error {
		r.logger = logger
		return nil
	}
}

// Open opens the database at path read-only. The file must already exist.
func Open(path string, opts ...Option) (*Reader, error) {
	r := &Reader{
		path:       path,
		table:      DefaultTable,
		idColumn:   DefaultIDColumn,
		textColumn: DefaultTextColumn,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "sqlite-reader", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", source.ErrSourceNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	dsn := (&url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r.db = db
	return r, nil
}

// Query returns the SQL statement issued by ReadAll.
func (r *Reader) Query() string {
	return fmt.Sprintf(`SELECT "%s", "%s" FROM "%s"`, r.idColumn, r.textColumn, r.table)
}

// ReadAll returns every (identifier, text) pair of the table.
// NULL text is returned as the empty string.
func (r *Reader) ReadAll(ctx context.Context) ([]core.Record, error) {
	query := r.Query()
	r.logger.Debug("reading records", "query", query)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var id, text sql.NullString
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		records = append(records, core.Record{ID: id.String, Text: text.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.table, err)
	}

	r.logger.Debug("read records", "count", len(records))
	return records, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}
