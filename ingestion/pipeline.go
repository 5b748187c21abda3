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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/corpusvec/ai"
	"github.com/poiesic/corpusvec/core"
	"github.com/poiesic/corpusvec/source"
	"github.com/poiesic/corpusvec/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of entries written per index call.
	DefaultBatchSize = 100

	// DefaultReportInterval is how often, in records, progress is printed.
	DefaultReportInterval = 100

	// previewLength is the number of runes of text included in failure logs.
	previewLength = 50
)

// Pipeline reads every record from a source, embeds it and upserts the
// vectors into an index in fixed-size batches.
// A record whose embedding fails is logged and skipped; a batch whose write
// fails is logged and lost. Neither stops the run.
type Pipeline struct {
	reader   source.Reader
	embedder ai.Embedder
	index    storage.VectorIndex

	batchSize      int
	idKey          string
	textKey        string
	maxAttempts    int
	retryDelay     time.Duration
	embedTimeout   time.Duration
	limiter        *rate.Limiter
	progress       io.Writer
	reportInterval int
	observer       func(State)
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of entries per index write.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithMetadataKeys sets the metadata keys for the identifier and the text.
// Default is "verse" and "text".
func WithMetadataKeys(idKey, textKey string) Option {
	return func(p *Pipeline) error {
		if idKey == "" || textKey == "" || idKey == textKey {
			return ErrInvalidMetadataKey
		}
		p.idKey = idKey
		p.textKey = textKey
		return nil
	}
}

// WithRetry sets how many times a failed embedding call is attempted and the
// base delay between attempts. Only call failures are retried.
// Default is a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithEmbedTimeout bounds each embedding call. Zero disables the bound.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout < 0 {
			return errors.New("embed timeout cannot be negative")
		}
		p.embedTimeout = timeout
		return nil
	}
}

// WithRateLimit caps embedding calls at perSecond, retries included.
// Zero disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(p *Pipeline) error {
		if perSecond < 0 {
			return errors.New("rate limit cannot be negative")
		}
		p.limiter = nil
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
		return nil
	}
}

// WithProgress writes a progress line to w every interval records.
// A nil writer disables progress output.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progress = w
		p.reportInterval = interval
		return nil
	}
}

// WithStateObserver registers a function called on every state transition.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pipeline) error {
		p.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
// The pipeline does not own its collaborators; the caller closes them.
func NewPipeline(reader source.Reader, embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Pipeline, error) {
	if reader == nil {
		return nil, ErrReaderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		reader:         reader,
		embedder:       embedder,
		index:          index,
		batchSize:      DefaultBatchSize,
		idKey:          "verse",
		textKey:        "text",
		maxAttempts:    1,
		retryDelay:     time.Second,
		reportInterval: DefaultReportInterval,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Run executes the pipeline once over the whole source.
//
// Run returns an error only when the source cannot be read or ctx is done.
// On cancellation the partial batch is dropped and ctx.Err() is returned
// along with the statistics gathered so far.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	r := &run{
		Pipeline: p,
		batch:    NewBatch(p.batchSize),
		stats:    Stats{RunID: uuid.NewString(), EmbedFailures: make(map[ai.ErrorKind]int)},
	}
	r.logger = p.logger.With("run", r.stats.RunID)
	start := time.Now()
	err := r.execute(ctx)
	r.stats.Elapsed = time.Since(start)
	return r.stats, err
}

// run holds the mutable state of one Run.
type run struct {
	*Pipeline
	logger  *slog.Logger
	batch   *Batch
	stats   Stats
	tracker *ProgressTracker
}

func (r *run) transition(s State) {
	r.stats.State = s
	if r.observer != nil {
		r.observer(s)
	}
}

func (r *run) execute(ctx context.Context) error {
	r.transition(StateInit)
	r.transition(StateReading)

	records, err := r.reader.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	r.logger.Info("loaded records", "count", len(records), "batchSize", r.batchSize)

	if r.progress != nil {
		r.tracker = NewProgressTracker(r.progress, len(records), r.reportInterval)
		r.tracker.Start()
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run cancelled", "processed", i, "pending", r.batch.Len())
			return err
		}
		if i > 0 {
			r.transition(StateReading)
		}
		r.stats.Read++

		if err := r.process(ctx, record); err != nil {
			return err
		}
		if r.tracker != nil {
			r.tracker.Increment(1)
		}
	}

	r.transition(StateFinalFlush)
	if r.batch.Len() > 0 {
		r.flush(ctx)
	}

	r.transition(StateDone)
	if r.tracker != nil {
		r.tracker.Finish()
	}
	r.logger.Info("run complete",
		"read", r.stats.Read,
		"indexed", r.stats.Indexed,
		"skipped", r.stats.Skipped,
		"failed", r.stats.Failed(),
		"lost", r.stats.Lost,
		"batches", r.stats.Batches)
	return nil
}

// process moves one record through embedding and accumulation.
// It returns an error only when ctx is done.
func (r *run) process(ctx context.Context, record core.Record) error {
	if err := core.ValidateRecord(record); err != nil {
		r.stats.Skipped++
		r.logger.Warn("skipping record", "id", record.ID, "err", err)
		return nil
	}

	r.transition(StateEmbedding)
	vector, err := r.embed(ctx, record.Text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		kind := ai.KindOf(err)
		r.stats.EmbedFailures[kind]++
		if r.tracker != nil {
			r.tracker.Fail(1)
		}
		r.logger.Error("failed to embed record",
			"id", record.ID,
			"kind", kind.String(),
			"text", core.Preview(record.Text, previewLength),
			"err", err)
		return nil
	}

	r.transition(StateAccumulating)
	r.batch.Add(record.ID, vector, core.NewMetadata(r.idKey, r.textKey, record))
	r.stats.Embedded++

	if r.batch.Full() {
		r.transition(StateFlushing)
		r.flush(ctx)
	}
	return nil
}

// embed calls the embedder with the configured timeout and retry policy.
func (r *run) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retryWithBackoff(ctx, r.logger, func() error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		callCtx := ctx
		if r.embedTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.embedTimeout)
			defer cancel()
		}
		var err error
		vector, err = safeEmbed(callCtx, r.embedder, text)
		return err
	}, r.maxAttempts, r.retryDelay, func(err error) bool {
		return ai.KindOf(err) == ai.KindCall
	})
	return vector, err
}

// safeEmbed converts a panic inside the embedder into a KindUnexpected error.
func safeEmbed(ctx context.Context, embedder ai.Embedder, text string) (vector []float32, err error) {
	defer func() {
		if v := recover(); v != nil {
			vector = nil
			err = ai.NewEmbedError(ai.KindUnexpected, fmt.Errorf("embedder panic: %v", v))
		}
	}()
	return embedder.EmbedText(ctx, text)
}

// flush writes the current batch and clears it regardless of the outcome.
func (r *run) flush(ctx context.Context) {
	defer r.batch.Reset()

	size := r.batch.Len()
	err := r.batch.check()
	if err != nil {
		err = &storage.WriteError{Kind: storage.KindUnexpected, FirstID: r.batch.FirstID(), Size: size, Err: err}
	} else {
		err = safeUpsert(ctx, r.index, r.batch)
	}

	if err != nil {
		r.stats.Lost += size
		r.stats.FailedBatches++
		if r.tracker != nil {
			r.tracker.Fail(size)
		}
		var writeErr *storage.WriteError
		kind := storage.KindStore
		if errors.As(err, &writeErr) {
			kind = writeErr.Kind
		}
		r.logger.Error("failed to write batch",
			"first", r.batch.FirstID(),
			"size", size,
			"kind", kind.String(),
			"err", err)
		return
	}

	r.stats.Indexed += size
	r.stats.Batches++
	r.logger.Debug("wrote batch", "first", r.batch.FirstID(), "size", size)
}

// safeUpsert wraps index failures in *storage.WriteError.
func safeUpsert(ctx context.Context, index storage.VectorIndex, batch *Batch) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &storage.WriteError{
				Kind:    storage.KindUnexpected,
				FirstID: batch.FirstID(),
				Size:    batch.Len(),
				Err:     fmt.Errorf("index panic: %v", v),
			}
		}
	}()

	err = index.Upsert(ctx, batch.IDs(), batch.Vectors(), batch.Metadatas())
	if err == nil {
		return nil
	}
	var writeErr *storage.WriteError
	if errors.As(err, &writeErr) {
		return err
	}
	return &storage.WriteError{Kind: storage.KindStore, FirstID: batch.FirstID(), Size: batch.Len(), Err: err}
}
