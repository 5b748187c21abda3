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


// Package qdrant implements storage.VectorIndex on a remote Qdrant collection.
//
// Qdrant keys points by unsigned integer or UUID, so each record identifier
// is mapped to core.IDFromContent(collection + ":" + id) and kept verbatim in
// the point payload under PayloadIDKey.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/corpusvec/core"
	"github.com/poiesic/corpusvec/storage"
	"github.com/qdrant/go-client/qdrant"
)

// PayloadIDKey is the payload field holding the record identifier.
const PayloadIDKey = "_record_id"

// pointsClient is the subset of *qdrant.Client used by Collection.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Close() error
}

var _ pointsClient = (*qdrant.Client)(nil)

// Config holds connection settings for a Qdrant server.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Collection implements storage.VectorIndex against Qdrant.
type Collection struct {
	client pointsClient
	name   string
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

var _ storage.VectorIndex = (*Collection)(nil)

// OpenCollection connects to Qdrant and returns the named collection.
// The collection is created on the first upsert if it doesn't exist, sized to
// the first vector written.
//
// Returns storage.VectorIndex interface to enforce abstraction.
func OpenCollection(cfg Config, name string) (storage.VectorIndex, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty", storage.ErrInvalidCollection)
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return newCollection(client, name), nil
}

func newCollection(client pointsClient, name string) *Collection {
	return &Collection{
		client: client,
		name:   name,
		logger: slog.Default().With("component", "qdrant", "collection", name),
	}
}

// PointID returns the Qdrant point ID used for a record identifier.
func PointID(collection, id string) uint64 {
	return uint64(core.IDFromContent(collection + ":" + id))
}

func (c *Collection) ensureCollection(ctx context.Context, dim int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	exists, err := c.client.CollectionExists(ctx, c.name)
	if err != nil {
		return err
	}
	if !exists {
		err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		c.logger.Info("created collection", "dimension", dim)
	}
	c.ready = true
	return nil
}

// Upsert writes the batch as one Qdrant upsert request and waits for it to apply.
func (c *Collection) Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []core.Metadata) error {
	if err := storage.CheckLengths(len(ids), len(vectors), len(metadatas)); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(ids))
	for i, id := range ids {
		payload := make(map[string]any, len(metadatas[i])+1)
		for k, v := range metadatas[i] {
			payload[k] = v
		}
		payload[PayloadIDKey] = id

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(PointID(c.name, id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return err
	}
	c.logger.Debug("upserted batch", "size", len(ids), "first", ids[0])
	return nil
}

// Count returns the exact number of points in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	n, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Get retrieves a single entry by identifier.
func (c *Collection) Get(ctx context.Context, id string) (*core.Entry, error) {
	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.name,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(PointID(c.name, id))},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}

	point := points[0]
	entry := &core.Entry{
		ID:       id,
		Metadata: make(core.Metadata, len(point.GetPayload())),
	}
	for k, v := range point.GetPayload() {
		if k == PayloadIDKey {
			continue
		}
		entry.Metadata[k] = v.GetStringValue()
	}
	if vector := point.GetVectors().GetVector(); vector != nil {
		entry.Vector = vector.GetDense().GetData()
		if entry.Vector == nil {
			// Servers before 1.13 fill the flat field only.
			entry.Vector = vector.GetData() //nolint:staticcheck
		}
	}
	if entry.Vector == nil {
		return nil, errors.New("qdrant returned a point without a dense vector")
	}
	return entry, nil
}

// Close closes the gRPC connection.
func (c *Collection) Close() error {
	return c.client.Close()
}
