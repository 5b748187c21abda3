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


package qdrant

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/corpusvec/core"
	"github.com/poiesic/corpusvec/storage"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-process stand-in for a Qdrant server.
type fakeClient struct {
	exists    bool
	created   []*qdrant.CreateCollection
	upserts   []*qdrant.UpsertPoints
	points    map[uint64]*qdrant.PointStruct
	upsertErr error
	closed    bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{points: make(map[uint64]*qdrant.PointStruct)}
}

func (f *fakeClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, nil
}

func (f *fakeClient) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.created = append(f.created, req)
	f.exists = true
	return nil
}

func (f *fakeClient) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	for _, p := range req.GetPoints() {
		f.points[p.GetId().GetNum()] = p
	}
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error) {
	return uint64(len(f.points)), nil
}

func (f *fakeClient) Get(ctx context.Context, req *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error) {
	var out []*qdrant.RetrievedPoint
	for _, id := range req.GetIds() {
		p, ok := f.points[id.GetNum()]
		if !ok {
			continue
		}
		out = append(out, &qdrant.RetrievedPoint{
			Id:      p.GetId(),
			Payload: p.GetPayload(),
			Vectors: &qdrant.VectorsOutput{
				VectorsOptions: &qdrant.VectorsOutput_Vector{
					Vector: &qdrant.VectorOutput{
						Vector: &qdrant.VectorOutput_Dense{
							Dense: &qdrant.DenseVector{Data: p.GetVectors().GetVector().GetDense().GetData()},
						},
					},
				},
			},
		})
	}
	return out, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestCollection_UpsertCreatesCollection(t *testing.T) {
	client := newFakeClient()
	collection := newCollection(client, "bible_verses")
	ctx := context.Background()

	err := collection.Upsert(ctx,
		[]string{"Genesis 1:1", "Genesis 1:2"},
		[][]float32{{0.1, 0.2, 0.3}, {0, 0, 0}},
		[]core.Metadata{{"verse": "Genesis 1:1", "text": "a"}, {"verse": "Genesis 1:2", "text": "b"}},
	)
	require.NoError(t, err)

	require.Len(t, client.created, 1)
	params := client.created[0].GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(3), params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())

	require.Len(t, client.upserts, 1)
	req := client.upserts[0]
	assert.Equal(t, "bible_verses", req.GetCollectionName())
	assert.True(t, req.GetWait())
	require.Len(t, req.GetPoints(), 2)
	point := req.GetPoints()[0]
	assert.Equal(t, PointID("bible_verses", "Genesis 1:1"), point.GetId().GetNum())
	assert.Equal(t, "Genesis 1:1", point.GetPayload()[PayloadIDKey].GetStringValue())
	assert.Equal(t, "a", point.GetPayload()["text"].GetStringValue())

	// Second batch reuses the collection.
	require.NoError(t, collection.Upsert(ctx,
		[]string{"Genesis 1:3"}, [][]float32{{1, 1, 1}}, []core.Metadata{{"verse": "Genesis 1:3"}}))
	assert.Len(t, client.created, 1)
}

func TestCollection_ExistingCollection(t *testing.T) {
	client := newFakeClient()
	client.exists = true
	collection := newCollection(client, "bible_verses")

	require.NoError(t, collection.Upsert(context.Background(),
		[]string{"a"}, [][]float32{{1}}, []core.Metadata{{}}))
	assert.Empty(t, client.created)
}

func TestCollection_UpsertIdempotent(t *testing.T) {
	client := newFakeClient()
	collection := newCollection(client, "bible_verses")
	ctx := context.Background()

	ids := []string{"A:1", "A:2"}
	vectors := [][]float32{{1, 0}, {0, 1}}
	metadatas := []core.Metadata{{"verse": "A:1"}, {"verse": "A:2"}}
	require.NoError(t, collection.Upsert(ctx, ids, vectors, metadatas))
	require.NoError(t, collection.Upsert(ctx, ids, vectors, metadatas))

	count, err := collection.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCollection_Get(t *testing.T) {
	client := newFakeClient()
	collection := newCollection(client, "bible_verses")
	ctx := context.Background()

	require.NoError(t, collection.Upsert(ctx,
		[]string{"John 11:35"}, [][]float32{{0.5, 0.25}},
		[]core.Metadata{{"verse": "John 11:35", "text": "Jesus wept."}}))

	entry, err := collection.Get(ctx, "John 11:35")
	require.NoError(t, err)
	assert.Equal(t, &core.Entry{
		ID:       "John 11:35",
		Vector:   []float32{0.5, 0.25},
		Metadata: core.Metadata{"verse": "John 11:35", "text": "Jesus wept."},
	}, entry)

	_, err = collection.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCollection_UpsertErrors(t *testing.T) {
	client := newFakeClient()
	collection := newCollection(client, "bible_verses")
	ctx := context.Background()

	err := collection.Upsert(ctx, []string{"a"}, nil, nil)
	assert.ErrorIs(t, err, storage.ErrLengthMismatch)

	require.NoError(t, collection.Upsert(ctx, nil, nil, nil))
	assert.Empty(t, client.upserts, "empty input is a no-op")

	client.upsertErr = errors.New("unavailable")
	err = collection.Upsert(ctx, []string{"a"}, [][]float32{{1}}, []core.Metadata{{}})
	assert.ErrorIs(t, err, client.upsertErr)
}

func TestCollection_Close(t *testing.T) {
	client := newFakeClient()
	require.NoError(t, newCollection(client, "x").Close())
	assert.True(t, client.closed)
}

func TestPointID(t *testing.T) {
	assert.Equal(t, PointID("c", "a"), PointID("c", "a"))
	assert.NotEqual(t, PointID("c", "a"), PointID("c", "b"))
	assert.NotEqual(t, PointID("c1", "a"), PointID("c2", "a"))
}
