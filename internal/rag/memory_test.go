package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_QueryOrdersBySimilarity(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []VectorRecord{
		{ID: "acme-0", Vector: []float32{1, 0}, Metadata: Metadata{CarrierID: "acme"}},
		{ID: "acme-1", Vector: []float32{0.7, 0.7}, Metadata: Metadata{CarrierID: "acme"}},
		{ID: "sentinel-0", Vector: []float32{0, 1}, Metadata: Metadata{CarrierID: "sentinel"}},
		{ID: "other-dim", Vector: []float32{1, 0, 0}},
	}))

	got, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "acme-0", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, "acme-1", got[1].ID)
	assert.Equal(t, "acme", got[1].Metadata.CarrierID)
}

func TestMemoryStore_UpsertOverwrites(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	rec := VectorRecord{ID: "acme-0", Vector: []float32{1, 0}, Metadata: Metadata{Text: "v1"}}
	require.NoError(t, s.Upsert(ctx, []VectorRecord{rec}))
	rec.Metadata.Text = "v2"
	require.NoError(t, s.Upsert(ctx, []VectorRecord{rec}))

	assert.Equal(t, 1, s.Len())
	got, err := s.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Equal(t, "v2", got[0].Metadata.Text)
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	err := s.Upsert(context.Background(), []VectorRecord{
		{ID: "acme-0", Vector: []float32{1}},
		{Vector: []float32{1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1 of 2")
	assert.Zero(t, s.Len(), "a rejected batch must not be partially written")
}

func TestPointID_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PointID("acme-term-0"), PointID("acme-term-0"))
	assert.NotEqual(t, PointID("acme-term-0"), PointID("acme-term-1"))
	assert.Len(t, PointID("acme-term-0"), 36)
}
