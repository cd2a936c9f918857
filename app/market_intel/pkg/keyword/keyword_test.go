package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
)

func TestIndex_Search(t *testing.T) {
	ctx := context.Background()
	idx, err := FromChunks(ctx, []document.Chunk{
		{ID: "chunk_0", Content: "[Google] Lithium supply: prices drop as new mines open"},
		{ID: "chunk_1", Content: "[Tavily] Solar panels: installations grow in Europe"},
		{ID: "chunk_2", Content: "[News] Lithium recycling startups raise funding"},
	})
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(ctx, "lithium", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	ids := []string{hits[0].Chunk.ID, hits[1].Chunk.ID}
	assert.ElementsMatch(t, []string{"chunk_0", "chunk_2"}, ids)
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = idx.Search(ctx, "lithium", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_EmptyQueryAndIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := FromChunks(ctx, nil)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
