package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/keyword"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/vectorstore"
)

func chunk(id string) document.Chunk { return document.Chunk{ID: id, Content: id} }

func TestFuse_Empty(t *testing.T) {
	got := Fuse(nil, nil, 60)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFuse_BothListsRankFirst(t *testing.T) {
	vec := []vectorstore.Hit{{Chunk: chunk("a")}, {Chunk: chunk("b")}}
	kw := []keyword.Hit{{Chunk: chunk("b")}, {Chunk: chunk("c")}}

	got := Fuse(vec, kw, 60)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Chunk.ID)
	assert.Equal(t, 2, got[0].VectorRank)
	assert.Equal(t, 1, got[0].KeywordRank)
	assert.Equal(t, "a", got[1].Chunk.ID)
	assert.Equal(t, "c", got[2].Chunk.ID)
}

func TestFuse_TieBrokenByID(t *testing.T) {
	vec := []vectorstore.Hit{{Chunk: chunk("z")}}
	kw := []keyword.Hit{{Chunk: chunk("m")}}

	got := Fuse(vec, kw, 60)
	require.Len(t, got, 2)
	assert.Equal(t, "m", got[0].Chunk.ID)
	assert.Equal(t, "z", got[1].Chunk.ID)
}

func TestFuse_Normalized(t *testing.T) {
	got := Fuse([]vectorstore.Hit{{Chunk: chunk("a")}}, []keyword.Hit{{Chunk: chunk("a")}}, 60)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-12)
}

// axisEmbedder 根据关键词返回坐标轴向量
type axisEmbedder struct{}

func (axisEmbedder) vec(text string) []float32 {
	switch text {
	case "lithium prices", "lithium":
		return []float32{1, 0}
	default:
		return []float32{0, 1}
	}
}

func (a axisEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = a.vec(t)
	}
	return out, nil
}

func (a axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return a.vec(text), nil
}

func (axisEmbedder) ModelName() string { return "axis" }

func TestHybridRetriever_Retrieve(t *testing.T) {
	ctx := context.Background()
	chunks := []document.Chunk{
		{ID: "chunk_0", Content: "lithium prices"},
		{ID: "chunk_1", Content: "solar panels"},
	}

	vectors, err := vectorstore.FromChunks(ctx, "c", chunks, axisEmbedder{})
	require.NoError(t, err)
	kw, err := keyword.FromChunks(ctx, chunks)
	require.NoError(t, err)

	r := New(vectors, kw, axisEmbedder{}, 1, 0)
	defer r.Close()

	got, err := r.Retrieve(ctx, "lithium")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "chunk_0", got[0].Chunk.ID)
	assert.Equal(t, []string{"lithium prices"}, Contents(got))
}
