package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
)

// countingEmbedder 记录调用次数，向量第一维为文本长度
type countingEmbedder struct {
	docCalls   int
	queryCalls int
	lastBatch  []string
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	c.docCalls++
	c.lastBatch = texts
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	c.queryCalls++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestMockEmbedder(t *testing.T) {
	m := NewMockEmbedder()
	vecs, err := m.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], MockDimension)
	assert.Equal(t, float32(0.1), vecs[1][767])

	q, err := m.EmbedQuery(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, q, MockDimension)
}

func TestCachedEmbedder_Query(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	for i := 0; i < 3; i++ {
		v, err := c.EmbedQuery(context.Background(), "same text")
		require.NoError(t, err)
		assert.Equal(t, []float32{9, 1}, v)
	}
	assert.Equal(t, 1, inner.queryCalls)
}

func TestCachedEmbedder_DocumentsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := c.EmbedDocuments(ctx, []string{"aa", "bbb"})
	require.NoError(t, err)

	vecs, err := c.EmbedDocuments(ctx, []string{"bbb", "c", "aa"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 1}, {1, 1}, {2, 1}}, vecs)
	assert.Equal(t, 2, inner.docCalls)
	assert.Equal(t, []string{"c"}, inner.lastBatch)

	_, err = c.EmbedDocuments(ctx, []string{"aa", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.docCalls)
}

// shortEmbedder 总是少返回一个向量
type shortEmbedder struct{ countingEmbedder }

func (s *shortEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := s.countingEmbedder.EmbedDocuments(ctx, texts)
	if err != nil || len(vecs) == 0 {
		return vecs, err
	}
	return vecs[:len(vecs)-1], nil
}

func TestCachedEmbedder_ShortBatch(t *testing.T) {
	c := NewCachedEmbedder(&shortEmbedder{}, 10)

	var (
		vecs [][]float32
		err  error
	)
	require.NotPanics(t, func() {
		vecs, err = c.EmbedDocuments(context.Background(), []string{"aa", "bbb"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1, want 2")
	assert.Nil(t, vecs)

	// 失败的批次不应写入缓存
	inner := c.Inner().(*shortEmbedder)
	_, _ = c.EmbedDocuments(context.Background(), []string{"aa"})
	assert.Equal(t, 2, inner.docCalls)
}

func TestResolveProvider(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, ProviderMock, ResolveProvider(cfg))
	cfg.LLM.APIKey = "sk"
	assert.Equal(t, ProviderOpenAI, ResolveProvider(cfg))
	cfg.Credentials.GoogleAPIKey = "g"
	assert.Equal(t, ProviderGemini, ResolveProvider(cfg))
}

func TestNewEmbedder_MockIsCached(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.Default())
	require.NoError(t, err)
	cached, ok := e.(*CachedEmbedder)
	require.True(t, ok)
	assert.IsType(t, &MockEmbedder{}, cached.Inner())
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embed", req.Model)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{0.5, 0.25}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "sk-test", "test-embed")
	require.NoError(t, err)

	vecs, err := e.EmbedDocuments(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.5, 0.25}, vecs[1])
	assert.Equal(t, "test-embed", e.ModelName())
}
