// Package vectorstore 每次查询一个持久化的 HNSW 向量集合。
//
// 集合保存在 <dir>/<name>/ 下：graph.hnsw 为 coder/hnsw 导出的图，
// chunks.json 为文本块与维度信息。集合为空时不写图文件。
package vectorstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/embedding"
)

const (
	graphFile  = "graph.hnsw"
	chunksFile = "chunks.json"

	// CollectionPrefix 集合名前缀，后接 state id
	CollectionPrefix = "collection_"
)

// ErrDimensionMismatch 向量维度与集合不一致
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CollectionName 返回某次查询对应的集合名
func CollectionName(stateID string) string {
	return CollectionPrefix + stateID
}

// Hit 检索命中
type Hit struct {
	Chunk document.Chunk
	Score float64 // 余弦相似度，越大越相似
}

// Collection 向量集合
type Collection struct {
	mu     sync.RWMutex
	name   string
	graph  *hnsw.Graph[uint64]
	chunks []document.Chunk
	dims   int
}

type collectionMeta struct {
	Name       string           `json:"name"`
	Dimensions int              `json:"dimensions"`
	Chunks     []document.Chunk `json:"chunks"`
}

// NewCollection 创建空集合
func NewCollection(name string) *Collection {
	return &Collection{name: name, graph: newGraph()}
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return g
}

// FromChunks 对文本块做向量化并写入新集合
func FromChunks(ctx context.Context, name string, chunks []document.Chunk, embedder embedding.Embedder) (*Collection, error) {
	c := NewCollection(name)
	if len(chunks) == 0 {
		return c, nil
	}

	vectors, err := embedder.EmbedDocuments(ctx, document.Contents(chunks))
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if err := c.Add(chunks, vectors); err != nil {
		return nil, err
	}
	return c, nil
}

// Name 集合名
func (c *Collection) Name() string { return c.name }

// Len 文本块数量
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}

// Add 写入文本块及对应向量
func (c *Collection) Add(chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, v := range vectors {
		if c.dims == 0 {
			c.dims = len(v)
		}
		if len(v) != c.dims {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dims, len(v))
		}

		key := uint64(len(c.chunks))
		c.graph.Add(hnsw.MakeNode(key, normalize(v)))
		c.chunks = append(c.chunks, chunks[i])
	}
	return nil
}

// Search 返回与 query 最相近的至多 k 个文本块
func (c *Collection) Search(query []float32, k int) ([]Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.graph.Len() == 0 || k <= 0 {
		return []Hit{}, nil
	}
	if len(query) != c.dims {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dims, len(query))
	}

	q := normalize(query)
	nodes := c.graph.Search(q, k)

	hits := make([]Hit, 0, len(nodes))
	for _, n := range nodes {
		if int(n.Key) >= len(c.chunks) {
			continue
		}
		hits = append(hits, Hit{
			Chunk: c.chunks[n.Key],
			Score: 1 - float64(c.graph.Distance(q, n.Value)),
		})
	}
	return hits, nil
}

// Save 持久化到 <dir>/<name>/，使用临时文件 + rename
func (c *Collection) Save(dir string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := filepath.Join(dir, c.name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if c.graph.Len() > 0 {
		if err := writeAtomic(filepath.Join(path, graphFile), func(f *os.File) error {
			return c.graph.Export(f)
		}); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
	}

	meta := collectionMeta{Name: c.name, Dimensions: c.dims, Chunks: c.chunks}
	if meta.Chunks == nil {
		meta.Chunks = []document.Chunk{}
	}
	return writeAtomic(filepath.Join(path, chunksFile), func(f *os.File) error {
		return json.NewEncoder(f).Encode(meta)
	})
}

// Open 读取已保存的集合
func Open(dir, name string) (*Collection, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(filepath.Join(path, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	var meta collectionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}

	c := &Collection{name: name, graph: newGraph(), chunks: meta.Chunks, dims: meta.Dimensions}
	if len(meta.Chunks) == 0 {
		return c, nil
	}

	f, err := os.Open(filepath.Join(path, graphFile))
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()

	// Import 需要 io.ByteReader
	if err := c.graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("failed to import graph: %w", err)
	}
	return c, nil
}

func writeAtomic(path string, write func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
