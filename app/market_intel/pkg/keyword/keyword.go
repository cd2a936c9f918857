// Package keyword 基于 bleve 的关键词检索，对应向量检索的另一路召回
package keyword

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
)

// Hit 检索命中
type Hit struct {
	Chunk document.Chunk
	Score float64
}

type bleveDoc struct {
	Content string `json:"content"`
}

// Index 内存中的 bleve 索引，随查询创建
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	chunks map[string]document.Chunk
}

// New 创建内存索引
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: idx, chunks: make(map[string]document.Chunk)}, nil
}

// FromChunks 创建索引并写入文本块
func FromChunks(ctx context.Context, chunks []document.Chunk) (*Index, error) {
	idx, err := New()
	if err != nil {
		return nil, err
	}
	if err := idx.Add(ctx, chunks); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// Add 批量写入
func (i *Index) Add(_ context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, bleveDoc{Content: c.Content}); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
		i.chunks[c.ID] = c
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search 按相关度返回至多 k 个文本块
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" || k <= 0 {
		return []Hit{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = k

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		c, ok := i.chunks[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Score: h.Score})
	}
	return hits, nil
}

// Close 释放索引
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}
