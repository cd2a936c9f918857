// Package retriever 混合检索：向量召回 + 关键词召回，用 RRF 融合排序。
//
// RRF_score(d) = Σ 1 / (k + rank_i)，rank 从 1 开始。
// 排序规则：分数降序 → 两路都命中的优先 → 块 ID 升序，保证结果稳定。
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/embedding"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/keyword"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/vectorstore"
)

const (
	DefaultK    = 5
	DefaultRRFK = 60
)

// Result 融合后的单条结果
type Result struct {
	Chunk       document.Chunk
	Score       float64 // 归一化到 0-1
	VectorRank  int     // 0 表示未命中
	KeywordRank int
}

// HybridRetriever 每次查询构建一个
type HybridRetriever struct {
	vectors  *vectorstore.Collection
	keywords *keyword.Index
	embedder embedding.Embedder
	k        int
	rrfK     int
}

// New k/rrfK 非正时使用默认值
func New(vectors *vectorstore.Collection, keywords *keyword.Index, embedder embedding.Embedder, k, rrfK int) *HybridRetriever {
	if k <= 0 {
		k = DefaultK
	}
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &HybridRetriever{vectors: vectors, keywords: keywords, embedder: embedder, k: k, rrfK: rrfK}
}

// Retrieve 两路各取 k 条后融合，返回至多 k 条
func (r *HybridRetriever) Retrieve(ctx context.Context, query string) ([]Result, error) {
	qv, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vecHits, err := r.vectors.Search(qv, r.k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	kwHits, err := r.keywords.Search(ctx, query, r.k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	fused := Fuse(vecHits, kwHits, r.rrfK)
	if len(fused) > r.k {
		fused = fused[:r.k]
	}
	return fused, nil
}

// Close 释放关键词索引
func (r *HybridRetriever) Close() error {
	return r.keywords.Close()
}

// Fuse RRF 融合两路结果
func Fuse(vec []vectorstore.Hit, kw []keyword.Hit, k int) []Result {
	if len(vec) == 0 && len(kw) == 0 {
		return []Result{}
	}
	if k <= 0 {
		k = DefaultRRFK
	}

	scores := make(map[string]*Result, len(vec)+len(kw))
	get := func(c document.Chunk) *Result {
		if r, ok := scores[c.ID]; ok {
			return r
		}
		r := &Result{Chunk: c}
		scores[c.ID] = r
		return r
	}

	for i, h := range vec {
		r := get(h.Chunk)
		r.VectorRank = i + 1
		r.Score += 1 / float64(k+i+1)
	}
	for i, h := range kw {
		r := get(h.Chunk)
		r.KeywordRank = i + 1
		r.Score += 1 / float64(k+i+1)
	}

	out := make([]Result, 0, len(scores))
	for _, r := range scores {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		bi, bj := out[i].inBoth(), out[j].inBoth()
		if bi != bj {
			return bi
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})

	// 归一化：两路都排第一时为 1
	maxScore := 2 / float64(k+1)
	for i := range out {
		out[i].Score /= maxScore
	}
	return out
}

func (r Result) inBoth() bool {
	return r.VectorRank > 0 && r.KeywordRank > 0
}

// Contents 提取结果正文
func Contents(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.Content
	}
	return out
}
