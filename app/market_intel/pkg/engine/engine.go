package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/document"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/embedding"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/extract"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/keyword"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/llm"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
	dm "github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/retriever"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search/factory"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/state"
)

// StateIDPrefix state id 前缀，后接 YYYYMMDDHHMMSS
const StateIDPrefix = "query_"

// VectorsDir 向量集合在 cache 目录下的子目录
const VectorsDir = "vectors"

// Engine 市场情报核心处理引擎
type Engine struct {
	cfg       *config.Config
	chatModel model.BaseChatModel
	embedder  embedding.Embedder
	searcher  *search.Aggregator
	store     *state.Store
	splitter  *document.Splitter
	limiter   *rate.Limiter
	now       func() time.Time

	mu             sync.RWMutex
	currentStateID string
}

// Option 覆盖默认组件，主要用于测试
type Option func(*Engine)

func WithChatModel(cm model.BaseChatModel) Option {
	return func(e *Engine) { e.chatModel = cm }
}

func WithEmbedder(emb embedding.Embedder) Option {
	return func(e *Engine) { e.embedder = emb }
}

// WithProviders 使用给定的搜索源，不做正文抓取
func WithProviders(providers ...search.Provider) Option {
	return func(e *Engine) { e.searcher = search.NewAggregator(providers, nil) }
}

func WithStore(store *state.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithClock 替换时钟，state id 与 timestamp 均来自该时钟
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine 创建引擎实例，未通过 Option 指定的组件按配置创建
func NewEngine(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	for _, dir := range []string{cfg.CacheDir, cfg.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	e := &Engine{
		cfg:      cfg,
		splitter: document.NewSplitter(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap),
		limiter:  newLimiter(cfg.Concurrency),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.chatModel == nil {
		if e.chatModel, err = llm.NewChatModel(ctx, cfg); err != nil {
			return nil, err
		}
	}
	if e.embedder == nil {
		if e.embedder, err = embedding.NewEmbedder(ctx, cfg); err != nil {
			return nil, err
		}
	}
	if e.searcher == nil {
		e.searcher = factory.NewAggregator(cfg)
	}
	if e.store == nil {
		persist, err := state.NewPersistence(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("状态存储初始化失败: %w", err)
		}
		e.store = state.NewStore(persist)
	}

	logger.Log.Info("Market Intelligence Agent initialized successfully")
	return e, nil
}

// newLimiter RPM 为 0 时不限流
func newLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	burst := c.QPS
	if burst <= 0 {
		burst = 1
	}
	if c.RPM <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), burst)
}

// Close 释放状态存储
func (e *Engine) Close() error {
	return e.store.Close()
}

// CurrentStateID 最近一次 ProcessQuery 生成的 state id
func (e *Engine) CurrentStateID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentStateID
}

// Store 状态存储
func (e *Engine) Store() *state.Store {
	return e.store
}

// State 读取已保存的查询状态，不存在时返回 state.ErrNotFound
func (e *Engine) State(ctx context.Context, stateID string) (*dm.QueryState, error) {
	return e.store.Get(ctx, stateID)
}

// ProcessQuery 搜索、建立检索索引、调用模型分析并保存状态。
// 任何失败都以带 state_id 的错误结构返回，不会返回 Go error。
func (e *Engine) ProcessQuery(ctx context.Context, query, domain string) *dm.QueryResponse {
	logger.Log.Infof("Processing query: %s for domain: %s", query, domain)

	now := e.now()
	stateID := StateIDPrefix + now.Format("20060102150405")
	e.mu.Lock()
	e.currentStateID = stateID
	e.mu.Unlock()

	analysis, results, err := e.analyze(ctx, stateID, query, domain)
	if err != nil {
		logger.Log.Errorf("Error processing query: %v", err)
		return &dm.QueryResponse{StateID: stateID, Error: fmt.Sprintf("Failed to process query: %v", err)}
	}

	st := &dm.QueryState{
		ID:             stateID,
		Query:          query,
		MarketDomain:   domain,
		SearchResults:  results,
		AnalysisResult: analysis,
		Timestamp:      now.Format(time.RFC3339),
	}
	if err := e.store.Put(ctx, st); err != nil {
		logger.Log.Errorf("Error processing query: %v", err)
		return &dm.QueryResponse{StateID: stateID, Error: fmt.Sprintf("Failed to process query: %v", err)}
	}

	logger.Log.Infof("Query processed successfully, state_id: %s", stateID)
	return &dm.QueryResponse{StateID: stateID, Analysis: analysis}
}

func (e *Engine) analyze(ctx context.Context, stateID, query, domain string) (*dm.Analysis, []string, error) {
	results := e.searcher.Collect(ctx, query, domain)

	hybrid, err := e.buildRetriever(ctx, stateID, results)
	if err != nil {
		return nil, nil, err
	}
	defer hybrid.Close()

	promptResults := results
	if e.cfg.Retrieval.UseInPrompt {
		retrieved, err := hybrid.Retrieve(ctx, search.CombinedQuery(query, domain))
		if err != nil {
			return nil, nil, fmt.Errorf("retrieve: %w", err)
		}
		promptResults = retriever.Contents(retrieved)
		logger.Log.Infof("Retrieved %d chunks for analysis prompt", len(promptResults))
	} else {
		logger.Log.Warn("混合检索已构建但未用于分析 prompt (retrieval.use_in_prompt=false)")
	}

	messages, err := llm.MarketTrendsMessages(ctx, query, domain, promptResults)
	if err != nil {
		return nil, nil, fmt.Errorf("render prompt: %w", err)
	}
	content, err := e.generate(ctx, messages)
	if err != nil {
		return nil, nil, err
	}

	analysis, perr := extract.Parse[dm.MarketReport](content)
	if perr != nil {
		logger.Log.Warnf("分析结果解析失败: %v", perr)
	}
	return analysis, results, nil
}

// buildRetriever 切分搜索结果，写入持久化向量集合与关键词索引
func (e *Engine) buildRetriever(ctx context.Context, stateID string, results []string) (*retriever.HybridRetriever, error) {
	chunks, err := e.splitter.Split(results)
	if err != nil {
		return nil, err
	}

	vectors, err := vectorstoreFromChunks(ctx, stateID, chunks, e.embedder)
	if err != nil {
		return nil, err
	}
	if err := vectors.Save(filepath.Join(e.cfg.CacheDir, VectorsDir)); err != nil {
		return nil, fmt.Errorf("save vector collection: %w", err)
	}

	keywords, err := keyword.FromChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	return retriever.New(vectors, keywords, e.embedder, e.cfg.Retrieval.K, e.cfg.Retrieval.RRFK), nil
}

// AnswerQuestion 基于已保存的分析结果回答追问
func (e *Engine) AnswerQuestion(ctx context.Context, question, stateID string) *dm.AnswerResponse {
	logger.Log.Infof("Answering specific question: %s using state: %s", question, stateID)

	result, err := e.answer(ctx, question, stateID)
	if err != nil {
		logger.Log.Errorf("Error answering question: %v", err)
		return &dm.AnswerResponse{Error: fmt.Sprintf("Failed to answer question: %v", err)}
	}

	logger.Log.Info("Question answered successfully")
	return &dm.AnswerResponse{Result: result}
}

func (e *Engine) answer(ctx context.Context, question, stateID string) (*dm.AnswerResult, error) {
	st, err := e.store.Get(ctx, stateID)
	if err != nil {
		return nil, err
	}

	analysisContext, err := json.MarshalIndent(st.AnalysisResult, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}

	messages, err := llm.SpecificQuestionMessages(ctx, question, string(analysisContext))
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	content, err := e.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	result, perr := extract.Parse[dm.Answer](content)
	if perr != nil {
		logger.Log.Warnf("回答解析失败: %v", perr)
	}
	return result, nil
}
