package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/market_intel/app/gateway/internal/conf"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/engine"
	miLogger "github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
)

// NewAgentEngine 初始化市场情报引擎
func NewAgentEngine(c *conf.Agent, logger log.Logger) (*engine.Engine, func(), error) {
	helper := log.NewHelper(logger)

	cfg := ToConfig(c)
	if err := cfg.Complete(); err != nil {
		helper.Errorf("Invalid agent config: %v", err)
		return nil, nil, err
	}
	cfg.ApplyEnv()

	if err := miLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("Failed to init market_intel logger: %v", err)
		_ = miLogger.InitLogger("info", "") // 降级处理
	}

	eng, err := engine.NewEngine(context.Background(), cfg)
	if err != nil {
		helper.Errorf("Failed to init engine: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("Cleaning up market_intel engine")
		if err := eng.Close(); err != nil {
			helper.Errorf("close engine: %v", err)
		}
	}
	return eng, cleanup, nil
}

// ToConfig 将 conf.Agent 转换为 config.Config，未设置的段保持零值交给默认值处理
func ToConfig(c *conf.Agent) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		return cfg
	}

	cfg.CacheDir = c.CacheDir
	cfg.StateDir = c.StateDir
	if l := c.Llm; l != nil {
		cfg.LLM = config.LLMConfig{
			Provider:        l.Provider,
			BaseURL:         l.BaseUrl,
			APIKey:          l.ApiKey,
			Model:           l.Model,
			Temperature:     l.Temperature,
			TopP:            l.TopP,
			MaxOutputTokens: int(l.MaxOutputTokens),
		}
	}
	if e := c.Embedding; e != nil {
		cfg.Embedding = config.EmbeddingConfig{
			Provider:  e.Provider,
			BaseURL:   e.BaseUrl,
			APIKey:    e.ApiKey,
			Model:     e.Model,
			CacheSize: int(e.CacheSize),
		}
	}
	if cr := c.Credentials; cr != nil {
		cfg.Credentials = config.Credentials{
			GoogleAPIKey:    cr.GoogleApiKey,
			GoogleCSEID:     cr.GoogleCseId,
			NewsAPIKey:      cr.NewsapiKey,
			AlphaVantageKey: cr.AlphaVantageKey,
			TavilyAPIKey:    cr.TavilyApiKey,
		}
	}
	if s := c.Search; s != nil {
		cfg.Search.Timeout = int(s.Timeout)
		cfg.Search.FetchFullContent = s.FetchFullContent
		if s.Searxng != nil {
			cfg.Search.SearXNG = config.SearXNGConfig{
				BaseURL: s.Searxng.BaseUrl,
				Timeout: int(s.Searxng.Timeout),
			}
		}
	}
	if sp := c.Splitter; sp != nil {
		cfg.Splitter = config.SplitterConfig{
			ChunkSize:    int(sp.ChunkSize),
			ChunkOverlap: int(sp.ChunkOverlap),
		}
	}
	if r := c.Retrieval; r != nil {
		cfg.Retrieval = config.RetrievalConfig{
			K:           int(r.K),
			RRFK:        int(r.RrfK),
			UseInPrompt: r.UseInPrompt,
		}
	}
	if st := c.State; st != nil {
		cfg.State.Backend = st.Backend
		if st.Db != nil {
			cfg.State.DB = config.DBConfig{
				Host:     st.Db.Host,
				Port:     int(st.Db.Port),
				User:     st.Db.User,
				Password: st.Db.Password,
				Name:     st.Db.Name,
			}
		}
	}
	if l := c.Log; l != nil {
		cfg.Log = config.LogConfig{Level: l.Level, File: l.File}
	}
	if cc := c.Concurrency; cc != nil {
		cfg.Concurrency = config.ConcurrencyConfig{QPS: int(cc.Qps), RPM: int(cc.Rpm)}
	}
	return cfg
}
