package factory

import (
	"time"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/alphavantage"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/fetch"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/googlesearch"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/newsapi"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/searxng"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/tavily"
)

// NewProviders 根据已配置的凭证创建搜索源。
// 顺序固定为 google, tavily, news, alpha_vantage, searxng；没有凭证的搜索源直接跳过。
func NewProviders(cfg *config.Config) []search.Provider {
	timeout := time.Duration(cfg.Search.Timeout) * time.Second
	creds := cfg.Credentials

	providers := make([]search.Provider, 0, 5)
	if creds.GoogleAPIKey != "" && creds.GoogleCSEID != "" {
		providers = append(providers, googlesearch.NewClient(creds.GoogleAPIKey, creds.GoogleCSEID, timeout))
	}
	if creds.TavilyAPIKey != "" {
		providers = append(providers, tavily.NewClient(creds.TavilyAPIKey, timeout))
	}
	if creds.NewsAPIKey != "" {
		providers = append(providers, newsapi.NewClient(creds.NewsAPIKey, timeout))
	}
	if creds.AlphaVantageKey != "" {
		providers = append(providers, alphavantage.NewClient(creds.AlphaVantageKey, timeout))
	}
	if cfg.Search.SearXNG.BaseURL != "" {
		providers = append(providers, searxng.NewClient(cfg.Search.SearXNG.BaseURL, cfg.Search.SearXNG.Timeout))
	}

	if len(providers) == 0 {
		logger.Log.Warn("未配置任何搜索源，搜索结果将为空")
	}
	return providers
}

// NewAggregator 创建搜索聚合器，开启 fetch_full_content 时附带正文抓取
func NewAggregator(cfg *config.Config) *search.Aggregator {
	var enricher search.Enricher
	if cfg.Search.FetchFullContent {
		enricher = fetch.NewReadabilityEnricher(time.Duration(cfg.Search.Timeout) * time.Second)
	}
	return search.NewAggregator(NewProviders(cfg), enricher)
}
