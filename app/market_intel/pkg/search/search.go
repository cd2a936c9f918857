package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
)

// QuerySuffix 拼接在查询和领域之后的固定后缀
const QuerySuffix = "market trends analysis"

// Provider 定义通用的搜索接口
type Provider interface {
	// Name 配置中使用的名称，例如 "tavily"
	Name() string
	// Tag 结果前缀标签，例如 "Tavily"
	Tag() string
	// MaxResults 单次搜索最多返回的条数
	MaxResults() int
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request 通用搜索请求
type Request struct {
	Query  string // 拼接后的完整查询
	Domain string // 原始的市场领域标签
}

// Response 通用搜索响应
type Response struct {
	Results []Result
}

// Result 单条搜索结果。Title 为空时表示整段文本（例如新闻摘要）。
type Result struct {
	Title   string
	URL     string
	Content string
}

// Format 渲染为带标签的可读字符串
func (r Result) Format(tag string) string {
	if r.Title == "" {
		return fmt.Sprintf("[%s] %s", tag, r.Content)
	}
	return fmt.Sprintf("[%s] %s: %s", tag, r.Title, r.Content)
}

// Enricher 对摘要过短的结果抓取正文
type Enricher interface {
	Enrich(ctx context.Context, r Result) Result
}

// CombinedQuery 构造发往各搜索源的查询
func CombinedQuery(query, domain string) string {
	return fmt.Sprintf("%s %s %s", query, domain, QuerySuffix)
}

// Aggregator 依次调用所有已配置的搜索源
type Aggregator struct {
	providers []Provider
	enricher  Enricher
}

// NewAggregator 创建聚合器，providers 的顺序即结果的顺序
func NewAggregator(providers []Provider, enricher Enricher) *Aggregator {
	return &Aggregator{providers: providers, enricher: enricher}
}

// Providers 返回已配置的搜索源
func (a *Aggregator) Providers() []Provider {
	return a.providers
}

// Collect 串行执行搜索并拼接结果。
// 单个搜索源失败只记录日志并跳过，因此 Collect 本身不会失败；没有可用结果时返回空切片。
func (a *Aggregator) Collect(ctx context.Context, query, domain string) []string {
	req := &Request{Query: CombinedQuery(query, domain), Domain: domain}
	results := make([]string, 0)

	for _, p := range a.providers {
		resp, err := a.searchOne(ctx, p, req)
		if err != nil {
			logger.Log.Errorf("Error with %s search: %v", p.Name(), err)
			continue
		}

		items := resp.Results
		if limit := p.MaxResults(); limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		for _, item := range items {
			if a.enricher != nil {
				item = a.enricher.Enrich(ctx, item)
			}
			results = append(results, item.Format(p.Tag()))
		}
	}

	logger.Log.Infof("Collected %d search results", len(results))
	return results
}

// searchOne 调用单个搜索源，把 panic 也转成错误，避免一个源拖垮整次查询
func (a *Aggregator) searchOne(ctx context.Context, p Provider, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	resp, err = p.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &Response{}, nil
	}
	return resp, nil
}

// MentionsAny 判断领域标签是否包含任一关键词（不区分大小写）
func MentionsAny(domain string, keywords ...string) bool {
	d := strings.ToLower(domain)
	for _, k := range keywords {
		if strings.Contains(d, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
