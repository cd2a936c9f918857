package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

const (
	// MinContentLength 摘要短于该长度才会抓取正文
	MinContentLength = 500
	// MaxContentLength 正文截断长度，避免 prompt 过长
	MaxContentLength = 5000
)

// ReadabilityEnricher 通过 go-readability 抓取网页正文补全过短的摘要
type ReadabilityEnricher struct {
	client *http.Client
}

// NewReadabilityEnricher 创建抓取器
func NewReadabilityEnricher(timeout time.Duration) *ReadabilityEnricher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ReadabilityEnricher{client: &http.Client{Timeout: timeout}}
}

var _ search.Enricher = (*ReadabilityEnricher)(nil)

// Enrich implements search.Enricher。抓取失败时原样返回结果。
func (e *ReadabilityEnricher) Enrich(ctx context.Context, r search.Result) search.Result {
	if r.URL == "" || len(r.Content) >= MinContentLength {
		return r
	}

	text, err := e.FetchAndClean(ctx, r.URL)
	if err != nil {
		logger.Log.Warnf("抓取正文失败 [%s]: %v", r.URL, err)
		return r
	}
	if len(text) > len(r.Content) {
		r.Content = text
	}
	return r
}

// FetchAndClean 下载页面并提取正文
func (e *ReadabilityEnricher) FetchAndClean(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	res, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return "", fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	article, err := readability.FromReader(res.Body, u)
	if err != nil {
		return "", err
	}
	return truncate(strings.TrimSpace(article.TextContent), MaxContentLength), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
