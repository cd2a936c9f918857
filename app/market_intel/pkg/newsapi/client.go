package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

const (
	defaultEndpoint = "https://newsapi.org/v2/everything"
	defaultPageSize = 5
)

// Client News API 客户端。
// 所有文章会被合并为一条摘要文本，因此每次搜索最多返回一条结果。
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient 创建一个新的 News API 客户端
func NewClient(apiKey string, timeout time.Duration) *Client {
	return NewClientWithEndpoint(apiKey, defaultEndpoint, &http.Client{Timeout: timeout})
}

// NewClientWithEndpoint 指定接口地址和 http.Client
func NewClientWithEndpoint(apiKey, endpoint string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{apiKey: apiKey, endpoint: endpoint, client: client}
}

// Ensure Client implements search.Provider
var _ search.Provider = (*Client)(nil)

func (c *Client) Name() string    { return "news" }
func (c *Client) Tag() string     { return "News" }
func (c *Client) MaxResults() int { return 1 }

// Article News API 文章
type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// Search implements search.Provider
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	articles, err := c.everything(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	return &search.Response{Results: []search.Result{{Content: Summarize(articles)}}}, nil
}

func (c *Client) everything(ctx context.Context, query string) ([]Article, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("pageSize", strconv.Itoa(defaultPageSize))
	q.Set("language", "en")
	q.Set("sortBy", "relevancy")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	var payload everythingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("newsapi error (status %d): %s", res.StatusCode, string(body))
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error (%s): %s", payload.Code, payload.Message)
	}
	return payload.Articles, nil
}

// Summarize 把文章列表拼成一段文本
func Summarize(articles []Article) string {
	if len(articles) == 0 {
		return "No news articles found."
	}
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		line := a.Title
		if a.Description != "" {
			line += ": " + a.Description
		}
		if a.Source.Name != "" {
			line += " (" + a.Source.Name + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
