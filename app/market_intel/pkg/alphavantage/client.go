package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

const defaultEndpoint = "https://www.alphavantage.co/query"

// 只有领域标签包含这些词时才查询 Alpha Vantage
var financeKeywords = []string{"finance", "stock"}

// Client Alpha Vantage 客户端，使用 SYMBOL_SEARCH 查找相关证券
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient 创建一个新的 Alpha Vantage 客户端
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

func (c *Client) Name() string    { return "alpha_vantage" }
func (c *Client) Tag() string     { return "AlphaVantage" }
func (c *Client) MaxResults() int { return 1 }

// Match SYMBOL_SEARCH 返回的单条匹配
type Match struct {
	Symbol     string `json:"1. symbol"`
	Name       string `json:"2. name"`
	Type       string `json:"3. type"`
	Region     string `json:"4. region"`
	Currency   string `json:"8. currency"`
	MatchScore string `json:"9. matchScore"`
}

type symbolSearchResponse struct {
	BestMatches  []Match `json:"bestMatches"`
	Note         string  `json:"Note"`
	Information  string  `json:"Information"`
	ErrorMessage string  `json:"Error Message"`
}

// Search implements search.Provider。非金融领域直接返回空结果。
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	if !search.MentionsAny(req.Domain, financeKeywords...) {
		return &search.Response{}, nil
	}

	matches, err := c.symbolSearch(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	return &search.Response{Results: []search.Result{{Content: Summarize(matches)}}}, nil
}

func (c *Client) symbolSearch(ctx context.Context, keywords string) ([]Match, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("function", "SYMBOL_SEARCH")
	q.Set("keywords", keywords)
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage error (status %d): %s", res.StatusCode, string(body))
	}

	var payload symbolSearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	// Alpha Vantage 限流和参数错误都以 200 返回
	for _, msg := range []string{payload.ErrorMessage, payload.Note, payload.Information} {
		if msg != "" {
			return nil, fmt.Errorf("alpha vantage: %s", msg)
		}
	}
	return payload.BestMatches, nil
}

// Summarize 把匹配结果拼成一段文本
func Summarize(matches []Match) string {
	if len(matches) == 0 {
		return "No matching securities found."
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s (%s, %s %s, %s)", m.Symbol, m.Name, m.Region, m.Type, m.Currency))
	}
	return strings.Join(parts, "; ")
}
