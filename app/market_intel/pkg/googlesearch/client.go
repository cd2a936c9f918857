package googlesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

const (
	defaultEndpoint   = "https://www.googleapis.com/customsearch/v1"
	defaultMaxResults = 5
)

// Client Google Programmable Search (Custom Search JSON API) 客户端
type Client struct {
	apiKey   string
	cseID    string
	endpoint string
	client   *http.Client
}

// NewClient 创建客户端，cseID 为搜索引擎 ID (cx)
func NewClient(apiKey, cseID string, timeout time.Duration) *Client {
	return NewClientWithEndpoint(apiKey, cseID, defaultEndpoint, &http.Client{Timeout: timeout})
}

// NewClientWithEndpoint 指定接口地址和 http.Client
func NewClientWithEndpoint(apiKey, cseID, endpoint string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{apiKey: apiKey, cseID: cseID, endpoint: endpoint, client: client}
}

// Ensure Client implements search.Provider
var _ search.Provider = (*Client)(nil)

func (c *Client) Name() string    { return "google" }
func (c *Client) Tag() string     { return "Google" }
func (c *Client) MaxResults() int { return defaultMaxResults }

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search implements search.Provider
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	if c.cseID == "" {
		return nil, fmt.Errorf("google search: cse id is missing")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", c.cseID)
	q.Set("q", req.Query)
	q.Set("num", strconv.Itoa(defaultMaxResults))
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

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("google search error (status %d): %s", res.StatusCode, string(body))
		}
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("google search error (code %d): %s", payload.Error.Code, payload.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search error (status %d)", res.StatusCode)
	}

	results := make([]search.Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, search.Result{
			Title:   item.Title,
			URL:     item.Link,
			Content: item.Snippet,
		})
	}
	return &search.Response{Results: results}, nil
}
