package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

func TestClient_SkipsNonFinanceDomain(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	resp, err := NewClientWithEndpoint("av", srv.URL, srv.Client()).
		Search(context.Background(), &search.Request{Query: "q", Domain: "Healthcare"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.False(t, called)
}

func TestClient_SearchFinance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SYMBOL_SEARCH", r.URL.Query().Get("function"))
		assert.Equal(t, "av", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"bestMatches":[{"1. symbol":"TSCO.LON","2. name":"Tesco PLC","3. type":"Equity","4. region":"United Kingdom","8. currency":"GBX","9. matchScore":"0.72"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("av", srv.URL, srv.Client())
	resp, err := c.Search(context.Background(), &search.Request{Query: "tesco Stock market trends analysis", Domain: "Stock Market"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "[AlphaVantage] TSCO.LON (Tesco PLC, United Kingdom Equity, GBX)", resp.Results[0].Format(c.Tag()))
}

func TestClient_RateLimitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	_, err := NewClientWithEndpoint("av", srv.URL, srv.Client()).
		Search(context.Background(), &search.Request{Query: "q", Domain: "finance"})
	assert.Error(t, err)
}
