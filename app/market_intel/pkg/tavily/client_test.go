package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/search"
)

func TestClient_Search(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tv-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"query":"q","results":[
			{"title":"Cloud spend rises","url":"https://a.example","content":"Spend up 20%"},
			{"title":"SaaS churn","url":"https://b.example","content":"Churn flat"}
		]}`))
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("tv-key", srv.URL, srv.Client())
	resp, err := c.Search(context.Background(), &search.Request{Query: "cloud SaaS market trends analysis"})
	require.NoError(t, err)

	assert.Equal(t, "cloud SaaS market trends analysis", got.Query)
	assert.Equal(t, 5, got.MaxResults)
	assert.Equal(t, "basic", got.SearchDepth)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "[Tavily] Cloud spend rises: Spend up 20%", resp.Results[0].Format(c.Tag()))
}

func TestClient_SearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("bad", srv.URL, srv.Client())
	_, err := c.Search(context.Background(), &search.Request{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
