package handlers

import (
	"net/http"
	"testing"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlesBody = `{"status":"ok","totalResults":2,"articles":[
	{"source":{"id":null,"name":"Example Times"},"author":"A","title":"Go 1.24 released",
	 "description":"Generic type aliases","url":"https://example.com/go?a=1&b=2",
	 "urlToImage":null,"publishedAt":"2025-02-11T10:00:00Z","content":"..."},
	{"source":{"name":"Daily"},"title":"No description","description":null,
	 "url":"https://daily.example/2","publishedAt":"2025-02-12T10:00:00Z"}
]}`

const articlesJSON = `[
	{"title":"Go 1.24 released","description":"Generic type aliases","url":"https://example.com/go?a=1&b=2",
	 "publishedAt":"2025-02-11T10:00:00Z","source":"Example Times"},
	{"title":"No description","description":null,"url":"https://daily.example/2",
	 "publishedAt":"2025-02-12T10:00:00Z","source":"Daily"}
]`

func TestNewsRequiresAPIKey(t *testing.T) {
	_, err := News(config.Upstream{BaseURL: config.DefaultNewsBaseURL})
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestSearchNews(t *testing.T) {
	up := newJSONUpstream(t, articlesBody)
	r := registry(t)(News(up.config("key"), up.options()...))

	text, events, err := invoke(t, r, "search-news", map[string]any{"query": "golang", "category": "technology"})
	require.NoError(t, err)
	assert.JSONEq(t, articlesJSON, text)
	assert.Contains(t, text, "a=1&b=2")
	assert.Len(t, events, 3)

	assert.Equal(t, "/everything", up.path())
	q := up.query()
	assert.Equal(t, "golang", q.Get("q"))
	assert.Equal(t, "technology", q.Get("category"))
	assert.Equal(t, "ko", q.Get("language"))
	assert.Equal(t, "10", q.Get("pageSize"))
	assert.Equal(t, "key", q.Get("apiKey"))
}

func TestGetHeadlines(t *testing.T) {
	up := newJSONUpstream(t, articlesBody)
	r := registry(t)(News(up.config("key"), up.options()...))

	text, _, err := invoke(t, r, "get-headlines", map[string]any{"pageSize": 5})
	require.NoError(t, err)
	assert.JSONEq(t, articlesJSON, text)

	assert.Equal(t, "/top-headlines", up.path())
	q := up.query()
	assert.Equal(t, "kr", q.Get("country"))
	assert.Equal(t, "5", q.Get("pageSize"))
	assert.False(t, q.Has("category"))
}

func TestNewsFailures(t *testing.T) {
	up := newUpstream(t, http.StatusUnauthorized, "application/json", `{"status":"error","code":"apiKeyInvalid"}`)
	r := registry(t)(News(up.config("bad"), up.options()...))

	_, _, err := invoke(t, r, "get-headlines", nil)
	require.Error(t, err)
	assert.EqualError(t, err, "Failed to fetch headlines")
	assert.NotContains(t, err.Error(), "apiKeyInvalid")
	assert.True(t, errors.Is(err, tools.ErrUpstreamTransport))

	_, _, err = invoke(t, r, "get-headlines", map[string]any{"category": "politics"})
	assert.True(t, errors.Is(err, tools.ErrValidation))
	assert.EqualValues(t, 1, up.hits.Load())

	_, err = NormalizeArticles(nil, []byte(`{"status":"ok"}`))
	assert.True(t, errors.Is(err, tools.ErrUpstreamShape))
}
