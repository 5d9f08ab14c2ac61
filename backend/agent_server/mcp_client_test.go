package main

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer serves the named tools over SSE; every tool answers with
// "<server>:<tool>".
func sseServer(t *testing.T, name string, toolNames ...string) string {
	t.Helper()
	s := server.NewMCPServer(name, "1.0.0", server.WithToolCapabilities(true))
	for _, tn := range toolNames {
		reply := name + ":" + tn
		s.AddTool(mcp.NewTool(tn, mcp.WithString("query")), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(reply), nil
		})
	}
	ts := server.NewTestServer(s)
	t.Cleanup(ts.Close)
	return ts.URL + "/sse"
}

func toolNames(t *testing.T, list []tool.BaseTool) []string {
	t.Helper()
	var names []string
	for _, tl := range list {
		info, err := tl.Info(context.Background())
		require.NoError(t, err)
		names = append(names, info.Name)
	}
	return names
}

func TestLoadToolsPrefixesCollidingNames(t *testing.T) {
	ctx := context.Background()
	news := sseServer(t, "news-mcp-server", "search-news", "get-headlines")
	geek := sseServer(t, "geeknews", "get-latest-news", "search-news")

	all, clients, err := loadTools(ctx, []string{news, geek})
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, c := range clients {
			_ = c.Close()
		}
	})
	require.Len(t, clients, 2)

	assert.ElementsMatch(t, []string{
		"news-mcp-server_search-news",
		"get-headlines",
		"get-latest-news",
		"geeknews_search-news",
	}, toolNames(t, all))

	for _, tl := range all {
		info, err := tl.Info(ctx)
		require.NoError(t, err)
		if info.Name != "geeknews_search-news" {
			continue
		}
		it, ok := tl.(tool.InvokableTool)
		require.True(t, ok)
		out, err := it.InvokableRun(ctx, `{"query":"go"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "geeknews:search-news")
	}
}

type namedTool struct {
	name string
}

func (n namedTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: n.name, Desc: "d"}, nil
}

func TestMergeTools(t *testing.T) {
	ctx := context.Background()

	shared := namedTool{"search-news"}
	all, err := mergeTools(ctx, []serverTools{
		{server: "a", tools: []tool.BaseTool{shared, namedTool{"only-a"}}},
		{server: "b", tools: []tool.BaseTool{namedTool{"search-news"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_search-news", "only-a", "b_search-news"}, toolNames(t, all))

	// the wrapped tool keeps its original info
	info, err := shared.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "search-news", info.Name)
	_, invokable := all[0].(tool.InvokableTool)
	assert.False(t, invokable)

	_, err = mergeTools(ctx, []serverTools{
		{server: "a", tools: []tool.BaseTool{namedTool{"x"}}},
		{server: "a", tools: []tool.BaseTool{namedTool{"x"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `tool "a_x" is served by both a and a`)
}
