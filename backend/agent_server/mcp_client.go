package main

import (
	"context"
	"strconv"
	"strings"

	mcpTool "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultMCPEndpoint = "http://localhost:3333/sse"

// parseEndpoints splits a comma separated MCP_ENDPOINTS value.
func parseEndpoints(v string) []string {
	var list []string
	for _, e := range strings.Split(v, ",") {
		if e = strings.TrimSpace(e); e != "" {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		list = []string{defaultMCPEndpoint}
	}
	return list
}

// newMCPClient connects and initializes a session. It also returns the
// server name reported by the initialize result.
func newMCPClient(ctx context.Context, endpoint string) (client.MCPClient, string, error) {
	mcpClient, err := client.NewSSEMCPClient(endpoint)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to create client for %s", endpoint)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, "", errors.Wrapf(err, "failed to connect to %s", endpoint)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "mcp-tools-agent",
		Version: "1.0.0",
	}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	res, err := mcpClient.Initialize(ctx, initReq)
	if err != nil {
		_ = mcpClient.Close()
		return nil, "", errors.Wrapf(err, "failed to initialize %s", endpoint)
	}
	logger.KV(xlog.INFO, "endpoint", endpoint, "server", res.ServerInfo.Name, "version", res.ServerInfo.Version)

	return mcpClient, res.ServerInfo.Name, nil
}

// serverTools are the tools listed by one MCP server.
type serverTools struct {
	server string
	tools  []tool.BaseTool
}

// loadTools connects to every endpoint and collects their tools.
func loadTools(ctx context.Context, endpoints []string) ([]tool.BaseTool, []client.MCPClient, error) {
	var (
		lists   []serverTools
		clients []client.MCPClient
	)
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}

	for i, endpoint := range endpoints {
		cli, name, err := newMCPClient(ctx, endpoint)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		clients = append(clients, cli)

		tools, err := mcpTool.GetTools(ctx, &mcpTool.Config{Cli: cli})
		if err != nil {
			closeAll()
			return nil, nil, errors.Wrapf(err, "failed to list tools of %s", endpoint)
		}
		if name == "" {
			name = "server" + strconv.Itoa(i+1)
		}
		lists = append(lists, serverTools{server: name, tools: tools})
	}

	all, err := mergeTools(ctx, lists)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return all, clients, nil
}

// mergeTools flattens the tools of all servers. A name offered by more than
// one server is exposed as <server>_<name> for each of them; the MCP call
// still uses the original name.
func mergeTools(ctx context.Context, lists []serverTools) ([]tool.BaseTool, error) {
	names := make([][]string, len(lists))
	count := map[string]int{}
	for i, l := range lists {
		for _, t := range l.tools {
			info, err := t.Info(ctx)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			names[i] = append(names[i], info.Name)
			count[info.Name]++
		}
	}

	var all []tool.BaseTool
	seen := map[string]string{}
	for i, l := range lists {
		for j, t := range l.tools {
			name := names[i][j]
			if count[name] > 1 {
				prefixed := l.server + "_" + name
				logger.KV(xlog.NOTICE, "tool", name, "server", l.server, "exposed_as", prefixed)
				t = renameTool(t, prefixed)
				name = prefixed
			}
			if prev, dup := seen[name]; dup {
				return nil, errors.Newf("tool %q is served by both %s and %s", name, prev, l.server)
			}
			seen[name] = l.server
			all = append(all, t)
		}
	}
	return all, nil
}

// renamedTool reports a different name to the model.
type renamedTool struct {
	tool.BaseTool
	name string
}

func (t *renamedTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	info, err := t.BaseTool.Info(ctx)
	if err != nil {
		return nil, err
	}
	cp := *info
	cp.Name = t.name
	return &cp, nil
}

type renamedInvokableTool struct {
	*renamedTool
	run tool.InvokableTool
}

func (t *renamedInvokableTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	return t.run.InvokableRun(ctx, argumentsInJSON, opts...)
}

func renameTool(t tool.BaseTool, name string) tool.BaseTool {
	r := &renamedTool{BaseTool: t, name: name}
	if it, ok := t.(tool.InvokableTool); ok {
		return &renamedInvokableTool{renamedTool: r, run: it}
	}
	return r
}
