// Package handlers holds the tools of each domain server: their parameter
// schemas, their single upstream request and the normalizers that reduce
// the upstream JSON to the fields each tool promises.
package handlers

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
)

var newsCategories = []string{
	"business",
	"entertainment",
	"general",
	"health",
	"science",
	"sports",
	"technology",
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to decode upstream response"), tools.ErrUpstreamShape)
	}
	return nil
}

// getJSON returns a Caller issuing one GET of path with the query built from args.
func getJSON(u *client.Upstream, path string, query func(tools.Args) url.Values) tools.Caller {
	return func(ctx context.Context, args tools.Args) ([]byte, error) {
		return u.Get(ctx, path, query(args))
	}
}

func strPtr(s string) *string {
	return &s
}
