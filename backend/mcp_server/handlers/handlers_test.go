package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/stretchr/testify/require"
)

// upstream is a mocked upstream API counting its hits.
type upstream struct {
	*httptest.Server
	hits     atomic.Int32
	lastPath atomic.Value
	lastQry  atomic.Value
}

func newUpstream(t *testing.T, status int, contentType, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastPath.Store(r.URL.Path)
		u.lastQry.Store(r.URL.Query())
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func newJSONUpstream(t *testing.T, body string) *upstream {
	return newUpstream(t, http.StatusOK, "application/json", body)
}

func (u *upstream) config(key string) config.Upstream {
	return config.Upstream{BaseURL: u.URL, APIKey: key}
}

func (u *upstream) path() string {
	p, _ := u.lastPath.Load().(string)
	return p
}

func (u *upstream) query() url.Values {
	q, _ := u.lastQry.Load().(url.Values)
	return q
}

func (u *upstream) options() []client.Option {
	return []client.Option{client.WithHTTPClient(u.Client())}
}

// registry is used as registry(t)(Books(cfg)).
func registry(t *testing.T) func([]*tools.Tool, error) *tools.Registry {
	return func(list []*tools.Tool, err error) *tools.Registry {
		t.Helper()
		require.NoError(t, err)
		r, err := tools.NewRegistry("test", "1.0.0", list...)
		require.NoError(t, err)
		return r
	}
}

func invoke(t *testing.T, r *tools.Registry, name string, args map[string]any) (string, []tools.ProgressEvent, error) {
	t.Helper()
	rec := &tools.Recorder{}
	env, err := r.Invoke(context.Background(), name, args, rec)
	if err != nil {
		return "", rec.Events(), err
	}
	return env.Text(), rec.Events(), nil
}
