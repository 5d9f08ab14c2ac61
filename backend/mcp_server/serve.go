package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"

	sseEndpoint     = "/sse"
	messageEndpoint = "/message"

	shutdownTimeout = 5 * time.Second
)

func checkTransport(transport string) error {
	switch transport {
	case transportStdio, transportSSE:
		return nil
	}
	return errors.Newf("unsupported transport %q, expected %s or %s", transport, transportStdio, transportSSE)
}

func serve(ctx context.Context, reg *tools.Registry, transport, addr string) error {
	s := reg.NewMCPServer()
	if transport == transportStdio {
		return server.ServeStdio(s)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sse := server.NewSSEServer(s,
		server.WithSSEEndpoint(sseEndpoint),
		server.WithMessageEndpoint(messageEndpoint),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(reg, sse),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO, "status", "listening", "addr", addr, "sse", sseEndpoint)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "mcp sse server error")
	case <-ctx.Done():
	}

	logger.KV(xlog.INFO, "status", "shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(sctx); err != nil {
		logger.KV(xlog.ERROR, "reason", "sse_shutdown", "err", err.Error())
	}
	return errors.WithStack(srv.Shutdown(sctx))
}

// newRouter mounts the SSE transport next to a health probe.
func newRouter(reg *tools.Registry, sse http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(reg.Name() + " ok\n"))
	})
	r.Handle(sseEndpoint, sse)
	r.Handle(messageEndpoint, sse)
	return r
}
