package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const systemPrompt = `You are an assistant that answers by calling tools. Always call the matching tool first and build the answer from its result.

- Books: search-books to find books by title, author or keyword; get-book-details with an ISBN.
- Movies: search-movies by title; get-movie-details with an IMDb id.
- News: search-news with a query; get-headlines for top headlines of a country or category.
- Weather: get-weather for a city name; get-forecast and get-alerts with latitude and longitude.
- GeekNews: get-latest-news for the front page; search-news with a keyword.

When two servers offer the same tool name, each copy is prefixed with its server name, for example news-mcp-server_search-news for news articles and geeknews_search-news for GeekNews topics.

If a tool returns an error, say so plainly and do not invent data.`

type agentRequest struct {
	Input string `json:"input"`
}

type agentResponse struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newRouter(agent, toolAgent Agent, corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Group(func(r chi.Router) {
		r.Use(cors(corsOrigin))
		r.Handle("/agent", agentHandler(agent, systemPrompt, assistantReply))
		r.Handle("/tool_agent", agentHandler(toolAgent, "", toolReply))
	})
	return r
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func agentHandler(agent Agent, prompt string, reply func([]*schema.Message) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req agentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Input) == "" {
			http.Error(w, "input is required", http.StatusBadRequest)
			return
		}

		var msgs []*schema.Message
		if prompt != "" {
			msgs = append(msgs, schema.SystemMessage(prompt))
		}
		msgs = append(msgs, schema.UserMessage(req.Input))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		respMsgs, err := agent.Invoke(r.Context(), msgs)
		if err != nil {
			logger.ContextKV(r.Context(), xlog.ERROR, "reason", "invoke", "path", r.URL.Path, "err", err.Error())
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(agentResponse{Error: err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(agentResponse{Output: reply(respMsgs)})
	}
}

// assistantReply prefers the first assistant message and falls back to the
// last message, which usually carries a tool result.
func assistantReply(msgs []*schema.Message) string {
	for _, m := range msgs {
		if m.Role == schema.Assistant && m.Content != "" {
			return m.Content
		}
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}

// toolReply returns the text of the last tool result.
func toolReply(msgs []*schema.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return extractContentFromJSON(msgs[len(msgs)-1].Content)
}

// extractContentFromJSON returns the first text item of a
// {"content":[{"type":"text","text":"..."}]} envelope, or input unchanged.
func extractContentFromJSON(input string) string {
	if strings.TrimSpace(input) == "" {
		return input
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(input), &result); err != nil {
		return input
	}
	if len(result.Content) > 0 && result.Content[0].Type == "text" {
		return result.Content[0].Text
	}
	return input
}
