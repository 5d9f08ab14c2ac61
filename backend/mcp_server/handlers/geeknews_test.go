package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontPage = `<!DOCTYPE html>
<html><body>
<div class="topics">
  <div class="topic_row">
    <div class="topic_title"><a href="https://go.dev/blog/go1.24">Go 1.24 is released</a></div>
    <span class="topic_points">42 points</span>
    <span class="topic_author">gopher</span>
    <span class="topic_time">3 hours ago</span>
    <span class="topic_comments">7 comments</span>
  </div>
  <div class="topic_row">
    <div class="topic_title"><a href="topic?id=2"> Rust in the kernel </a></div>
    <span class="topic_points">points hidden</span>
    <span class="topic_author">crab</span>
    <span class="topic_time">1 day ago</span>
    <span class="topic_comments">discuss</span>
  </div>
  <div class="topic_row">
    <div class="topic_title"><a href="/topic?id=3">Why GOLANG tooling wins</a></div>
    <span class="topic_points">5</span>
    <span class="topic_author">ken</span>
    <span class="topic_time">2 days ago</span>
  </div>
</div>
</body></html>`

func TestGetLatestNews(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "text/html", frontPage)
	r := registry(t)(GeekNews(up.config(""), up.options()...))

	text, events, err := invoke(t, r, "get-latest-news", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"title":"Go 1.24 is released","url":"https://go.dev/blog/go1.24","points":42,"author":"gopher","time":"3 hours ago","comments":7},
		{"title":"Rust in the kernel","url":"`+up.URL+`/topic?id=2","points":0,"author":"crab","time":"1 day ago","comments":0},
		{"title":"Why GOLANG tooling wins","url":"`+up.URL+`/topic?id=3","points":5,"author":"ken","time":"2 days ago","comments":0}
	]`, text)
	assert.Len(t, events, 3)
	assert.Equal(t, "/", up.path())
}

func TestSearchGeekNews(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "text/html", frontPage)
	r := registry(t)(GeekNews(up.config(""), up.options()...))

	text, _, err := invoke(t, r, "search-news", map[string]any{"keyword": "golang"})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"title":"Why GOLANG tooling wins","url":"`+up.URL+`/topic?id=3","points":5,"author":"ken","time":"2 days ago","comments":0}
	]`, text)

	text, _, err = invoke(t, r, "search-news", map[string]any{"keyword": "nothing matches"})
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	_, _, err = invoke(t, r, "search-news", nil)
	assert.True(t, errors.Is(err, tools.ErrValidation))
	assert.EqualValues(t, 2, up.hits.Load())
}

func TestGeekNewsLayoutChanged(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "text/html", `<html><body><p>maintenance</p></body></html>`)
	r := registry(t)(GeekNews(up.config(""), up.options()...))

	_, _, err := invoke(t, r, "get-latest-news", nil)
	require.Error(t, err)
	assert.EqualError(t, err, "Failed to retrieve news data")
	assert.True(t, errors.Is(err, tools.ErrUpstreamShape))
}

func TestParseTopicsWithoutBase(t *testing.T) {
	topics, err := ParseTopics(nil, []byte(frontPage))
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, "topic?id=2", topics[1].URL)

	base, _ := url.Parse("https://news.hada.io/")
	topics, err = ParseTopics(base, []byte(frontPage))
	require.NoError(t, err)
	assert.Equal(t, "https://news.hada.io/topic?id=2", topics[1].URL)
}

func TestParseLeadingInt(t *testing.T) {
	tcases := map[string]int{
		"42":            42,
		"  42 points ":  42,
		"12points":      12,
		"-3":            -3,
		"+8 votes":      8,
		"points hidden": 0,
		"":              0,
		"-":             0,
		"1,234":         1,
	}
	for in, exp := range tcases {
		assert.Equal(t, exp, parseLeadingInt(in), in)
	}
}
