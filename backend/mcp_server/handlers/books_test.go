package handlers

import (
	"net/http"
	"testing"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBooks(t *testing.T) {
	up := newJSONUpstream(t, `{"numFound":1,"docs":[{
		"title":"Dune",
		"author_name":["Frank Herbert"],
		"first_publish_year":1965,
		"isbn":["9780441013593","0441013597"],
		"cover_i":258027
	}]}`)
	r := registry(t)(Books(up.config(""), up.options()...))

	text, events, err := invoke(t, r, "search-books", map[string]any{"query": "dune", "limit": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"title":"Dune",
		"author":"Frank Herbert",
		"publishYear":1965,
		"isbn":"9780441013593",
		"coverUrl":"https://covers.openlibrary.org/b/id/258027-L.jpg"
	}]`, text)

	assert.Equal(t, "/search.json", up.path())
	assert.Equal(t, "dune", up.query().Get("q"))
	assert.Equal(t, "1", up.query().Get("limit"))
	assert.False(t, up.query().Has("language"))

	require.Len(t, events, 3)
	assert.Equal(t, tools.ProgressEvent{Progress: 100, Total: 100, Message: "Done!"}, events[2])
}

func TestSearchBooksMissingFields(t *testing.T) {
	up := newJSONUpstream(t, `{"docs":[{"title":"Anonymous"},{"title":"Zero cover","cover_i":0,"author_name":[]}]}`)
	r := registry(t)(Books(up.config(""), up.options()...))

	text, _, err := invoke(t, r, "search-books", map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"title":"Anonymous","author":"Unknown","publishYear":null,"isbn":null,"coverUrl":null},
		{"title":"Zero cover","author":"Unknown","publishYear":null,"isbn":null,"coverUrl":null}
	]`, text)
	assert.Equal(t, "10", up.query().Get("limit"))
}

func TestSearchBooksFailures(t *testing.T) {
	t.Run("no docs", func(t *testing.T) {
		up := newJSONUpstream(t, `{"numFound":0}`)
		r := registry(t)(Books(up.config(""), up.options()...))
		_, _, err := invoke(t, r, "search-books", map[string]any{"query": "x"})
		require.Error(t, err)
		assert.EqualError(t, err, "Failed to search books")
		assert.True(t, errors.Is(err, tools.ErrUpstreamShape))
	})
	t.Run("status", func(t *testing.T) {
		up := newUpstream(t, http.StatusInternalServerError, "text/plain", "boom")
		r := registry(t)(Books(up.config(""), up.options()...))
		_, _, err := invoke(t, r, "search-books", map[string]any{"query": "x"})
		require.Error(t, err)
		assert.EqualError(t, err, "Failed to search books")
		assert.True(t, errors.Is(err, tools.ErrUpstreamTransport))
	})
	t.Run("validation", func(t *testing.T) {
		up := newJSONUpstream(t, `{"docs":[]}`)
		r := registry(t)(Books(up.config(""), up.options()...))
		_, events, err := invoke(t, r, "search-books", map[string]any{"limit": 5})
		assert.True(t, errors.Is(err, tools.ErrValidation))
		_, _, err = invoke(t, r, "search-books", map[string]any{"query": "x", "limit": 0})
		assert.True(t, errors.Is(err, tools.ErrValidation))
		assert.Empty(t, events)
		assert.Zero(t, up.hits.Load())
	})
}

func TestGetBookDetails(t *testing.T) {
	up := newJSONUpstream(t, `{"ISBN:9780441013593":{
		"title":"Dune",
		"authors":[{"name":"Frank Herbert","url":"https://openlibrary.org/authors/OL79034A"}],
		"publish_date":"2005",
		"publishers":[{"name":"Ace Books"}],
		"subjects":[{"name":"Science fiction","url":"https://openlibrary.org/subjects/science_fiction"}],
		"cover":{"medium":"https://covers.openlibrary.org/b/id/1-M.jpg","large":"https://covers.openlibrary.org/b/id/1-L.jpg"}
	}}`)
	r := registry(t)(Books(up.config(""), up.options()...))

	text, _, err := invoke(t, r, "get-book-details", map[string]any{"isbn": "9780441013593"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title":"Dune",
		"authors":["Frank Herbert"],
		"publishDate":"2005",
		"publishers":[{"name":"Ace Books"}],
		"subjects":[{"name":"Science fiction","url":"https://openlibrary.org/subjects/science_fiction"}],
		"coverUrl":"https://covers.openlibrary.org/b/id/1-L.jpg"
	}`, text)
	assert.Equal(t, "/api/books", up.path())
	assert.Equal(t, "ISBN:9780441013593", up.query().Get("bibkeys"))
	assert.Equal(t, "data", up.query().Get("jscmd"))
	assert.Equal(t, "json", up.query().Get("format"))
}

func TestNormalizeBookDetailsMissingFields(t *testing.T) {
	args := tools.Args{"isbn": "1"}
	res, err := NormalizeBookDetails(args, []byte(`{"ISBN:1":{"title":"T","publishers":null,"cover":{"medium":"m"}}}`))
	require.NoError(t, err)
	text, err := res.Text()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T","authors":[],"coverUrl":"m"}`, text)

	_, err = NormalizeBookDetails(args, []byte(`{}`))
	assert.True(t, errors.Is(err, tools.ErrUpstreamShape))
}
