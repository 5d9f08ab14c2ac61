package handlers

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
)

const coverURLTemplate = "https://covers.openlibrary.org/b/id/%d-L.jpg"

// Book is one search-books result.
type Book struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	PublishYear *int    `json:"publishYear"`
	ISBN        *string `json:"isbn"`
	CoverURL    *string `json:"coverUrl"`
}

// BookDetails is the get-book-details result. Publishers and subjects are
// passed through as the catalog returns them.
type BookDetails struct {
	Title       string          `json:"title,omitempty"`
	Authors     []string        `json:"authors"`
	PublishDate string          `json:"publishDate,omitempty"`
	Publishers  json.RawMessage `json:"publishers,omitempty"`
	Subjects    json.RawMessage `json:"subjects,omitempty"`
	CoverURL    string          `json:"coverUrl,omitempty"`
}

type openLibraryDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *int     `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	CoverI           *int64   `json:"cover_i"`
}

type openLibraryRecord struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PublishDate string          `json:"publish_date"`
	Publishers  json.RawMessage `json:"publishers"`
	Subjects    json.RawMessage `json:"subjects"`
	Cover       *struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"cover"`
}

// Books returns the tools of the book server, backed by the Open Library
// API. No credential is needed.
func Books(cfg config.Upstream, opts ...client.Option) ([]*tools.Tool, error) {
	u := client.NewUpstream(cfg, opts...)
	return []*tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "search-books",
				Description: "Search books by keyword",
				Params: tools.Schema{
					{Name: "query", Type: tools.TypeString, Required: true, Description: "Search keyword"},
					{Name: "limit", Type: tools.TypeNumber, Default: float64(10), Min: tools.Bound(1), Description: "Number of results"},
					{Name: "language", Type: tools.TypeString, Description: "Language"},
				},
			},
			Messages: tools.Messages{
				Started:    "Searching books...",
				Processing: "Processing book information...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to search books",
			Call: getJSON(u, "/search.json", func(args tools.Args) url.Values {
				return url.Values{
					"q":        {args.String("query")},
					"limit":    {args.FormatNumber("limit")},
					"language": {args.String("language")},
				}
			}),
			Normalize: NormalizeBookSearch,
		},
		{
			Definition: tools.Definition{
				Name:        "get-book-details",
				Description: "Get detailed information about a book",
				Params: tools.Schema{
					{Name: "isbn", Type: tools.TypeString, Required: true, Description: "ISBN number"},
				},
			},
			Messages: tools.Messages{
				Started:    "Fetching book information...",
				Processing: "Processing book details...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to get book details",
			Call: getJSON(u, "/api/books", func(args tools.Args) url.Values {
				return url.Values{
					"bibkeys": {bibKey(args.String("isbn"))},
					"format":  {"json"},
					"jscmd":   {"data"},
				}
			}),
			Normalize: NormalizeBookDetails,
		},
	}, nil
}

func bibKey(isbn string) string {
	return "ISBN:" + isbn
}

// NormalizeBookSearch maps an Open Library search response to []Book.
func NormalizeBookSearch(_ tools.Args, body []byte) (tools.Result, error) {
	var resp struct {
		Docs *[]openLibraryDoc `json:"docs"`
	}
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}
	if resp.Docs == nil {
		return tools.Result{}, tools.ShapeError("search response has no docs")
	}

	books := make([]Book, 0, len(*resp.Docs))
	for _, d := range *resp.Docs {
		b := Book{
			Title:       d.Title,
			Author:      "Unknown",
			PublishYear: d.FirstPublishYear,
		}
		if len(d.AuthorName) > 0 && d.AuthorName[0] != "" {
			b.Author = d.AuthorName[0]
		}
		if len(d.ISBN) > 0 {
			b.ISBN = strPtr(d.ISBN[0])
		}
		if d.CoverI != nil && *d.CoverI != 0 {
			b.CoverURL = strPtr(fmt.Sprintf(coverURLTemplate, *d.CoverI))
		}
		books = append(books, b)
	}
	return tools.Ok(books), nil
}

// NormalizeBookDetails maps the record keyed by the requested ISBN to BookDetails.
func NormalizeBookDetails(args tools.Args, body []byte) (tools.Result, error) {
	var resp map[string]*openLibraryRecord
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}
	key := bibKey(args.String("isbn"))
	rec := resp[key]
	if rec == nil {
		return tools.Result{}, tools.ShapeError("no record for %s", key)
	}

	details := BookDetails{
		Title:       rec.Title,
		Authors:     make([]string, 0, len(rec.Authors)),
		PublishDate: rec.PublishDate,
		Publishers:  nullAsAbsent(rec.Publishers),
		Subjects:    nullAsAbsent(rec.Subjects),
	}
	for _, a := range rec.Authors {
		details.Authors = append(details.Authors, a.Name)
	}
	if rec.Cover != nil {
		details.CoverURL = rec.Cover.Large
		if details.CoverURL == "" {
			details.CoverURL = rec.Cover.Medium
		}
	}
	return tools.Ok(details), nil
}

func nullAsAbsent(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
