package handlers

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
)

// Selectors of the GeekNews front page.
const (
	topicRowSelector      = ".topic_row"
	topicTitleSelector    = ".topic_title a"
	topicPointsSelector   = ".topic_points"
	topicAuthorSelector   = ".topic_author"
	topicTimeSelector     = ".topic_time"
	topicCommentsSelector = ".topic_comments"
)

// Topic is one row of the GeekNews front page.
type Topic struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Points   int    `json:"points"`
	Author   string `json:"author"`
	Time     string `json:"time"`
	Comments int    `json:"comments"`
}

// GeekNews returns the tools of the GeekNews scraper. Both tools fetch the
// front page; search-news keeps the topics whose title contains the keyword.
func GeekNews(cfg config.Upstream, opts ...client.Option) ([]*tools.Tool, error) {
	u := client.NewUpstream(cfg, append([]client.Option{client.WithBrowserUserAgent()}, opts...)...)
	base, err := url.Parse(u.BaseURL() + "/")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid GeekNews base url"), config.ErrConfiguration)
	}

	fetch := func(ctx context.Context, _ tools.Args) ([]byte, error) {
		return u.GetPage(ctx, "/", nil)
	}

	return []*tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "get-latest-news",
				Description: "Get latest news from GeekNews",
			},
			Messages: tools.Messages{
				Started:    "Fetching GeekNews...",
				Processing: "Parsing topics...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to retrieve news data",
			Call:           fetch,
			Normalize: func(_ tools.Args, body []byte) (tools.Result, error) {
				topics, err := ParseTopics(base, body)
				if err != nil {
					return tools.Result{}, err
				}
				return tools.Ok(topics), nil
			},
		},
		{
			Definition: tools.Definition{
				Name:        "search-news",
				Description: "Search news by keyword",
				Params: tools.Schema{
					{Name: "keyword", Type: tools.TypeString, Required: true, Description: "Keyword to search for"},
				},
			},
			Messages: tools.Messages{
				Started:    "Fetching GeekNews...",
				Processing: "Searching topics...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to retrieve news data",
			Call:           fetch,
			Normalize: func(args tools.Args, body []byte) (tools.Result, error) {
				topics, err := ParseTopics(base, body)
				if err != nil {
					return tools.Result{}, err
				}
				return tools.Ok(FilterTopics(topics, args.String("keyword"))), nil
			},
		},
	}, nil
}

// ParseTopics extracts the topic rows of page. Relative links are resolved
// against base. A page without any topic row is a shape error.
func ParseTopics(base *url.URL, page []byte) ([]Topic, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse page"), tools.ErrUpstreamShape)
	}
	rows := doc.Find(topicRowSelector)
	if rows.Length() == 0 {
		return nil, tools.ShapeError("page has no %s elements", topicRowSelector)
	}

	topics := make([]Topic, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		link := row.Find(topicTitleSelector).First()
		href, _ := link.Attr("href")
		topics = append(topics, Topic{
			Title:    strings.TrimSpace(link.Text()),
			URL:      resolve(base, strings.TrimSpace(href)),
			Points:   parseLeadingInt(row.Find(topicPointsSelector).Text()),
			Author:   strings.TrimSpace(row.Find(topicAuthorSelector).Text()),
			Time:     strings.TrimSpace(row.Find(topicTimeSelector).Text()),
			Comments: parseLeadingInt(row.Find(topicCommentsSelector).Text()),
		})
	})
	return topics, nil
}

// FilterTopics keeps the topics whose title contains keyword, ignoring case.
func FilterTopics(topics []Topic, keyword string) []Topic {
	needle := strings.ToLower(keyword)
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out
}

func resolve(base *url.URL, href string) string {
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// parseLeadingInt parses the integer at the start of s, after leading
// spaces and an optional sign: "12 points" is 12. It returns 0 when s does
// not start with a digit.
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if n > (1<<31)/10 {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
