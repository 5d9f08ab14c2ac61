package handlers

import (
	"net/url"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
)

// Article is one news article, as returned by search-news and get-headlines.
type Article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Source      string  `json:"source"`
}

// News returns the tools of the news server, backed by NewsAPI. It fails
// with config.ErrConfiguration when no API key is configured.
func News(cfg config.Upstream, opts ...client.Option) ([]*tools.Tool, error) {
	key, err := cfg.RequireAPIKey(config.EnvNewsAPIKey)
	if err != nil {
		return nil, err
	}
	u := client.NewUpstream(cfg, append([]client.Option{client.WithAPIKey("apiKey", key)}, opts...)...)

	category := tools.Param{Name: "category", Type: tools.TypeEnum, Enum: newsCategories, Description: "Category"}
	pageSize := tools.Param{Name: "pageSize", Type: tools.TypeNumber, Default: float64(10), Min: tools.Bound(1), Max: tools.Bound(100), Description: "Number of results"}

	return []*tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "search-news",
				Description: "Search news articles",
				Params: tools.Schema{
					{Name: "query", Type: tools.TypeString, Required: true, Description: "Search keyword"},
					category,
					{Name: "language", Type: tools.TypeString, Default: "ko", Description: "Language"},
					pageSize,
				},
			},
			Messages: tools.Messages{
				Started:    "Searching news...",
				Processing: "Processing news articles...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to fetch news",
			Call: getJSON(u, "/everything", func(args tools.Args) url.Values {
				return url.Values{
					"q":        {args.String("query")},
					"category": {args.String("category")},
					"language": {args.String("language")},
					"pageSize": {args.FormatNumber("pageSize")},
				}
			}),
			Normalize: NormalizeArticles,
		},
		{
			Definition: tools.Definition{
				Name:        "get-headlines",
				Description: "Get top headlines",
				Params: tools.Schema{
					category,
					{Name: "country", Type: tools.TypeString, Default: "kr", Description: "Country"},
					pageSize,
				},
			},
			Messages: tools.Messages{
				Started:    "Fetching headlines...",
				Processing: "Processing headlines...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to fetch headlines",
			Call: getJSON(u, "/top-headlines", func(args tools.Args) url.Values {
				return url.Values{
					"category": {args.String("category")},
					"country":  {args.String("country")},
					"pageSize": {args.FormatNumber("pageSize")},
				}
			}),
			Normalize: NormalizeArticles,
		},
	}, nil
}

// NormalizeArticles maps a NewsAPI articles response to []Article.
func NormalizeArticles(_ tools.Args, body []byte) (tools.Result, error) {
	var resp struct {
		Articles *[]struct {
			Title       string  `json:"title"`
			Description *string `json:"description"`
			URL         string  `json:"url"`
			PublishedAt string  `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}
	if resp.Articles == nil {
		return tools.Result{}, tools.ShapeError("response has no articles")
	}

	articles := make([]Article, 0, len(*resp.Articles))
	for _, a := range *resp.Articles {
		articles = append(articles, Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		})
	}
	return tools.Ok(articles), nil
}
