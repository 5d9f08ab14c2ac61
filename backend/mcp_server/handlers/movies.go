package handlers

import (
	"encoding/json"
	"net/url"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
)

// MovieSummary is one search-movies result.
type MovieSummary struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	IMDbID string `json:"imdbId"`
	Type   string `json:"type"`
	Poster string `json:"poster"`
}

// MovieList is the search-movies result.
type MovieList struct {
	Movies []MovieSummary `json:"movies"`
}

// Movie is the get-movie-details record.
type Movie struct {
	Title      string          `json:"title"`
	Year       string          `json:"year"`
	Rated      string          `json:"rated"`
	Released   string          `json:"released"`
	Runtime    string          `json:"runtime"`
	Genre      string          `json:"genre"`
	Director   string          `json:"director"`
	Writer     string          `json:"writer"`
	Actors     string          `json:"actors"`
	Plot       string          `json:"plot"`
	Language   string          `json:"language"`
	Country    string          `json:"country"`
	Awards     string          `json:"awards"`
	Poster     string          `json:"poster"`
	Ratings    json.RawMessage `json:"ratings"`
	Metascore  string          `json:"metascore"`
	IMDbRating string          `json:"imdbRating"`
	IMDbVotes  string          `json:"imdbVotes"`
	IMDbID     string          `json:"imdbId"`
	Type       string          `json:"type"`
	DVD        string          `json:"dvd"`
	BoxOffice  string          `json:"boxOffice"`
	Production string          `json:"production"`
	Website    string          `json:"website"`
}

// MovieDetails is the get-movie-details result.
type MovieDetails struct {
	Movie Movie `json:"movie"`
}

// omdbGate is present on every OMDb answer; Response is "False" when the
// lookup failed and Error says why.
type omdbGate struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (g omdbGate) check() (tools.Result, bool, error) {
	switch g.Response {
	case "False":
		return tools.Failed(g.Error), true, nil
	case "":
		return tools.Result{}, true, tools.ShapeError("response has no Response field")
	}
	return tools.Result{}, false, nil
}

// Movies returns the tools of the movie server, backed by OMDb. It fails
// with config.ErrConfiguration when no API key is configured.
func Movies(cfg config.Upstream, opts ...client.Option) ([]*tools.Tool, error) {
	key, err := cfg.RequireAPIKey(config.EnvOMDBAPIKey)
	if err != nil {
		return nil, err
	}
	u := client.NewUpstream(cfg, append([]client.Option{client.WithAPIKey("apikey", key)}, opts...)...)

	return []*tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "search-movies",
				Description: "Search for movies by title",
				Params: tools.Schema{
					{Name: "query", Type: tools.TypeString, Required: true, Description: "Movie title to search for"},
					{Name: "year", Type: tools.TypeString, Description: "Year of release"},
					{Name: "type", Type: tools.TypeEnum, Enum: []string{"movie", "series", "episode"}, Description: "Type of content"},
				},
			},
			Messages: tools.Messages{
				Started:    "Searching movies...",
				Processing: "Processing search results...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to search movies",
			Call: getJSON(u, "/", func(args tools.Args) url.Values {
				return url.Values{
					"s":    {args.String("query")},
					"y":    {args.String("year")},
					"type": {args.String("type")},
				}
			}),
			Normalize: NormalizeMovieSearch,
		},
		{
			Definition: tools.Definition{
				Name:        "get-movie-details",
				Description: "Get detailed information about a movie",
				Params: tools.Schema{
					{Name: "imdbId", Type: tools.TypeString, Required: true, Description: "IMDb ID of the movie"},
				},
			},
			Messages: tools.Messages{
				Started:    "Fetching movie details...",
				Processing: "Processing movie details...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to get movie details",
			Call: getJSON(u, "/", func(args tools.Args) url.Values {
				return url.Values{
					"i":    {args.String("imdbId")},
					"plot": {"full"},
				}
			}),
			Normalize: NormalizeMovieDetails,
		},
	}, nil
}

// NormalizeMovieSearch maps an OMDb search response to MovieList, or to a
// failed result when OMDb reports Response "False".
func NormalizeMovieSearch(_ tools.Args, body []byte) (tools.Result, error) {
	var resp struct {
		omdbGate
		Search *[]struct {
			Title  string `json:"Title"`
			Year   string `json:"Year"`
			IMDbID string `json:"imdbID"`
			Type   string `json:"Type"`
			Poster string `json:"Poster"`
		} `json:"Search"`
	}
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}
	if res, done, err := resp.check(); done {
		return res, err
	}
	if resp.Search == nil {
		return tools.Result{}, tools.ShapeError("search response has no Search list")
	}

	list := MovieList{Movies: make([]MovieSummary, 0, len(*resp.Search))}
	for _, m := range *resp.Search {
		list.Movies = append(list.Movies, MovieSummary{
			Title:  m.Title,
			Year:   m.Year,
			IMDbID: m.IMDbID,
			Type:   m.Type,
			Poster: m.Poster,
		})
	}
	return tools.Ok(list), nil
}

// NormalizeMovieDetails maps an OMDb title record to MovieDetails, or to a
// failed result when OMDb reports Response "False".
func NormalizeMovieDetails(_ tools.Args, body []byte) (tools.Result, error) {
	var resp struct {
		omdbGate
		Title      string          `json:"Title"`
		Year       string          `json:"Year"`
		Rated      string          `json:"Rated"`
		Released   string          `json:"Released"`
		Runtime    string          `json:"Runtime"`
		Genre      string          `json:"Genre"`
		Director   string          `json:"Director"`
		Writer     string          `json:"Writer"`
		Actors     string          `json:"Actors"`
		Plot       string          `json:"Plot"`
		Language   string          `json:"Language"`
		Country    string          `json:"Country"`
		Awards     string          `json:"Awards"`
		Poster     string          `json:"Poster"`
		Ratings    json.RawMessage `json:"Ratings"`
		Metascore  string          `json:"Metascore"`
		IMDbRating string          `json:"imdbRating"`
		IMDbVotes  string          `json:"imdbVotes"`
		IMDbID     string          `json:"imdbID"`
		Type       string          `json:"Type"`
		DVD        string          `json:"DVD"`
		BoxOffice  string          `json:"BoxOffice"`
		Production string          `json:"Production"`
		Website    string          `json:"Website"`
	}
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}
	if res, done, err := resp.check(); done {
		return res, err
	}

	ratings := resp.Ratings
	if len(ratings) == 0 {
		ratings = json.RawMessage("[]")
	}
	return tools.Ok(MovieDetails{Movie: Movie{
		Title:      resp.Title,
		Year:       resp.Year,
		Rated:      resp.Rated,
		Released:   resp.Released,
		Runtime:    resp.Runtime,
		Genre:      resp.Genre,
		Director:   resp.Director,
		Writer:     resp.Writer,
		Actors:     resp.Actors,
		Plot:       resp.Plot,
		Language:   resp.Language,
		Country:    resp.Country,
		Awards:     resp.Awards,
		Poster:     resp.Poster,
		Ratings:    ratings,
		Metascore:  resp.Metascore,
		IMDbRating: resp.IMDbRating,
		IMDbVotes:  resp.IMDbVotes,
		IMDbID:     resp.IMDbID,
		Type:       resp.Type,
		DVD:        resp.DVD,
		BoxOffice:  resp.BoxOffice,
		Production: resp.Production,
		Website:    resp.Website,
	}}), nil
}
