// Package config holds the settings of the tool servers: one upstream per
// domain, resolved once at process start and passed to the handler constructors.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks fatal startup errors, such as a missing credential.
var ErrConfiguration = errors.New("configuration error")

// Environment variables consulted by Load.
const (
	EnvOMDBAPIKey        = "OMDB_API_KEY"
	EnvNewsAPIKey        = "NEWS_API_KEY"
	EnvOpenWeatherAPIKey = "OPENWEATHER_API_KEY"
	// EnvOWMAPIKey is the older name of EnvOpenWeatherAPIKey.
	EnvOWMAPIKey = "OWM_API_KEY"
)

// Default upstream base URLs.
const (
	DefaultBooksBaseURL    = "https://openlibrary.org"
	DefaultMoviesBaseURL   = "http://www.omdbapi.com"
	DefaultNewsBaseURL     = "https://newsapi.org/v2"
	DefaultWeatherBaseURL  = "https://api.openweathermap.org/data/2.5"
	DefaultGeekNewsBaseURL = "https://news.hada.io"
)

// Upstream describes the single external API a tool server talks to.
type Upstream struct {
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required,url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Timeout bounds one upstream request, 0 means no client-side timeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
}

// RequireAPIKey returns an ErrConfiguration error naming env when no key is set.
func (u Upstream) RequireAPIKey(env string) (string, error) {
	if u.APIKey == "" {
		return "", errors.Mark(errors.Newf("%s is not defined", env), ErrConfiguration)
	}
	return u.APIKey, nil
}

// Server is the display identity a tool server reports to its clients.
type Server struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Version string `json:"version" yaml:"version" validate:"required"`
}

// Domain is the configuration of one deployable tool server.
type Domain struct {
	Server   Server   `json:"server" yaml:"server"`
	Upstream Upstream `json:"upstream" yaml:"upstream"`
}

// Config is the configuration of all tool servers.
type Config struct {
	Books    Domain `json:"books" yaml:"books"`
	Movies   Domain `json:"movies" yaml:"movies"`
	News     Domain `json:"news" yaml:"news"`
	Weather  Domain `json:"weather" yaml:"weather"`
	GeekNews Domain `json:"geeknews" yaml:"geeknews"`
}

// Default returns the built-in configuration, with no credentials.
func Default() *Config {
	return &Config{
		Books: Domain{
			Server:   Server{Name: "book-mcp-server", Version: "1.0.0"},
			Upstream: Upstream{BaseURL: DefaultBooksBaseURL},
		},
		Movies: Domain{
			Server:   Server{Name: "movie-mcp-server", Version: "1.0.0"},
			Upstream: Upstream{BaseURL: DefaultMoviesBaseURL},
		},
		News: Domain{
			Server:   Server{Name: "news-mcp-server", Version: "1.0.0"},
			Upstream: Upstream{BaseURL: DefaultNewsBaseURL},
		},
		Weather: Domain{
			Server:   Server{Name: "weather-mcp-server", Version: "1.0.0"},
			Upstream: Upstream{BaseURL: DefaultWeatherBaseURL},
		},
		GeekNews: Domain{
			Server:   Server{Name: "geeknews", Version: "1.0.0"},
			Upstream: Upstream{BaseURL: DefaultGeekNewsBaseURL},
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// the process environment, in that order.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %q", file)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %q", file)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides credentials and base URLs from the environment.
// lookup has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	set(&c.Movies.Upstream.APIKey, EnvOMDBAPIKey)
	set(&c.News.Upstream.APIKey, EnvNewsAPIKey)
	set(&c.Weather.Upstream.APIKey, EnvOpenWeatherAPIKey, EnvOWMAPIKey)

	set(&c.Books.Upstream.BaseURL, "BOOKS_BASE_URL")
	set(&c.Movies.Upstream.BaseURL, "MOVIES_BASE_URL")
	set(&c.News.Upstream.BaseURL, "NEWS_BASE_URL")
	set(&c.Weather.Upstream.BaseURL, "WEATHER_BASE_URL")
	set(&c.GeekNews.Upstream.BaseURL, "GEEKNEWS_BASE_URL")
}

// SetTimeout applies d to every upstream.
func (c *Config) SetTimeout(d time.Duration) {
	for _, dom := range []*Domain{&c.Books, &c.Movies, &c.News, &c.Weather, &c.GeekNews} {
		dom.Upstream.Timeout = d
	}
}

// Validate checks the structural constraints of the configuration.
// Credentials are checked by the domain that needs them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid configuration"), ErrConfiguration)
	}
	return nil
}
