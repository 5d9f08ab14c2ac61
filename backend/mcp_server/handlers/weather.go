package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
)

// now is replaced in tests.
var now = time.Now

// timestampLayout is ISO 8601 in UTC with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Weather is the get-weather result.
type Weather struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Location    string  `json:"location"`
	// Timestamp is the time of the call, not of the observation.
	Timestamp string `json:"timestamp"`
}

// Forecast is the get-forecast result.
type Forecast struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"windSpeed"`
	WindDeg     float64 `json:"windDeg"`
}

// Alert is one active weather alert.
type Alert struct {
	Sender      string `json:"sender"`
	Event       string `json:"event"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

// Alerts is the get-alerts result.
type Alerts struct {
	Alerts []Alert `json:"alerts"`
}

type owmCurrent struct {
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
}

func decodeCurrent(body []byte) (*owmCurrent, error) {
	var resp owmCurrent
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Main == nil {
		return nil, tools.ShapeError("weather response has no main section")
	}
	return &resp, nil
}

func (c *owmCurrent) condition() (description, icon string) {
	if len(c.Weather) == 0 {
		return "", ""
	}
	return c.Weather[0].Description, c.Weather[0].Icon
}

// WeatherTools returns the tools of the weather server, backed by
// OpenWeatherMap. It fails with config.ErrConfiguration when no API key is
// configured.
func WeatherTools(cfg config.Upstream, opts ...client.Option) ([]*tools.Tool, error) {
	key, err := cfg.RequireAPIKey(config.EnvOpenWeatherAPIKey)
	if err != nil {
		return nil, err
	}
	u := client.NewUpstream(cfg, append([]client.Option{client.WithAPIKey("appid", key)}, opts...)...)

	coords := tools.Schema{
		{Name: "latitude", Type: tools.TypeNumber, Required: true, Min: tools.Bound(-90), Max: tools.Bound(90), Description: "Latitude of the location"},
		{Name: "longitude", Type: tools.TypeNumber, Required: true, Min: tools.Bound(-180), Max: tools.Bound(180), Description: "Longitude of the location"},
	}
	latLon := func(args tools.Args) url.Values {
		return url.Values{
			"lat": {args.FormatNumber("latitude")},
			"lon": {args.FormatNumber("longitude")},
		}
	}

	return []*tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "get-weather",
				Description: "Get the current weather for a location",
				Params: tools.Schema{
					{Name: "location", Type: tools.TypeString, Required: true, Description: "Location (e.g. Seoul)"},
					{Name: "units", Type: tools.TypeEnum, Enum: []string{"metric", "imperial"}, Default: "metric", Description: "Unit system"},
					{Name: "lang", Type: tools.TypeString, Default: "ko", Description: "Language"},
				},
			},
			Messages: tools.Messages{
				Started:    "Fetching weather information...",
				Processing: "Processing weather information...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to fetch weather information",
			Call: getJSON(u, "/weather", func(args tools.Args) url.Values {
				return url.Values{
					"q":     {args.String("location")},
					"units": {args.String("units")},
					"lang":  {args.String("lang")},
				}
			}),
			Normalize: NormalizeWeather,
		},
		{
			Definition: tools.Definition{
				Name:        "get-forecast",
				Description: "Get weather forecast for a location",
				Params:      coords,
			},
			Messages: tools.Messages{
				Started:    "Fetching forecast...",
				Processing: "Processing forecast...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to retrieve weather data",
			Call: getJSON(u, "/weather", func(args tools.Args) url.Values {
				q := latLon(args)
				q.Set("units", "metric")
				return q
			}),
			Normalize: NormalizeForecast,
		},
		{
			Definition: tools.Definition{
				Name:        "get-alerts",
				Description: "Get weather alerts for a location",
				Params:      coords,
			},
			Messages: tools.Messages{
				Started:    "Fetching alerts...",
				Processing: "Processing alerts...",
				Done:       "Done!",
			},
			FailureMessage: "Failed to retrieve alerts data",
			Call: getJSON(u, "/onecall", func(args tools.Args) url.Values {
				q := latLon(args)
				q.Set("exclude", "current,minutely,hourly,daily")
				return q
			}),
			Normalize: NormalizeAlerts,
		},
	}, nil
}

// NormalizeWeather maps a current weather response to Weather, stamped
// with the time of the call.
func NormalizeWeather(_ tools.Args, body []byte) (tools.Result, error) {
	resp, err := decodeCurrent(body)
	if err != nil {
		return tools.Result{}, err
	}
	desc, icon := resp.condition()
	return tools.Ok(Weather{
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Description: desc,
		Icon:        icon,
		Location:    fmt.Sprintf("%s, %s", resp.Name, resp.Sys.Country),
		Timestamp:   now().UTC().Format(timestampLayout),
	}), nil
}

// NormalizeForecast maps a current weather response to Forecast.
func NormalizeForecast(_ tools.Args, body []byte) (tools.Result, error) {
	resp, err := decodeCurrent(body)
	if err != nil {
		return tools.Result{}, err
	}
	desc, _ := resp.condition()
	return tools.Ok(Forecast{
		Location:    resp.Name,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		Description: desc,
		WindSpeed:   resp.Wind.Speed,
		WindDeg:     resp.Wind.Deg,
	}), nil
}

// NormalizeAlerts maps a One Call response to Alerts. A response without
// alerts means there are none.
func NormalizeAlerts(_ tools.Args, body []byte) (tools.Result, error) {
	var resp struct {
		Alerts []struct {
			SenderName  string `json:"sender_name"`
			Event       string `json:"event"`
			Start       int64  `json:"start"`
			End         int64  `json:"end"`
			Description string `json:"description"`
		} `json:"alerts"`
	}
	if err := decode(body, &resp); err != nil {
		return tools.Result{}, err
	}

	out := Alerts{Alerts: make([]Alert, 0, len(resp.Alerts))}
	for _, a := range resp.Alerts {
		out.Alerts = append(out.Alerts, Alert{
			Sender:      a.SenderName,
			Event:       a.Event,
			Start:       time.Unix(a.Start, 0).UTC().Format(time.RFC3339),
			End:         time.Unix(a.End, 0).UTC().Format(time.RFC3339),
			Description: a.Description,
		})
	}
	return tools.Ok(out), nil
}
