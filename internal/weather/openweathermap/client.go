package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/provider/resilience"
	"github.com/citynav/citynav/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry tracks provider health when HTTPClient is nil (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

var _ weather.Provider = (*Client)(nil)

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// CurrentWeather fetches current weather for a location.
func (c *Client) CurrentWeather(ctx context.Context, loc geo.Location) (weather.Observation, error) {
	var resp currentWeatherResponse
	if err := c.get(ctx, "/weather", loc, &resp); err != nil {
		return weather.Observation{}, err
	}
	return toObservation(&resp, time.Now()), nil
}

// HourlyForecast fetches the 3-hourly forecast and expands it to hourly
// entries.
func (c *Client) HourlyForecast(ctx context.Context, loc geo.Location) (weather.Forecast, error) {
	var resp forecastResponse
	if err := c.get(ctx, "/forecast", loc, &resp); err != nil {
		return weather.Forecast{}, err
	}
	return toForecast(loc, &resp, time.Now()), nil
}

func (c *Client) get(ctx context.Context, path string, loc geo.Location, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lng, 'f', 6, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid API key", weather.ErrProviderUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", weather.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func toObservation(resp *currentWeatherResponse, fetchedAt time.Time) weather.Observation {
	obs := weather.Observation{
		Location:    geo.Location{Lat: resp.Coord.Lat, Lng: resp.Coord.Lon, Name: resp.Name},
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Condition:   weather.ConditionUnknown,
		ObservedAt:  time.Unix(resp.Dt, 0),
		FetchedAt:   fetchedAt,
	}
	if len(resp.Weather) > 0 {
		obs.Condition = mapCondition(resp.Weather[0].Main)
		obs.Description = resp.Weather[0].Description
	}
	return obs
}

// toForecast expands each 3-hour step into three hourly entries.
func toForecast(loc geo.Location, resp *forecastResponse, fetchedAt time.Time) weather.Forecast {
	f := weather.Forecast{
		Location:  loc,
		Hourly:    make([]weather.HourlyForecast, 0, len(resp.List)*3),
		FetchedAt: fetchedAt,
	}

	for _, step := range resp.List {
		h := weather.HourlyForecast{
			Time:        time.Unix(step.Dt, 0),
			Temperature: step.Main.Temp,
			Condition:   weather.ConditionUnknown,
			PrecipProb:  step.Pop,
		}
		if len(step.Weather) > 0 {
			h.Condition = mapCondition(step.Weather[0].Main)
			h.Description = step.Weather[0].Description
		}
		for i := 0; i < 3; i++ {
			hour := h
			hour.Time = h.Time.Add(time.Duration(i) * time.Hour)
			f.Hourly = append(f.Hourly, hour)
		}
	}
	return f
}

// mapCondition maps OpenWeatherMap condition to domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm", "Squall", "Tornado":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Smoke", "Dust", "Sand", "Ash":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

type conditionJSON struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionJSON `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []conditionJSON `json:"weather"`
		Pop     float64         `json:"pop"`
	} `json:"list"`
}
