// Package overpass looks up transit stops from OpenStreetMap through the
// Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/provider/resilience"
	"github.com/citynav/citynav/internal/transit"
)

const (
	// ProviderName identifies this transit provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the public Overpass interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// queryTimeoutSeconds is the server-side timeout sent with each query.
	queryTimeoutSeconds = 10
)

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the interpreter URL (optional, defaults to overpass-api.de).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry tracks provider health when HTTPClient is nil (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client for transit stops.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
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
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FindStops returns bus stops, metro and railway stations and tram stops
// within radius meters of loc.
func (c *Client) FindStops(ctx context.Context, loc geo.Location, radius float64) ([]transit.Stop, error) {
	form := url.Values{}
	form.Set("data", BuildQuery(loc, radius))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limited", transit.ErrProviderUnavailable)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", transit.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	stops := make([]transit.Stop, 0, len(body.Elements))
	for i := range body.Elements {
		if s, ok := toStop(&body.Elements[i]); ok {
			stops = append(stops, s)
		}
	}

	c.logger.Debug().
		Int("elements", len(body.Elements)).
		Int("stops", len(stops)).
		Msg("overpass stops fetched")

	return stops, nil
}

// BuildQuery renders the Overpass QL query for stops around loc.
func BuildQuery(loc geo.Location, radius float64) string {
	around := fmt.Sprintf("(around:%d,%s,%s)",
		int(radius),
		strconv.FormatFloat(loc.Lat, 'f', 6, 64),
		strconv.FormatFloat(loc.Lng, 'f', 6, 64),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", queryTimeoutSeconds)
	fmt.Fprintf(&b, "  node%s[highway=bus_stop];\n", around)
	fmt.Fprintf(&b, "  node%s[public_transport=platform][bus=yes];\n", around)
	fmt.Fprintf(&b, "  node%s[railway=station];\n", around)
	fmt.Fprintf(&b, "  node%s[station=subway];\n", around)
	fmt.Fprintf(&b, "  node%s[railway=tram_stop];\n", around)
	b.WriteString(");\nout body;\n")
	return b.String()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "citynav/1.0")
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func toStop(e *element) (transit.Stop, bool) {
	kind := classify(e.Tags)
	if kind == transit.StopTypeUnknown {
		return transit.Stop{}, false
	}

	name := e.Tags["name"]
	if name == "" {
		name = e.Tags["name:en"]
	}
	if name == "" {
		name = strings.ReplaceAll(string(kind), "_", " ")
	}

	return transit.Stop{
		ID:       fmt.Sprintf("osm-%s-%d", e.Type, e.ID),
		Name:     name,
		Type:     kind,
		Location: geo.Location{Lat: e.Lat, Lng: e.Lon, Name: name},
		Routes:   splitRefs(e.Tags["route_ref"]),
		Operator: e.Tags["operator"],
	}, true
}

func classify(tags map[string]string) transit.StopType {
	switch {
	case tags["station"] == "subway" || tags["subway"] == "yes":
		return transit.MetroStation
	case tags["railway"] == "station" || tags["railway"] == "halt":
		return transit.RailwayStation
	case tags["railway"] == "tram_stop":
		return transit.TramStop
	case tags["highway"] == "bus_stop" || tags["bus"] == "yes":
		return transit.BusStop
	}
	return transit.StopTypeUnknown
}

func splitRefs(refs string) []string {
	if refs == "" {
		return nil
	}
	parts := strings.Split(refs, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ensure Client implements transit.Provider.
var _ transit.Provider = (*Client)(nil)
