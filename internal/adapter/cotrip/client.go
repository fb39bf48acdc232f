package cotrip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/peakline/corridor-vibes/internal/domain"
	"github.com/peakline/corridor-vibes/internal/observability"
)

// Client reads the four upstream traveler-information feeds. Transient
// failures are logged and reported as empty slices so one dead feed never
// aborts a run; the reconciliation layer treats missing data as unknown.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client for the traveler-information API.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Destinations fetches per-corridor travel times.
func (c *Client) Destinations(ctx context.Context) []domain.Destination {
	var resp featureCollection[destinationProps]
	if err := c.fetch(ctx, "destinations", &resp); err != nil {
		c.logger.Warn("destinations feed fetch failed", "error", err)
		return nil
	}

	out := make([]domain.Destination, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, domain.Destination{
			Name:          f.Properties.Name,
			TravelSeconds: f.Properties.TravelTime,
			Route:         f.Properties.Route,
			Direction:     f.Properties.Direction,
		})
	}
	return out
}

// Incidents fetches active incident reports.
func (c *Client) Incidents(ctx context.Context) []domain.Incident {
	var resp featureCollection[incidentProps]
	if err := c.fetch(ctx, "incidents", &resp); err != nil {
		c.logger.Warn("incidents feed fetch failed", "error", err)
		return nil
	}

	out := make([]domain.Incident, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, domain.Incident{
			ID:          f.Properties.ID,
			Type:        f.Properties.Type,
			Severity:    f.Properties.Severity,
			Description: f.Properties.TravelerMessage,
			Route:       f.Properties.Route,
			Direction:   f.Properties.Direction,
			StartMM:     f.Properties.StartMileMarker,
			EndMM:       f.Properties.EndMileMarker,
		})
	}
	return out
}

// RoadConditions fetches surface-condition reports per mile-marker span.
func (c *Client) RoadConditions(ctx context.Context) []domain.RoadCondition {
	var resp featureCollection[conditionProps]
	if err := c.fetch(ctx, "roadConditions", &resp); err != nil {
		c.logger.Warn("road conditions feed fetch failed", "error", err)
		return nil
	}

	out := make([]domain.RoadCondition, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, domain.RoadCondition{
			Route:       f.Properties.Route,
			StartMM:     f.Properties.StartMileMarker,
			EndMM:       f.Properties.EndMileMarker,
			Description: f.Properties.Condition,
		})
	}
	return out
}

// WeatherStations fetches per-station roadway weather sensor readings.
func (c *Client) WeatherStations(ctx context.Context) []domain.WeatherStation {
	var resp featureCollection[stationProps]
	if err := c.fetch(ctx, "weatherStations", &resp); err != nil {
		c.logger.Warn("weather stations feed fetch failed", "error", err)
		return nil
	}

	out := make([]domain.WeatherStation, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, domain.WeatherStation{
			Name:             f.Properties.Name,
			Route:            f.Properties.Route,
			MileMarker:       f.Properties.MileMarker,
			SurfaceCondition: f.Properties.SurfaceCondition,
		})
	}
	return out
}

func (c *Client) fetch(ctx context.Context, feed string, dst any) error {
	start := time.Now()
	err := c.doFetch(ctx, feed, dst)
	if c.metrics != nil {
		c.metrics.FeedFetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.FeedErrors.WithLabelValues(feed).Inc()
		}
	}
	return err
}

func (c *Client) doFetch(ctx context.Context, feed string, dst any) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, feed)
	if c.apiKey != "" {
		params := url.Values{"apiKey": {c.apiKey}}
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", feed, err)
	}
	return nil
}

// Feed API response types. Every endpoint returns a GeoJSON-style feature
// collection; only the properties are used, geometry is ignored.

type featureCollection[P any] struct {
	Features []feature[P] `json:"features"`
}

type feature[P any] struct {
	Properties P `json:"properties"`
}

type destinationProps struct {
	Name       string  `json:"name"`
	TravelTime float64 `json:"travelTime"`
	Route      string  `json:"route"`
	Direction  string  `json:"direction"`
}

type incidentProps struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	TravelerMessage string  `json:"travelerInformationMessage"`
	Route           string  `json:"routeName"`
	Direction       string  `json:"direction"`
	StartMileMarker float64 `json:"startMileMarker"`
	EndMileMarker   float64 `json:"endMileMarker"`
}

type conditionProps struct {
	Route           string  `json:"routeName"`
	StartMileMarker float64 `json:"startMileMarker"`
	EndMileMarker   float64 `json:"endMileMarker"`
	Condition       string  `json:"currentConditions"`
}

type stationProps struct {
	Name             string  `json:"name"`
	Route            string  `json:"routeName"`
	MileMarker       float64 `json:"mileMarker"`
	SurfaceCondition string  `json:"surfaceCondition"`
}
