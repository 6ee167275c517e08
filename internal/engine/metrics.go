package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/citynav/citynav/internal/route"
)

type metrics struct {
	calculations metric.Int64Counter
	duration     metric.Float64Histogram
	returned     metric.Int64Histogram
	dropped      metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	calculations, err := meter.Int64Counter(
		"engine.route_calculations",
		metric.WithDescription("Number of route calculations"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"engine.route_calculation.duration",
		metric.WithDescription("Duration of route calculations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	returned, err := meter.Int64Histogram(
		"engine.routes_returned",
		metric.WithDescription("Routes returned per calculation"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"engine.routes_dropped",
		metric.WithDescription("Candidate routes dropped because a mode was unavailable"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		calculations: calculations,
		duration:     duration,
		returned:     returned,
		dropped:      dropped,
	}, nil
}

func (m *metrics) record(ctx context.Context, resp route.Response, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("city", string(resp.City)),
		attribute.String("band", string(resp.Band)),
		attribute.Bool("error", len(resp.Errors) > 0),
	)
	m.calculations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.returned.Record(ctx, int64(len(resp.Routes)), attrs)
}
