package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitOtelSDK installs a global meter provider pushing metrics to the given
// OTLP/HTTP collector every pushInterval. The returned func flushes pending
// metrics and shuts the provider down.
func InitOtelSDK(
	ctx context.Context, otelCollectorEndpoint string, pushInterval time.Duration,
) (func(context.Context) error, error) {
	opts, err := exporterOptions(otelCollectorEndpoint)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp metric exporter: %w", err)
	}

	if pushInterval <= 0 {
		pushInterval = 10 * time.Second
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(pushInterval)),
		),
	)
	otel.SetMeterProvider(meterProvider)

	log.Infof("pushing metrics to %s every %s", otelCollectorEndpoint, pushInterval)

	return func(ctx context.Context) error {
		if err := meterProvider.ForceFlush(ctx); err != nil {
			log.WithError(err).Warn("failed to flush metrics")
		}
		return meterProvider.Shutdown(ctx)
	}, nil
}

// exporterOptions accepts either a bare host:port, assumed insecure, or a full
// http(s) url.
func exporterOptions(endpoint string) ([]otlpmetrichttp.Option, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("missing otel collector endpoint")
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		}, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(u.Host)}
	switch u.Scheme {
	case "http":
		opts = append(opts, otlpmetrichttp.WithInsecure())
	case "https":
	default:
		return nil, fmt.Errorf("unsupported otel collector scheme %q", u.Scheme)
	}
	if u.Path != "" && u.Path != "/" {
		opts = append(opts, otlpmetrichttp.WithURLPath(u.Path))
	}
	return opts, nil
}
