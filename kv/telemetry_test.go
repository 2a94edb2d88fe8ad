package kv_test

import (
	"testing"

	"github.com/dogmatiq/mapkit/driver/memory/memorykv"
	. "github.com/dogmatiq/mapkit/kv"
	lognoop "go.opentelemetry.io/otel/log/noop"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestWithTelemetry(t *testing.T) {
	kv := WithTelemetry(
		&memorykv.Store{},
		tracenoop.NewTracerProvider(),
		metricnoop.NewMeterProvider(),
		lognoop.NewLoggerProvider(),
	)

	RunTests(t, kv)
}
