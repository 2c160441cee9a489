// Package telemetry exports traces and metrics of scheduler runs with OpenTelemetry.
package telemetry

import (
	"fmt"
	"strings"
)

// Options configures the trace and metric exporters.
type Options struct {
	// TraceExporter is one of none, console, otlpHttp, otlpGrpc or http.
	TraceExporter string
	// TraceExporterHTTPEndpoint is required by the http trace exporter.
	TraceExporterHTTPEndpoint string
	// TraceParent continues an existing trace, in the W3C `00-<trace id>-<span id>-<flags>` form.
	TraceParent string
	// MetricExporter is one of none, console, otlpHttp or grpcHttp.
	MetricExporter string

	TraceExporterInsecureEndpoint  bool
	MetricExporterInsecureEndpoint bool
}

// ErrorMissingEnvVariable is returned when an exporter lacks a required setting.
type ErrorMissingEnvVariable struct {
	Vars []string
}

func (err *ErrorMissingEnvVariable) Error() string {
	return fmt.Sprintf("missing environment variable(s): %s", strings.Join(err.Vars, ", "))
}

// UnknownExporterError is returned for an unsupported exporter name.
type UnknownExporterError struct {
	Kind string
	Name string
}

func (err UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown %s exporter %q", err.Kind, err.Name)
}
