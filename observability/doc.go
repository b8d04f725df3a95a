// Package observability sets up OpenTelemetry tracing and metrics export.
//
//	providers, err := observability.Setup(ctx, cfg)
//	defer providers.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStreamDial)
//	defer span.End()
//
// Binaries normally register NewComponent with a component.Registry instead
// of calling Setup directly.
package observability
