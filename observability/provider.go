package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/pulse/component"
	"github.com/kbukum/pulse/logger"
)

// Providers holds the SDK providers installed by Setup.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Setup installs tracer and meter providers when cfg.Enabled. With export
// disabled it returns empty Providers and the global no-op providers remain.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		return &Providers{}, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp, err := InitTracer(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return &Providers{Tracer: tp, Meter: mp}, nil
}

// Shutdown flushes and stops any installed providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
}

// Component manages telemetry providers as part of a binary's lifecycle.
type Component struct {
	cfg       Config
	log       *logger.Logger
	providers *Providers
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a telemetry component for cfg.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent("telemetry")}
}

func (c *Component) Name() string { return "telemetry" }

func (c *Component) Start(ctx context.Context) error {
	p, err := Setup(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.providers = p
	if c.cfg.Enabled {
		c.log.Info("telemetry export enabled", logger.Fields(
			"endpoint", c.cfg.Endpoint,
			"sample_rate", c.cfg.SampleRate,
		))
	}
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.providers == nil {
		return nil
	}
	return c.providers.Shutdown(ctx)
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "export disabled"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	if !c.cfg.Enabled {
		return component.Description{Type: "telemetry", Details: "disabled"}
	}
	return component.Description{Type: "telemetry", Details: "otlp=" + c.cfg.Endpoint}
}
