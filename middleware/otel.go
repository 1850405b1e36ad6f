package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// OTelConfig configures the tracing middleware. Zero values fall back to the
// global tracer provider and propagator.
type OTelConfig struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator
	// ServiceName names the tracer and is recorded as service.name.
	ServiceName string
	// RecordDuration adds http.server.duration_ms to the span.
	RecordDuration bool
	// Filter skips tracing for requests it returns true for.
	Filter func(ctx.Ctx) bool
	// SpanName overrides the "METHOD route" span name when non-empty.
	SpanName        func(ctx.Ctx) string
	Attributes      func(ctx.Ctx) []attribute.KeyValue
	ExtraAttributes []attribute.KeyValue
	// Status maps the response status and handler error to a span status.
	Status func(code int, err error) (codes.Code, string)
}

// OTel traces requests with the global tracer under service name.
func OTel(serviceName string) app.Middleware {
	return OTelWithConfig(OTelConfig{ServiceName: serviceName})
}

// OTelWithConfig traces each request as a server span. Incoming trace
// context is extracted from the headers. Redirect signals are recorded with
// their status and location.
func OTelWithConfig(cfg OTelConfig) app.Middleware {
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(cfg.ServiceName)
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.Status == nil {
		cfg.Status = defaultSpanStatus
	}

	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			if cfg.Filter != nil && cfg.Filter(c) {
				return next(c)
			}

			r := c.Request()
			parent := cfg.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			name := ""
			if cfg.SpanName != nil {
				name = cfg.SpanName(c)
			}
			if name == "" {
				name = c.Method() + " " + c.Route()
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", c.Method()),
				attribute.String("http.route", c.Route()),
				attribute.String("url.path", c.Path()),
				attribute.String("user_agent.original", r.UserAgent()),
			}
			if cfg.ServiceName != "" {
				attrs = append(attrs, attribute.String("service.name", cfg.ServiceName))
			}
			if cfg.Attributes != nil {
				attrs = append(attrs, cfg.Attributes(c)...)
			}
			attrs = append(attrs, cfg.ExtraAttributes...)

			spanCtx, span := cfg.Tracer.Start(parent, name,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()
			c.SetRequest(r.WithContext(spanCtx))

			start := time.Now()
			err := next(c)

			code, spanErr := c.StatusCode(), err
			var sig redirectSignal
			if errors.As(err, &sig) && !c.WroteHeader() {
				code, spanErr = sig.StatusCode(), nil
				span.SetAttributes(attribute.String("http.response.header.location", sig.Location()))
			}
			if code == 0 {
				if spanErr != nil {
					code = http.StatusInternalServerError
				} else {
					code = http.StatusOK
				}
			}
			span.SetAttributes(attribute.Int("http.response.status_code", code))
			if cfg.RecordDuration {
				span.SetAttributes(attribute.Float64("http.server.duration_ms", float64(time.Since(start).Microseconds())/1000.0))
			}
			if spanErr != nil {
				span.RecordError(spanErr)
			}
			sc, desc := cfg.Status(code, spanErr)
			span.SetStatus(sc, desc)
			return err
		}
	}
}

func defaultSpanStatus(code int, err error) (codes.Code, string) {
	if err != nil || code >= http.StatusInternalServerError {
		return codes.Error, http.StatusText(code)
	}
	return codes.Unset, ""
}
