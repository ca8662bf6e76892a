package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/metrics"
)

// RequestContext puts a logger tagged with the request id into the request
// context.  It must run after echo's RequestID middleware.
func RequestContext(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			log := base.With(zap.String("request_id", rid))
			req := c.Request()
			c.SetRequest(req.WithContext(logging.ContextWithLogger(req.Context(), log)))
			return next(c)
		}
	}
}

// RequestLogger logs one line per finished request.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			switch {
			case v.Error != nil:
				base.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				base.Error("request", fields...)
			default:
				base.Info("request", fields...)
			}
			return nil
		},
	})
}

// Tracing starts a server span per request, continuing any W3C trace
// context the caller sent.
func Tracing(name string) echo.MiddlewareFunc {
	tracer := otel.Tracer(name)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			ctx, span := tracer.Start(parent, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", route),
					attribute.String("http.target", req.URL.Path),
					attribute.String("http.user_agent", req.UserAgent()),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))
			err := next(c)
			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", status))
			if err != nil || status >= 500 {
				span.SetStatus(codes.Error, strconv.Itoa(status))
			}
			return err
		}
	}
}

// HTTPMetrics records request counts and latency by route template.
func HTTPMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			m.ObserveHTTP(c.Request().Method, route, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
