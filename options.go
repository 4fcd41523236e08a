package logrelay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/filter"
	"github.com/xraph/logrelay/observability"
	"github.com/xraph/logrelay/payload"
)

// Option configures a Forwarder.
type Option func(*Forwarder) error

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(f *Forwarder) error {
		f.config = cfg
		return nil
	}
}

// WithAppName sets the application name shown in every embed.
func WithAppName(name string) Option {
	return func(f *Forwarder) error {
		f.config.AppName = name
		return nil
	}
}

// WithWebhookURL sets the webhook destination.
func WithWebhookURL(url string) Option {
	return func(f *Forwarder) error {
		f.config.WebhookURL = url
		return nil
	}
}

// WithTargetFilters appends rules matched against the event target.
func WithTargetFilters(rules ...filter.Rule) Option {
	return func(f *Forwarder) error {
		f.config.TargetFilters = append(f.config.TargetFilters, rules...)
		return nil
	}
}

// WithMessageFilters appends rules matched against the event heading.
func WithMessageFilters(rules ...filter.Rule) Option {
	return func(f *Forwarder) error {
		f.config.MessageFilters = append(f.config.MessageFilters, rules...)
		return nil
	}
}

// WithFieldFilters appends rules matched against every field key.
func WithFieldFilters(rules ...filter.Rule) Option {
	return func(f *Forwarder) error {
		f.config.FieldFilters = append(f.config.FieldFilters, rules...)
		return nil
	}
}

// WithFieldExclusions hides fields whose key matches any pattern.
func WithFieldExclusions(patterns ...string) Option {
	return func(f *Forwarder) error {
		f.config.FieldExclusions = append(f.config.FieldExclusions, patterns...)
		return nil
	}
}

// WithMinLevel sets the level threshold ("trace" through "error", or "off").
func WithMinLevel(level string) Option {
	return func(f *Forwarder) error {
		f.config.MinLevel = level
		return nil
	}
}

// WithDefaultTarget sets the target used for records that carry none.
func WithDefaultTarget(target string) Option {
	return func(f *Forwarder) error {
		f.config.DefaultTarget = target
		return nil
	}
}

// WithThumbnailURL sets the image shown on every embed.
func WithThumbnailURL(url string) Option {
	return func(f *Forwarder) error {
		f.config.ThumbnailURL = url
		return nil
	}
}

// WithLayout selects the field layout.
func WithLayout(layout payload.Layout) Option {
	return func(f *Forwarder) error {
		f.config.Layout = layout
		return nil
	}
}

// WithMention adds content such as "@here" to events at level or above.
func WithMention(mention string, level event.Level) Option {
	return func(f *Forwarder) error {
		f.config.Mention = mention
		f.config.MentionLevel = level
		return nil
	}
}

// WithRequestTimeout sets the HTTP timeout per delivery attempt. Zero keeps
// the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(f *Forwarder) error {
		f.config.RequestTimeout = d
		return nil
	}
}

// WithMaxAttempts sets the number of attempts per message.
func WithMaxAttempts(n int) Option {
	return func(f *Forwarder) error {
		f.config.MaxAttempts = n
		return nil
	}
}

// WithRetryBackoff sets the pause between attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(f *Forwarder) error {
		f.config.RetryBackoff = d
		return nil
	}
}

// WithShutdownTimeout sets the maximum time to wait for the queue to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(f *Forwarder) error {
		f.config.ShutdownTimeout = d
		return nil
	}
}

// WithPayloadValidation enables schema checks before each send.
func WithPayloadValidation(enabled bool) Option {
	return func(f *Forwarder) error {
		f.config.ValidatePayloads = enabled
		return nil
	}
}

// WithHTTPClient sets the client used for webhook requests. A client
// without a Timeout gets RequestTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) error {
		f.config.HTTPClient = c
		return nil
	}
}

// WithLogger sets the logger for the forwarder's own diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) error {
		f.config.Logger = logger
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Forwarder) error {
		f.config.Metrics = m
		return nil
	}
}

// WithTracer enables OpenTelemetry delivery spans.
func WithTracer(t *observability.Tracer) Option {
	return func(f *Forwarder) error {
		f.config.Tracer = t
		return nil
	}
}
