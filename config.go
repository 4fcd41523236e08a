package logrelay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/logrelay/delivery"
	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/filter"
	"github.com/xraph/logrelay/observability"
	"github.com/xraph/logrelay/payload"
)

// EnvWebhookURL is read when no webhook URL is configured explicitly.
const EnvWebhookURL = "DISCORD_WEBHOOK_URL"

// Config holds the configuration for a Forwarder.
type Config struct {
	// AppName titles every embed and is its footer. Required.
	AppName string

	// WebhookURL is the destination. Defaults to $DISCORD_WEBHOOK_URL.
	WebhookURL string

	// TargetFilters, MessageFilters and FieldFilters are regex rules applied
	// to the event target, the heading text and each field key.
	TargetFilters  []filter.Rule
	MessageFilters []filter.Rule
	FieldFilters   []filter.Rule

	// FieldExclusions are patterns of field keys that are never displayed.
	FieldExclusions []string

	// MinLevel drops events below it. Empty forwards everything, "off"
	// forwards nothing.
	MinLevel string

	// DefaultTarget is used for records without a target attribute.
	// Defaults to AppName.
	DefaultTarget string

	// ThumbnailURL, when set, is shown on every embed.
	ThumbnailURL string

	// Layout selects how fields are rendered.
	Layout payload.Layout

	// Mention is sent as message content for events at MentionLevel or above.
	Mention      string
	MentionLevel event.Level

	// RequestTimeout bounds each HTTP attempt. Non-positive values select
	// the 10s default.
	RequestTimeout time.Duration

	// MaxAttempts and RetryBackoff define the constant retry policy for
	// transport failures.
	MaxAttempts  int
	RetryBackoff time.Duration

	// ShutdownTimeout bounds Shutdown when its context has no deadline.
	ShutdownTimeout time.Duration

	// ValidatePayloads checks each body against the webhook schema before
	// sending.
	ValidatePayloads bool

	// Logger receives the forwarder's own diagnostics. It must not write to
	// the forwarder's handler.
	Logger *slog.Logger

	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	// HTTPClient replaces the default client. Its own Timeout wins when set;
	// a zero Timeout is replaced by RequestTimeout on a copy of the client.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MentionLevel:    event.LevelError,
		RequestTimeout:  delivery.DefaultRequestTimeout,
		MaxAttempts:     delivery.DefaultMaxAttempts,
		RetryBackoff:    delivery.DefaultBackoff,
		ShutdownTimeout: 30 * time.Second,
	}
}
