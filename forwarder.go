package logrelay

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/xraph/logrelay/delivery"
	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/filter"
	"github.com/xraph/logrelay/observability"
	"github.com/xraph/logrelay/payload"
	"github.com/xraph/logrelay/queue"
	"github.com/xraph/logrelay/scope"
)

// Forwarder filters, formats and forwards log events to a webhook.
type Forwarder struct {
	config    Config
	chain     *filter.Chain
	formatter *payload.Formatter
	worker    *delivery.Worker
	logger    *slog.Logger
}

// New validates the configuration, compiles the filters and starts the
// delivery worker. Call Shutdown to drain and stop it.
func New(opts ...Option) (*Forwarder, error) {
	f := &Forwarder{config: DefaultConfig()}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := f.wireServices(); err != nil {
		return nil, err
	}
	f.worker.Start()
	return f, nil
}

func (f *Forwarder) validate() error {
	cfg := &f.config
	if cfg.AppName == "" {
		return ErrMissingAppName
	}
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv(EnvWebhookURL)
	}
	if cfg.WebhookURL == "" {
		return ErrMissingWebhookURL
	}
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWebhookURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) url", ErrInvalidWebhookURL, cfg.WebhookURL)
	}
	if cfg.DefaultTarget == "" {
		cfg.DefaultTarget = cfg.AppName
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = delivery.DefaultRequestTimeout
	}
	return nil
}

// wireServices builds the filter chain, formatter and worker from the
// validated configuration.
func (f *Forwarder) wireServices() error {
	f.logger = f.config.Logger
	if f.logger == nil {
		f.logger = slog.Default()
	}

	chain, err := filter.New(filter.Config{
		Target:        f.config.TargetFilters,
		Message:       f.config.MessageFilters,
		FieldKey:      f.config.FieldFilters,
		ExcludeFields: f.config.FieldExclusions,
		MinLevel:      f.config.MinLevel,
	})
	if err != nil {
		return fmt.Errorf("logrelay: %w", err)
	}
	f.chain = chain

	f.formatter = payload.NewFormatter(payload.FormatterConfig{
		AppName:      f.config.AppName,
		WebhookURL:   f.config.WebhookURL,
		ThumbnailURL: f.config.ThumbnailURL,
		Layout:       f.config.Layout,
		Mention:      f.config.Mention,
		MentionLevel: f.config.MentionLevel,
		Chain:        chain,
	})

	var sender *delivery.Sender
	if client := f.config.HTTPClient; client != nil {
		if client.Timeout == 0 {
			bounded := *client
			bounded.Timeout = f.config.RequestTimeout
			client = &bounded
		}
		sender = delivery.NewSenderWithClient(client)
	}
	f.worker = delivery.NewWorker(queue.New[delivery.Item](), delivery.WorkerConfig{
		RequestTimeout:   f.config.RequestTimeout,
		MaxAttempts:      f.config.MaxAttempts,
		Backoff:          f.config.RetryBackoff,
		ValidatePayloads: f.config.ValidatePayloads,
		Sender:           sender,
		Metrics:          f.config.Metrics,
		Tracer:           f.config.Tracer,
	}, f.logger)
	return nil
}

// Config returns the effective configuration.
func (f *Forwarder) Config() Config {
	return f.config
}

// Enabled reports whether events at level pass the level threshold.
func (f *Forwarder) Enabled(level event.Level) bool {
	return f.chain.LevelEnabled(level)
}

// Capture filters and formats evt on the calling goroutine and queues the
// result for delivery. The enclosing scope is taken from ctx. It never
// blocks and never panics, and reports whether a message was queued.
func (f *Forwarder) Capture(ctx context.Context, evt *event.Event) (queued bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.ErrorContext(ctx, "capture panicked", "panic", r)
			queued = false
		}
	}()
	if evt == nil {
		return false
	}

	sc, _ := scope.FromContext(ctx)
	msg, _ := f.formatter.Format(evt, sc)
	if msg == nil {
		f.config.Metrics.RecordEvent(observability.OutcomeFiltered, 1)
		return false
	}

	if !f.worker.Enqueue(msg) {
		f.config.Metrics.RecordEvent(observability.OutcomeDropped, 1)
		f.logger.DebugContext(ctx, "forwarder stopped, event dropped", "message_id", msg.ID)
		return false
	}
	f.config.Metrics.RecordEvent(observability.OutcomeAccepted, 1)
	return true
}

// Shutdown stops accepting events once everything queued so far has been
// delivered, and waits for the worker to finish. Without a context deadline
// the wait is bounded by Config.ShutdownTimeout. Calling Shutdown again after
// it has completed returns delivery.ErrWorkerStopped.
func (f *Forwarder) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && f.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.ShutdownTimeout)
		defer cancel()
	}
	return f.worker.Shutdown(ctx)
}

// Done is closed once the worker has stopped.
func (f *Forwarder) Done() <-chan struct{} {
	return f.worker.Done()
}
