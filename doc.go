// Package logrelay forwards application log events to a Discord channel
// through an incoming webhook.
//
// logrelay is a library, not a service. Events are filtered and formatted on
// the calling goroutine, queued without blocking, and delivered in order by a
// single background worker with bounded retries. Logging never fails because
// of the webhook.
//
// Key features:
//   - slog.Handler front end with group and attribute support
//   - Regex filters on target, message and field keys, plus a level threshold
//   - Enclosing scope from an explicit context value or an OpenTelemetry span
//   - Size-bounded embeds with rune-safe truncation
//   - Ordered delivery with constant backoff and drain on shutdown
//   - Prometheus metrics and OpenTelemetry delivery spans
//
// Quick start:
//
//	f, err := logrelay.New(
//	    logrelay.WithAppName("billing"),
//	    logrelay.WithWebhookURL(os.Getenv("DISCORD_WEBHOOK_URL")),
//	    logrelay.WithMinLevel("warn"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Shutdown(context.Background())
//
//	logger := slog.New(f.Handler())
//	logger.Error("payment failed", logrelay.Target("billing::charge"), "invoice_id", "inv_01h...")
package logrelay
