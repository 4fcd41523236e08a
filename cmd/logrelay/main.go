// Command logrelay forwards slog JSON log lines from files or stdin to a
// Discord webhook.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/xraph/logrelay"
	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/fileconfig"
	"github.com/xraph/logrelay/internal/jsonl"
	"github.com/xraph/logrelay/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	config     string
	webhookURL string
	app        string
	minLevel   string
	follow     bool
	validate   bool
	logLevel   string
	logFormat  string
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) int {
	var fl flags
	flagSet := pflag.NewFlagSet("logrelay", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&fl.config, "config", "", "path to a YAML or TOML config file")
	flagSet.StringVar(&fl.webhookURL, "webhook-url", "", "Discord webhook URL (default: $"+logrelay.EnvWebhookURL+")")
	flagSet.StringVar(&fl.app, "app", "", "application name shown in every message")
	flagSet.StringVar(&fl.minLevel, "min-level", "", "drop events below this level (trace, debug, info, warn, error, off)")
	flagSet.BoolVar(&fl.follow, "follow", false, "keep reading lines appended to the given files")
	flagSet.BoolVar(&fl.validate, "validate", false, "check every payload against the webhook schema before sending")
	flagSet.StringVar(&fl.logLevel, "log-level", "", "level of local diagnostics (debug, info, warn, error)")
	flagSet.StringVar(&fl.logFormat, "log-format", "", "format of local diagnostics (tint, text, json)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 1
	}
	files := flagSet.Args()

	var cfg fileconfig.Config
	if fl.config != "" {
		loaded, err := fileconfig.Load(fl.config)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if fl.logLevel != "" {
		cfg.Log.Level = fl.logLevel
	}
	if fl.logFormat != "" {
		cfg.Log.Format = fl.logFormat
	}

	logger, err := fileconfig.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	opts = append(opts, fl.options()...)
	metrics := observability.NewMetrics(nil)
	opts = append(opts, logrelay.WithLogger(logger), logrelay.WithMetrics(metrics))

	fwd, err := logrelay.New(opts...)
	if err != nil {
		logger.Error("cannot start forwarder", "error", err)
		return 1
	}

	defaultTarget := fwd.Config().DefaultTarget
	reader := jsonl.NewReader(func(evt *event.Event) {
		if evt.Target == "" {
			evt.Target = defaultTarget
		}
		fwd.Capture(ctx, evt)
	}, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, reader, files, fl.follow, stdin, logger)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Info("received signal, draining queued messages")
	}

	if err := fwd.Shutdown(context.Background()); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	logger.Info("forwarder stopped",
		"accepted", metrics.Events(observability.OutcomeAccepted),
		"filtered", metrics.Events(observability.OutcomeFiltered),
		"dropped", metrics.Events(observability.OutcomeDropped),
		"delivered", metrics.Deliveries(observability.StatusDelivered),
		"failed", metrics.Deliveries(observability.StatusFailed),
	)
	return 0
}

// options returns forwarder options for the flags that were set.
func (fl flags) options() []logrelay.Option {
	var opts []logrelay.Option
	if fl.webhookURL != "" {
		opts = append(opts, logrelay.WithWebhookURL(fl.webhookURL))
	}
	if fl.app != "" {
		opts = append(opts, logrelay.WithAppName(fl.app))
	}
	if fl.minLevel != "" {
		opts = append(opts, logrelay.WithMinLevel(fl.minLevel))
	}
	if fl.validate {
		opts = append(opts, logrelay.WithPayloadValidation(true))
	}
	return opts
}

func consume(ctx context.Context, reader *jsonl.Reader, files []string, follow bool, stdin io.Reader, logger *slog.Logger) {
	if len(files) == 0 {
		if err := reader.Read(ctx, stdin); err != nil {
			logger.Error("reading stdin failed", "error", err)
		}
		return
	}

	if follow {
		var wg sync.WaitGroup
		for _, path := range files {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := reader.Follow(ctx, path); err != nil {
					logger.Error("following file failed", "path", path, "error", err)
				}
			}()
		}
		wg.Wait()
		return
	}

	for _, path := range files {
		if err := readFile(ctx, reader, path); err != nil {
			logger.Error("reading file failed", "path", path, "error", err)
		}
	}
}

func readFile(ctx context.Context, reader *jsonl.Reader, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return reader.Read(ctx, f)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `logrelay forwards slog JSON log lines to a Discord webhook.

Lines are read from the given files, or from stdin when none are given.
Keys "time", "level", "msg" and "source" follow the slog JSON handler;
"target" or "logger" sets the target, every other key becomes a field.

Usage:
  logrelay [flags] [files...]

Examples:
  # Forward errors from a running service
  myservice 2>&1 | logrelay --app myservice --min-level error

  # Tail a log file with settings from a config file
  logrelay --config logrelay.yaml --follow /var/log/app.jsonl

Flags:
%s`, flagSet.FlagUsages())
}
