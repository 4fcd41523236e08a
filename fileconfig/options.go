package fileconfig

import (
	"fmt"
	"time"

	"github.com/xraph/logrelay"
	"github.com/xraph/logrelay/event"
	"github.com/xraph/logrelay/filter"
	"github.com/xraph/logrelay/payload"
)

// ToOptions converts the file settings into forwarder options. Empty values
// are skipped so the forwarder defaults apply.
func (c Config) ToOptions() ([]logrelay.Option, error) {
	var opts []logrelay.Option

	if c.AppName != "" {
		opts = append(opts, logrelay.WithAppName(c.AppName))
	}
	if c.WebhookURL != "" {
		opts = append(opts, logrelay.WithWebhookURL(c.WebhookURL))
	}
	if c.MinLevel != "" {
		opts = append(opts, logrelay.WithMinLevel(c.MinLevel))
	}
	if c.DefaultTarget != "" {
		opts = append(opts, logrelay.WithDefaultTarget(c.DefaultTarget))
	}
	if c.ThumbnailURL != "" {
		opts = append(opts, logrelay.WithThumbnailURL(c.ThumbnailURL))
	}
	if c.ValidatePayloads {
		opts = append(opts, logrelay.WithPayloadValidation(true))
	}

	if c.Layout != "" {
		layout, err := payload.ParseLayout(c.Layout)
		if err != nil {
			return nil, fmt.Errorf("fileconfig: %w", err)
		}
		opts = append(opts, logrelay.WithLayout(layout))
	}

	if c.Mention != "" {
		level := event.LevelError
		if c.MentionLevel != "" {
			l, err := event.ParseLevel(c.MentionLevel)
			if err != nil {
				return nil, fmt.Errorf("fileconfig: mention_level: %w", err)
			}
			level = l
		}
		opts = append(opts, logrelay.WithMention(c.Mention, level))
	}

	filterOpts, err := c.Filters.toOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, filterOpts...)

	deliveryOpts, err := c.Delivery.toOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, deliveryOpts...)

	return opts, nil
}

func (f FiltersConfig) toOptions() ([]logrelay.Option, error) {
	var opts []logrelay.Option

	groups := []struct {
		name  string
		rules []RuleConfig
		with  func(...filter.Rule) logrelay.Option
	}{
		{"target", f.Target, logrelay.WithTargetFilters},
		{"message", f.Message, logrelay.WithMessageFilters},
		{"field", f.Field, logrelay.WithFieldFilters},
	}
	for _, g := range groups {
		if len(g.rules) == 0 {
			continue
		}
		rules := make([]filter.Rule, 0, len(g.rules))
		for i, rc := range g.rules {
			p, err := filter.ParsePolarity(rc.Polarity)
			if err != nil {
				return nil, fmt.Errorf("fileconfig: filters.%s[%d]: %w", g.name, i, err)
			}
			rules = append(rules, filter.Rule{Polarity: p, Pattern: rc.Pattern})
		}
		opts = append(opts, g.with(rules...))
	}

	if len(f.ExcludeFields) > 0 {
		opts = append(opts, logrelay.WithFieldExclusions(f.ExcludeFields...))
	}
	return opts, nil
}

func (d DeliveryConfig) toOptions() ([]logrelay.Option, error) {
	var opts []logrelay.Option

	durations := []struct {
		name  string
		value string
		with  func(time.Duration) logrelay.Option
	}{
		{"request_timeout", d.RequestTimeout, logrelay.WithRequestTimeout},
		{"retry_backoff", d.RetryBackoff, logrelay.WithRetryBackoff},
		{"shutdown_timeout", d.ShutdownTimeout, logrelay.WithShutdownTimeout},
	}
	for _, dur := range durations {
		if dur.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(dur.value)
		if err != nil {
			return nil, fmt.Errorf("fileconfig: delivery.%s: %w", dur.name, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("fileconfig: delivery.%s must be non-negative", dur.name)
		}
		opts = append(opts, dur.with(parsed))
	}

	if d.MaxAttempts < 0 {
		return nil, fmt.Errorf("fileconfig: delivery.max_attempts must be non-negative")
	}
	if d.MaxAttempts > 0 {
		opts = append(opts, logrelay.WithMaxAttempts(d.MaxAttempts))
	}
	return opts, nil
}
