package logrelay

import "errors"

// Sentinel errors returned by New.
var (
	// ErrMissingAppName is returned when no application name is configured.
	ErrMissingAppName = errors.New("logrelay: app name is required")

	// ErrMissingWebhookURL is returned when no webhook URL is configured and
	// the environment variable is unset.
	ErrMissingWebhookURL = errors.New("logrelay: webhook url is required")

	// ErrInvalidWebhookURL is returned when the webhook URL is not an
	// absolute http or https URL.
	ErrInvalidWebhookURL = errors.New("logrelay: invalid webhook url")
)
