package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xraph/logrelay/payload"
)

// DefaultRequestTimeout bounds an attempt when no timeout is configured.
const DefaultRequestTimeout = 10 * time.Second

const (
	userAgent = "logrelay/1.0"

	// maxResponseBody caps how much of a response is kept in Result.
	maxResponseBody = 1 << 10

	// maxDrain caps how much of the remaining body is discarded so the
	// connection can be reused.
	maxDrain = 64 << 10
)

// Sender posts messages to their webhook URL.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender whose requests time out after timeout.
// A non-positive timeout selects DefaultRequestTimeout.
func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Sender{client: &http.Client{Timeout: timeout}}
}

// NewSenderWithClient creates a sender that uses client for every request.
// A nil client means http.DefaultClient.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client}
}

// Send makes one delivery attempt. Failures that happen before the request
// leaves the process are marked Permanent.
func (s *Sender) Send(ctx context.Context, msg *payload.Message) Result {
	req, err := newRequest(ctx, msg)
	if err != nil {
		return Result{Error: err.Error(), Permanent: true}
	}

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // G704: URL is the configured webhook destination.
	res := Result{LatencyMs: int(time.Since(start).Milliseconds())}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	res.Response = string(body)
	if err != nil {
		res.Error = fmt.Sprintf("read response: %v", err)
		return res
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return res
}

func newRequest(ctx context.Context, msg *payload.Message) (*http.Request, error) {
	body, err := msg.Body()
	if err != nil {
		return nil, fmt.Errorf("encode message %s: %w", msg.ID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
