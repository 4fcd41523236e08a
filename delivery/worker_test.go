package delivery_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/logrelay/delivery"
	"github.com/xraph/logrelay/observability"
	"github.com/xraph/logrelay/payload"
	"github.com/xraph/logrelay/queue"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWorker(t *testing.T, cfg delivery.WorkerConfig) *delivery.Worker {
	t.Helper()
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	w := delivery.NewWorker(queue.New[delivery.Item](), cfg, quietLogger())
	w.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.Shutdown(ctx)
	})
	return w
}

func shutdown(t *testing.T, w *delivery.Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

// countingTransport fails every request and records when it was attempted.
type countingTransport struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.times = append(c.times, time.Now())
	c.mu.Unlock()
	return nil, errors.New("connection refused")
}

func gatherCounter(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestWorkerDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Embeds []struct {
				Description string `json:"description"`
			} `json:"embeds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		got = append(got, body.Embeds[0].Description)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := startWorker(t, delivery.WorkerConfig{})
	for i := range 20 {
		if !w.Enqueue(newTestMessage(srv.URL, fmt.Sprintf("m%02d", i))) {
			t.Fatalf("enqueue %d rejected", i)
		}
	}
	shutdown(t, w)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 20 {
		t.Fatalf("expected 20 deliveries, got %d", len(got))
	}
	for i, d := range got {
		if want := fmt.Sprintf("m%02d", i); d != want {
			t.Fatalf("delivery %d: got %q, want %q", i, d, want)
		}
	}
}

func TestWorkerRetriesDeadEndpoint(t *testing.T) {
	transport := &countingTransport{}
	w := startWorker(t, delivery.WorkerConfig{
		MaxAttempts: 10,
		Backoff:     100 * time.Millisecond,
		Sender:      delivery.NewSenderWithClient(&http.Client{Transport: transport}),
	})

	w.Enqueue(newTestMessage("http://127.0.0.1:1/webhook", "lost"))
	shutdown(t, w)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.times) != 10 {
		t.Fatalf("expected 10 attempts, got %d", len(transport.times))
	}
	for i := 1; i < len(transport.times); i++ {
		gap := transport.times[i].Sub(transport.times[i-1])
		if gap < 90*time.Millisecond {
			t.Fatalf("attempt %d came %v after the previous one", i+1, gap)
		}
	}
}

func TestWorkerDoesNotRetryHTTPErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := startWorker(t, delivery.WorkerConfig{Backoff: time.Millisecond})
	w.Enqueue(newTestMessage(srv.URL, "boom"))
	shutdown(t, w)

	if n := hits.Load(); n != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", n)
	}
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(20 * time.Millisecond)
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := startWorker(t, delivery.WorkerConfig{})
	for i := range 3 {
		w.Enqueue(newTestMessage(srv.URL, fmt.Sprint(i)))
	}
	shutdown(t, w)

	if n := hits.Load(); n != 3 {
		t.Fatalf("expected 3 attempts before shutdown returned, got %d", n)
	}
	if w.State() != delivery.StateStopped {
		t.Fatalf("expected stopped, got %s", w.State())
	}
	if w.Enqueue(newTestMessage(srv.URL, "late")) {
		t.Fatal("enqueue after stop should be rejected")
	}
}

func TestWorkerDiscardsItemsAfterMarker(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	w := startWorker(t, delivery.WorkerConfig{Metrics: observability.NewMetrics(nil, observability.WithRegistry(reg))})
	w.Enqueue(newTestMessage(srv.URL, "first"))

	// Wait until the first message is in flight.
	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for first delivery")
		}
		time.Sleep(5 * time.Millisecond)
	}

	errc := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errc <- w.Shutdown(ctx)
	}()
	for w.State() != delivery.StateDraining {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for draining state")
		}
		time.Sleep(time.Millisecond)
	}

	if !w.Enqueue(newTestMessage(srv.URL, "late")) {
		t.Fatal("queue should stay open until the marker is reached")
	}
	close(release)

	if err := <-errc; err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected only the first message delivered, got %d", n)
	}
	if n := gatherCounter(t, reg, "logrelay_events_total", "outcome", "dropped"); n != 1 {
		t.Fatalf("expected 1 dropped message, got %v", n)
	}
}

func TestWorkerShutdownStates(t *testing.T) {
	idle := delivery.NewWorker(queue.New[delivery.Item](), delivery.WorkerConfig{}, quietLogger())
	if err := idle.Shutdown(context.Background()); !errors.Is(err, delivery.ErrWorkerNotStarted) {
		t.Fatalf("expected ErrWorkerNotStarted, got %v", err)
	}

	w := startWorker(t, delivery.WorkerConfig{})
	if w.State() != delivery.StateRunning {
		t.Fatalf("expected running, got %s", w.State())
	}
	shutdown(t, w)
	if err := w.Shutdown(context.Background()); !errors.Is(err, delivery.ErrWorkerStopped) {
		t.Fatalf("expected ErrWorkerStopped, got %v", err)
	}
}

func TestWorkerShutdownTimeoutKeepsDraining(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := startWorker(t, delivery.WorkerConfig{})
	w.Enqueue(newTestMessage(srv.URL, "slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if w.State() != delivery.StateDraining {
		t.Fatalf("expected draining, got %s", w.State())
	}

	close(release)
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish draining")
	}
	if hits.Load() != 1 {
		t.Fatal("in-flight message should still be delivered")
	}
}

func TestWorkerDropsInvalidPayloads(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	w := startWorker(t, delivery.WorkerConfig{
		ValidatePayloads: true,
		Metrics:          observability.NewMetrics(nil, observability.WithRegistry(reg)),
	})

	bad := newTestMessage(srv.URL, "too many fields")
	for range 30 {
		bad.Embeds[0].Fields = append(bad.Embeds[0].Fields, payload.Field{Name: "n", Value: "v"})
	}
	w.Enqueue(bad)
	w.Enqueue(newTestMessage(srv.URL, "fine"))
	shutdown(t, w)

	if n := hits.Load(); n != 1 {
		t.Fatalf("expected only the valid message sent, got %d", n)
	}
	if n := gatherCounter(t, reg, "logrelay_deliveries_total", "status", "invalid"); n != 1 {
		t.Fatalf("expected 1 invalid delivery, got %v", n)
	}
}
