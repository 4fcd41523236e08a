package delivery_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/logrelay/delivery"
)

func TestRetrierDecide(t *testing.T) {
	retrier := delivery.NewRetrier(10, 100*time.Millisecond)

	tests := []struct {
		name    string
		result  delivery.Result
		attempt int
		want    delivery.Decision
	}{
		{"200 OK → Delivered", delivery.Result{StatusCode: 200}, 1, delivery.Delivered},
		{"204 No Content → Delivered", delivery.Result{StatusCode: 204}, 1, delivery.Delivered},
		{"400 Bad Request → Delivered", delivery.Result{StatusCode: 400}, 1, delivery.Delivered},
		{"429 Too Many Requests → Delivered", delivery.Result{StatusCode: 429}, 3, delivery.Delivered},
		{"500 Internal Server Error → Delivered", delivery.Result{StatusCode: 500}, 1, delivery.Delivered},
		{"transport error → Retry", delivery.Result{Error: "connection refused"}, 1, delivery.Retry},
		{"transport error at 9 → Retry", delivery.Result{Error: "timeout"}, 9, delivery.Retry},
		{"transport error at 10 → Drop", delivery.Result{Error: "timeout"}, 10, delivery.Drop},
		{"permanent failure → Drop", delivery.Result{Error: "bad url", Permanent: true}, 1, delivery.Drop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retrier.Decide(tt.result, tt.attempt); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetrierDefaults(t *testing.T) {
	r := delivery.NewRetrier(0, -1)
	if r.MaxAttempts != delivery.DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", delivery.DefaultMaxAttempts, r.MaxAttempts)
	}
	if r.Backoff != delivery.DefaultBackoff {
		t.Fatalf("expected %v backoff, got %v", delivery.DefaultBackoff, r.Backoff)
	}
}

func TestRetrierWait(t *testing.T) {
	r := delivery.NewRetrier(10, 50*time.Millisecond)

	start := time.Now()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("wait returned after %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
