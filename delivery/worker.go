package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/logrelay/observability"
	"github.com/xraph/logrelay/payload"
	"github.com/xraph/logrelay/queue"
)

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	RequestTimeout   time.Duration
	MaxAttempts      int
	Backoff          time.Duration
	ValidatePayloads bool

	// Sender overrides the HTTP sender built from RequestTimeout.
	Sender *Sender

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Worker is the single consumer of a delivery queue. Messages are sent one
// at a time in queue order.
type Worker struct {
	queue   *queue.Queue[Item]
	sender  *Sender
	retrier *Retrier
	config  WorkerConfig
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	done  chan struct{}
}

// NewWorker creates a worker consuming q.
func NewWorker(q *queue.Queue[Item], cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	sender := cfg.Sender
	if sender == nil {
		sender = NewSender(cfg.RequestTimeout)
	}
	return &Worker{
		queue:   q,
		sender:  sender,
		retrier: NewRetrier(cfg.MaxAttempts, cfg.Backoff),
		config:  cfg,
		logger:  logger,
		state:   StateIdle,
		done:    make(chan struct{}),
	}
}

// Start spawns the consumer goroutine. Only the first call has an effect.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle {
		return
	}
	w.state = StateRunning
	go w.run()
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Enqueue adds msg to the queue. It returns false once the queue is closed.
func (w *Worker) Enqueue(msg *payload.Message) bool {
	if !w.queue.Push(Deliver(msg)) {
		return false
	}
	w.config.Metrics.SetQueueDepth(w.queue.Len())
	return true
}

// Done is closed when the worker has stopped.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Shutdown asks the worker to stop after delivering everything queued so
// far and waits until it has. If ctx ends first, ctx's error is returned and
// the worker keeps draining in the background. Concurrent calls wait for the
// same completion.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case StateIdle:
		w.mu.Unlock()
		return ErrWorkerNotStarted
	case StateStopped:
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "shutdown called on stopped worker")
		return ErrWorkerStopped
	case StateRunning:
		w.state = StateDraining
		w.queue.Push(Item{stop: true})
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	ctx := context.Background()
	for {
		it, ok := w.queue.Pop(ctx)
		if !ok || it.stop {
			break
		}
		w.config.Metrics.SetQueueDepth(w.queue.Len())
		w.deliver(ctx, it.Message)
	}

	discarded := 0
	for _, it := range w.queue.Close() {
		if !it.stop {
			discarded++
		}
	}
	if discarded > 0 {
		w.config.Metrics.RecordEvent(observability.OutcomeDropped, discarded)
		w.logger.WarnContext(ctx, "discarded messages queued after shutdown", "count", discarded)
	}
	w.config.Metrics.SetQueueDepth(0)

	w.mu.Lock()
	w.state = StateStopped
	w.mu.Unlock()
	close(w.done)
}

// deliver sends one message, retrying transport failures.
func (w *Worker) deliver(ctx context.Context, msg *payload.Message) {
	msgID := msg.ID.String()
	ctx, span := w.config.Tracer.StartDeliverySpan(ctx, msgID)

	if w.config.ValidatePayloads {
		if err := w.validate(msg); err != nil {
			w.config.Metrics.RecordDelivery(observability.StatusInvalid, 0)
			w.logger.ErrorContext(ctx, "dropping invalid message",
				"message_id", msgID, "error", err)
			w.config.Tracer.EndDeliverySpan(span, 0, 0, err.Error())
			return
		}
	}

	for attempt := 1; ; attempt++ {
		res := w.sender.Send(ctx, msg)
		latencySeconds := float64(res.LatencyMs) / 1000.0

		switch w.retrier.Decide(res, attempt) {
		case Delivered:
			w.config.Metrics.RecordDelivery(observability.StatusDelivered, latencySeconds)
			errMsg := ""
			if !res.OK() {
				errMsg = res.Response
				w.logger.WarnContext(ctx, "webhook rejected message",
					"message_id", msgID, "status", res.StatusCode, "response", res.Response)
			} else {
				w.logger.DebugContext(ctx, "delivered",
					"message_id", msgID, "status", res.StatusCode, "latency_ms", res.LatencyMs)
			}
			w.config.Tracer.EndDeliverySpan(span, attempt, res.StatusCode, errMsg)
			return

		case Retry:
			w.config.Metrics.RecordDelivery(observability.StatusRetried, latencySeconds)
			w.logger.DebugContext(ctx, "retrying delivery",
				"message_id", msgID, "attempt", attempt, "error", res.Error)
			_ = w.retrier.Wait(ctx)

		case Drop:
			w.config.Metrics.RecordDelivery(observability.StatusFailed, latencySeconds)
			w.logger.ErrorContext(ctx, "delivery failed, dropping message",
				"message_id", msgID, "attempts", attempt, "error", res.Error)
			w.config.Tracer.EndDeliverySpan(span, attempt, 0, res.Error)
			return
		}
	}
}

func (w *Worker) validate(msg *payload.Message) error {
	body, err := msg.Body()
	if err != nil {
		return err
	}
	return payload.Validate(body)
}
