// Package delivery ships formatted messages to their webhook in order, with
// bounded retries, on a single background worker.
package delivery

import (
	"errors"

	"github.com/xraph/logrelay/payload"
)

var (
	// ErrWorkerStopped is returned by Shutdown once the worker has stopped.
	ErrWorkerStopped = errors.New("delivery: worker already stopped")

	// ErrWorkerNotStarted is returned by Shutdown before Start.
	ErrWorkerNotStarted = errors.New("delivery: worker not started")
)

// State is the lifecycle state of a Worker.
type State string

const (
	// StateIdle indicates the worker has not been started.
	StateIdle State = "idle"

	// StateRunning indicates the worker is consuming the queue.
	StateRunning State = "running"

	// StateDraining indicates shutdown was requested; queued messages are
	// still being delivered.
	StateDraining State = "draining"

	// StateStopped indicates the worker has exited.
	StateStopped State = "stopped"
)

// Item is one entry of the delivery queue: either a message or the shutdown
// marker.
type Item struct {
	Message *payload.Message

	stop bool
}

// Deliver wraps msg as a queue item.
func Deliver(msg *payload.Message) Item {
	return Item{Message: msg}
}
