package tasks

import (
	"errors"
	"fmt"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// ErrQueueFull reports back-pressure: the shard stayed full for EnqueueTimeout.
var ErrQueueFull = errors.New("task queue full")

// ErrQueueClosed reports that Stop has been called.
var ErrQueueClosed = errors.New("task queue closed")

var errPanic = errors.New("task panicked")

// QueueFullError carries diagnostics while satisfying errors.Is(_, ErrQueueFull).
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("task shard %d full (len=%d cap=%d)", e.Shard, e.Length, e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

// Permanent marks err as not worth retrying.
func Permanent(err error) error { return backoff.Permanent(err) }

// isPermanent reports whether a job error should skip retries. Validation
// failures never succeed on retry.
func isPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm) || model.IsValidationError(err)
}
