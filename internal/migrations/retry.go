package migrations

import (
	"context"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/go-logr/logr"
	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/metrics"
	"github.com/openshift/kibana-migrator/internal/migrations/actions"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"
)

// Retrier invokes actions until they resolve to something other than a
// retryable Left or the attempt budget is spent.
type Retrier struct {
	log      logr.Logger
	clock    clock.Clock
	backoff  wait.Backoff
	attempts int
}

type RetrierOption func(*Retrier)

func WithClock(c clock.Clock) RetrierOption {
	return func(r *Retrier) {
		r.clock = c
	}
}

// WithBackoff sets the delay before the first retry, the cap of the delay
// and the total number of attempts.
func WithBackoff(initial, maxDelay time.Duration, attempts int) RetrierOption {
	return func(r *Retrier) {
		r.backoff = newBackoff(initial, maxDelay, attempts)
		r.attempts = attempts
	}
}

func NewRetrier(log logr.Logger, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		log:      log,
		clock:    clock.RealClock{},
		backoff:  newBackoff(constants.DefaultRetryDelay, constants.DefaultMaxRetryDelay, constants.DefaultRetryAttempts),
		attempts: constants.DefaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.attempts < 1 {
		r.attempts = 1
	}
	return r
}

func newBackoff(initial, maxDelay time.Duration, attempts int) wait.Backoff {
	return wait.Backoff{
		Duration: initial,
		Factor:   2,
		Cap:      maxDelay,
		Steps:    attempts,
	}
}

// Retry invokes task as the named action against index. Fatal errors are
// returned unmodified on first occurrence. Lefts that are not retryable are
// returned to the caller. A retryable Left that persists after the last
// attempt becomes a fatal error.
func Retry[L actions.Failure, R any](ctx context.Context, r *Retrier, action, index string, task actions.TaskEither[L, R]) (actions.Either[L, R], error) {
	var zero actions.Either[L, R]
	backoff := r.backoff
	log := r.log.WithValues("action", action, "index", index)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, kverrors.Wrap(err, "migration aborted",
				"action", action,
				"index", index,
				"attempt", attempt)
		}

		start := r.clock.Now()
		res, err := task(ctx)
		elapsed := r.clock.Since(start)

		if err != nil {
			metrics.ObserveAction(action, metrics.LabelFatal, elapsed)
			log.Error(err, "action failed", "attempt", attempt)
			return zero, err
		}

		left, isLeft := res.GetLeft()
		if !isLeft {
			metrics.ObserveAction(action, metrics.LabelSuccess, elapsed)
			log.V(1).Info("action succeeded", "attempt", attempt)
			return res, nil
		}

		if !actions.IsRetryable(left) {
			metrics.ObserveAction(action, metrics.LabelFailure, elapsed)
			log.V(1).Info("action resolved to a failure", "attempt", attempt, "failure", left.String())
			return res, nil
		}

		metrics.ObserveAction(action, metrics.LabelRetryable, elapsed)
		if attempt >= r.attempts {
			metrics.IncrementRetriesExhausted(action)
			return zero, kverrors.New("unable to complete action, retries exhausted",
				"action", action,
				"index", index,
				"attempts", attempt,
				"reason", left.String())
		}

		delay := backoff.Step()
		log.Info("retrying action", "attempt", attempt, "delay", delay.String(), "reason", left.String())

		select {
		case <-ctx.Done():
			return zero, kverrors.Wrap(ctx.Err(), "migration aborted",
				"action", action,
				"index", index,
				"attempt", attempt)
		case <-r.clock.After(delay):
		}
	}
}
