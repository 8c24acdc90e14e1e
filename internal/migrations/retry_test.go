package migrations

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"k8s.io/utils/clock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/openshift/kibana-migrator/internal/metrics"
	"github.com/openshift/kibana-migrator/internal/migrations/actions"
)

// recordingClock fires every After immediately and remembers the delay.
type recordingClock struct {
	clock.RealClock

	mu     sync.Mutex
	delays []time.Duration
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *recordingClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

type fakeTask struct {
	invocations int
	results     []func() (actions.Either[actions.Failure, string], error)
}

func (t *fakeTask) run(context.Context) (actions.Either[actions.Failure, string], error) {
	i := t.invocations
	if i >= len(t.results) {
		i = len(t.results) - 1
	}
	t.invocations++
	return t.results[i]()
}

func retryable() (actions.Either[actions.Failure, string], error) {
	return actions.Left[actions.Failure, string](actions.RetryableEsClientError{Message: "cluster unavailable"}), nil
}

func succeeded() (actions.Either[actions.Failure, string], error) {
	return actions.Right[actions.Failure]("succeeded"), nil
}

var _ = Describe("Retrier", func() {
	defer GinkgoRecover()

	var (
		clk     *recordingClock
		retrier *Retrier
		ctx     context.Context
	)

	BeforeEach(func() {
		clk = &recordingClock{}
		retrier = NewRetrier(logr.Discard(), WithClock(clk))
		ctx = context.Background()
	})

	It("should return the first success", func() {
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){retryable, retryable, succeeded}}
		before := testutil.ToFloat64(metrics.ActionCount("retry_success", metrics.LabelRetryable))

		res, err := Retry(ctx, retrier, "retry_success", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).ToNot(HaveOccurred())

		right, ok := res.GetRight()
		Expect(ok).To(BeTrue())
		Expect(right).To(Equal("succeeded"))
		Expect(task.invocations).To(Equal(3))
		Expect(clk.Delays()).To(Equal([]time.Duration{time.Second, 2 * time.Second}))

		Expect(testutil.ToFloat64(metrics.ActionCount("retry_success", metrics.LabelRetryable)) - before).To(Equal(2.0))
		Expect(testutil.ToFloat64(metrics.ActionCount("retry_success", metrics.LabelSuccess))).To(BeNumerically(">=", 1))
	})

	It("should back off exponentially up to the cap and give up after the last attempt", func() {
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){retryable}}
		before := testutil.ToFloat64(metrics.RetriesExhausted("retry_exhausted"))

		_, err := Retry(ctx, retrier, "retry_exhausted", ".kibana", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("retries exhausted"))

		Expect(task.invocations).To(Equal(15))
		Expect(clk.Delays()).To(Equal([]time.Duration{
			1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
			16 * time.Second, 32 * time.Second, 64 * time.Second, 64 * time.Second,
			64 * time.Second, 64 * time.Second, 64 * time.Second, 64 * time.Second,
			64 * time.Second, 64 * time.Second,
		}))
		Expect(testutil.ToFloat64(metrics.RetriesExhausted("retry_exhausted")) - before).To(Equal(1.0))
	})

	It("should honor a custom backoff", func() {
		retrier = NewRetrier(logr.Discard(), WithClock(clk), WithBackoff(10*time.Millisecond, 30*time.Millisecond, 4))
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){retryable}}

		_, err := Retry(ctx, retrier, "retry_custom", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).To(HaveOccurred())
		Expect(task.invocations).To(Equal(4))
		Expect(clk.Delays()).To(Equal([]time.Duration{
			10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond,
		}))
	})

	It("should return a fatal error unmodified without retrying", func() {
		fatal := errors.New("mapper cannot be changed")
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){
			func() (actions.Either[actions.Failure, string], error) {
				return actions.Either[actions.Failure, string]{}, fatal
			},
		}}

		_, err := Retry(ctx, retrier, "retry_fatal", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).To(BeIdenticalTo(fatal))
		Expect(task.invocations).To(Equal(1))
		Expect(clk.Delays()).To(BeEmpty())
	})

	It("should hand non retryable failures back to the caller", func() {
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){
			func() (actions.Either[actions.Failure, string], error) {
				return actions.Left[actions.Failure, string](actions.IndexNotFound{Index: "a"}), nil
			},
		}}

		res, err := Retry(ctx, retrier, "retry_failure", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).ToNot(HaveOccurred())

		left, ok := res.GetLeft()
		Expect(ok).To(BeTrue())
		Expect(left).To(Equal(actions.IndexNotFound{Index: "a"}))
		Expect(task.invocations).To(Equal(1))
	})

	It("should retry task completion timeouts", func() {
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){
			func() (actions.Either[actions.Failure, string], error) {
				return actions.Left[actions.Failure, string](actions.WaitForTaskCompletionTimeout{Message: "still running"}), nil
			},
			succeeded,
		}}

		res, err := Retry(ctx, retrier, "retry_wait", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.IsRight()).To(BeTrue())
		Expect(task.invocations).To(Equal(2))
	})

	It("should abort while waiting for the next attempt when the context is canceled", func() {
		fakeClock := testingclock.NewFakeClock(time.Now())
		retrier = NewRetrier(logr.Discard(), WithClock(fakeClock))
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){retryable}}

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := Retry(cctx, retrier, "retry_canceled", "a", actions.TaskEither[actions.Failure, string](task.run))
			done <- err
		}()

		Eventually(fakeClock.HasWaiters).Should(BeTrue())
		cancel()

		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(task.invocations).To(Equal(1))
	})

	It("should not invoke the task when the context is already done", func() {
		task := &fakeTask{results: []func() (actions.Either[actions.Failure, string], error){succeeded}}

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Retry(cctx, retrier, "retry_done", "a", actions.TaskEither[actions.Failure, string](task.run))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(task.invocations).To(Equal(0))
	})
})
