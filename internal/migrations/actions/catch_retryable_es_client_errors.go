package actions

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
)

var retryResponseStatuses = map[int]struct{}{
	http.StatusRequestTimeout:     {},
	http.StatusConflict:           {},
	http.StatusGone:               {},
	http.StatusTooManyRequests:    {},
	http.StatusBadGateway:         {},
	http.StatusServiceUnavailable: {},
	http.StatusGatewayTimeout:     {},
}

var retryResponseErrorTypes = map[string]struct{}{
	// answered with 400 while a snapshot is running, should be a 503
	"snapshot_in_progress_exception":          {},
	"version_conflict_engine_exception":       {},
	"process_cluster_event_timeout_exception": {},
	"es_rejected_execution_exception":         {},
	"master_not_discovered_exception":         {},
	"no_shard_available_action_exception":     {},
	"unavailable_shards_exception":            {},
}

// CatchRetryableEsClientErrors classifies err. Transient failures are
// returned as a RetryableEsClientError with a nil error. Anything else is
// returned as the error, unchanged, and must halt the migration.
func CatchRetryableEsClientErrors(err error) (RetryableEsClientError, error) {
	if !isRetryableEsClientError(err) {
		return RetryableEsClientError{}, err
	}
	return RetryableEsClientError{
		Message: err.Error(),
		Err:     err,
	}, nil
}

func isRetryableEsClientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	if re, ok := elasticsearch.AsResponseError(err); ok {
		if _, found := retryResponseStatuses[re.StatusCode]; found {
			return true
		}
		_, found := retryResponseErrorTypes[re.Type]
		return found
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	// an unknown host is a configuration error
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func catchRetryable[R any](err error) (Either[RetryableEsClientError, R], error) {
	left, err := CatchRetryableEsClientErrors(err)
	if err != nil {
		return Either[RetryableEsClientError, R]{}, err
	}
	return Left[RetryableEsClientError, R](left), nil
}

func catchRetryableFailure[R any](err error) (Either[Failure, R], error) {
	left, err := CatchRetryableEsClientErrors(err)
	if err != nil {
		return Either[Failure, R]{}, err
	}
	return Left[Failure, R](left), nil
}
