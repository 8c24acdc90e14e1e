package actions

import (
	"fmt"

	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// Failure types carried in Lefts.
const (
	RetryableEsClientErrorType       = "retryable_es_client_error"
	IndexNotFoundType                = "index_not_found_exception"
	AliasNotFoundType                = "alias_not_found_exception"
	RemoveIndexNotAConcreteIndexType = "remove_index_not_a_concrete_index"
	TargetIndexHadWriteBlockType     = "target_index_had_write_block"
	IncompatibleMappingType          = "incompatible_mapping_exception"
	WaitForTaskCompletionTimeoutType = "wait_for_task_completion_timeout"
	IndexNotYellowTimeoutType        = "index_not_yellow_timeout"
)

// Failure is an expected, typed failure of an action. It is a value for the
// caller to act on, not an error.
type Failure interface {
	Type() string
	String() string
}

// RetryableEsClientError signals that the same action can be invoked again
// after a delay.
type RetryableEsClientError struct {
	Message string
	// Err is the classified client error.
	Err error
}

func (RetryableEsClientError) Type() string { return RetryableEsClientErrorType }

func (e RetryableEsClientError) String() string {
	return fmt.Sprintf("%s: %s", RetryableEsClientErrorType, e.Message)
}

type IndexNotFound struct {
	Index string
}

func (IndexNotFound) Type() string { return IndexNotFoundType }

func (e IndexNotFound) String() string {
	return fmt.Sprintf("%s: %s", IndexNotFoundType, e.Index)
}

type AliasNotFound struct{}

func (AliasNotFound) Type() string   { return AliasNotFoundType }
func (AliasNotFound) String() string { return AliasNotFoundType }

// RemoveIndexNotAConcreteIndex is returned when a remove_index action names
// an alias instead of an index.
type RemoveIndexNotAConcreteIndex struct{}

func (RemoveIndexNotAConcreteIndex) Type() string   { return RemoveIndexNotAConcreteIndexType }
func (RemoveIndexNotAConcreteIndex) String() string { return RemoveIndexNotAConcreteIndexType }

type TargetIndexHadWriteBlock struct{}

func (TargetIndexHadWriteBlock) Type() string   { return TargetIndexHadWriteBlockType }
func (TargetIndexHadWriteBlock) String() string { return TargetIndexHadWriteBlockType }

type IncompatibleMappingException struct{}

func (IncompatibleMappingException) Type() string   { return IncompatibleMappingType }
func (IncompatibleMappingException) String() string { return IncompatibleMappingType }

// WaitForTaskCompletionTimeout means the task is still running; waiting again
// is safe.
type WaitForTaskCompletionTimeout struct {
	Message string
	Err     error
}

func (WaitForTaskCompletionTimeout) Type() string { return WaitForTaskCompletionTimeoutType }

func (e WaitForTaskCompletionTimeout) String() string {
	return fmt.Sprintf("%s: %s", WaitForTaskCompletionTimeoutType, e.Message)
}

type IndexNotYellowTimeout struct {
	Message string
}

func (IndexNotYellowTimeout) Type() string { return IndexNotYellowTimeoutType }

func (e IndexNotYellowTimeout) String() string {
	return fmt.Sprintf("%s: %s", IndexNotYellowTimeoutType, e.Message)
}

// TaskCompletion is the outcome of a finished task.
type TaskCompletion struct {
	Completed   bool
	Description string
	// Error is the raw `error` object of a task that failed as a whole.
	Error    []byte
	Failures []estypes.TaskFailure
}

// IsRetryable reports whether f is a failure the same action may be invoked
// again for.
func IsRetryable(f Failure) bool {
	switch f.Type() {
	case RetryableEsClientErrorType, WaitForTaskCompletionTimeoutType:
		return true
	default:
		return false
	}
}
