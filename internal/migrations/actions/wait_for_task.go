package actions

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
	"github.com/tidwall/gjson"
)

const (
	PickupUpdatedMappingsSucceeded = "pickup_updated_mappings_succeeded"
	ReindexSucceeded               = "reindex_succeeded"

	// DefaultWaitForTaskTimeout bounds a single wait; the task keeps running
	// after it expires.
	DefaultWaitForTaskTimeout = 60 * time.Second
)

var writeBlockReason = regexp.MustCompile(`index \[.+\] blocked by: \[FORBIDDEN/8/index write \(api\)\]`)

// WaitForTask waits up to timeout for taskID to complete. A task still
// running after timeout is reported as WaitForTaskCompletionTimeout.
func WaitForTask(client elasticsearch.Client, taskID string, timeout time.Duration) TaskEither[Failure, TaskCompletion] {
	return func(ctx context.Context) (Either[Failure, TaskCompletion], error) {
		res, err := client.GetTask(ctx, taskID, timeout)
		if err != nil {
			if elasticsearch.HasErrorType(err, "timeout_exception") {
				return Left[Failure, TaskCompletion](WaitForTaskCompletionTimeout{
					Message: "timeout while waiting for task " + taskID + " to complete",
					Err:     err,
				}), nil
			}
			return catchRetryableFailure[TaskCompletion](err)
		}

		if !res.Completed {
			return Left[Failure, TaskCompletion](WaitForTaskCompletionTimeout{
				Message: "task " + taskID + " has not completed",
			}), nil
		}

		completion := TaskCompletion{
			Completed:   res.Completed,
			Description: res.Task.Description,
		}
		if len(res.Error) > 0 && string(res.Error) != "null" {
			completion.Error = res.Error
		}
		if res.Response != nil {
			completion.Failures = res.Response.Failures
		}
		return Right[Failure](completion), nil
	}
}

// WaitForPickupUpdatedMappingsTask waits for a pickup task. Failed documents
// or a failed task are fatal.
func WaitForPickupUpdatedMappingsTask(client elasticsearch.Client, taskID string, timeout time.Duration) TaskEither[Failure, string] {
	return Chain(WaitForTask(client, taskID, timeout), func(res TaskCompletion) TaskEither[Failure, string] {
		return func(context.Context) (Either[Failure, string], error) {
			if len(res.Failures) > 0 {
				failures, _ := json.Marshal(res.Failures)
				return Either[Failure, string]{}, kverrors.New("pickupUpdatedMappings task failed with failures",
					"task_id", taskID,
					"failures", string(failures))
			}
			if res.Error != nil {
				return Either[Failure, string]{}, kverrors.New("pickupUpdatedMappings task failed with error",
					"task_id", taskID,
					"error", string(res.Error))
			}
			return Right[Failure](PickupUpdatedMappingsSucceeded), nil
		}
	})
}

// WaitForReindexTask waits for a reindex task. Version conflicts are
// expected when another instance reindexed the same documents and are
// ignored. A missing source index is returned as a Left. A write block on the
// target and incompatible mappings are returned as Lefts only when every
// failure is of that kind; any other failure is fatal.
func WaitForReindexTask(client elasticsearch.Client, taskID string, timeout time.Duration) TaskEither[Failure, string] {
	return Chain(WaitForTask(client, taskID, timeout), func(res TaskCompletion) TaskEither[Failure, string] {
		return func(context.Context) (Either[Failure, string], error) {
			if res.Error != nil {
				switch gjson.GetBytes(res.Error, "type").String() {
				case IndexNotFoundType:
					return Left[Failure, string](IndexNotFound{Index: gjson.GetBytes(res.Error, "index").String()}), nil
				default:
					return Either[Failure, string]{}, kverrors.New("reindex failed with an unexpected error",
						"task_id", taskID,
						"error", string(res.Error))
				}
			}

			var failures []estypes.TaskFailure
			for _, f := range res.Failures {
				if f.Cause.Type != "version_conflict_engine_exception" {
					failures = append(failures, f)
				}
			}
			if len(failures) == 0 {
				return Right[Failure](ReindexSucceeded), nil
			}

			switch {
			case allFailures(failures, isWriteBlockFailure):
				return Left[Failure, string](TargetIndexHadWriteBlock{}), nil
			case allFailures(failures, isIncompatibleMappingFailure):
				return Left[Failure, string](IncompatibleMappingException{}), nil
			}
			raw, _ := json.Marshal(failures)
			return Either[Failure, string]{}, kverrors.New("reindex failed with the following failures",
				"task_id", taskID,
				"failures", string(raw))
		}
	})
}

func allFailures(failures []estypes.TaskFailure, match func(estypes.TaskFailure) bool) bool {
	for _, f := range failures {
		if !match(f) {
			return false
		}
	}
	return true
}

func isWriteBlockFailure(f estypes.TaskFailure) bool {
	return f.Cause.Type == "cluster_block_exception" && writeBlockReason.MatchString(f.Cause.Reason)
}

func isIncompatibleMappingFailure(f estypes.TaskFailure) bool {
	return f.Cause.Type == "strict_dynamic_mapping_exception" || f.Cause.Type == "mapper_parsing_exception"
}
