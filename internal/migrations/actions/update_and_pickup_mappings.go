package actions

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"
	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

type UpdateAndPickupMappingsParams struct {
	Client    elasticsearch.Client
	Index     string
	Mappings  estypes.IndexMapping
	BatchSize int
	// Query limits the documents picked up. Nil picks up all documents.
	Query json.RawMessage
	Log   logr.Logger
}

type UpdateAndPickupMappingsResponse struct {
	TaskID string
}

const updateMappingsSucceeded = "update_mappings_succeeded"

// UpdateAndPickupMappings puts mappings on index and then starts a pickup
// task for the existing documents. The pickup is only started when the put
// mapping call succeeded; a retryable failure of either step is returned as
// a Left and the whole action has to be invoked again.
func UpdateAndPickupMappings(params UpdateAndPickupMappingsParams) TaskEither[RetryableEsClientError, UpdateAndPickupMappingsResponse] {
	putMappings := updateMappings(params)

	return Chain(putMappings, func(string) TaskEither[RetryableEsClientError, UpdateAndPickupMappingsResponse] {
		return Map(
			PickupUpdatedMappings(params.Client, params.Index, params.BatchSize, params.Query),
			func(res UpdateByQueryResponse) UpdateAndPickupMappingsResponse {
				return UpdateAndPickupMappingsResponse{TaskID: res.TaskID}
			},
		)
	})
}

// updateMappings treats acknowledged=false as success.
func updateMappings(params UpdateAndPickupMappingsParams) TaskEither[RetryableEsClientError, string] {
	return func(ctx context.Context) (Either[RetryableEsClientError, string], error) {
		ack, err := params.Client.PutMapping(ctx, params.Index, constants.DefaultTimeout, params.Mappings)
		if err != nil {
			return catchRetryable[string](err)
		}
		if !ack.Acknowledged {
			params.Log.V(1).Info("put mapping was not acknowledged, picking up documents anyway",
				"index", params.Index)
		}
		return Right[RetryableEsClientError](updateMappingsSucceeded), nil
	}
}
