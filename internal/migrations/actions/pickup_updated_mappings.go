package actions

import (
	"context"
	"encoding/json"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
)

type UpdateByQueryResponse struct {
	TaskID string
}

// PickupUpdatedMappings starts an update by query over index so existing
// documents are indexed with the current mappings. It returns as soon as
// the task is accepted. A nil query picks up every document.
//
// Each invocation starts a new task; picking up a document twice is
// harmless.
func PickupUpdatedMappings(client elasticsearch.Client, index string, batchSize int, query json.RawMessage) TaskEither[RetryableEsClientError, UpdateByQueryResponse] {
	return func(ctx context.Context) (Either[RetryableEsClientError, UpdateByQueryResponse], error) {
		res, err := client.UpdateByQuery(ctx, index, batchSize, query)
		if err != nil {
			return catchRetryable[UpdateByQueryResponse](err)
		}
		return Right[RetryableEsClientError](UpdateByQueryResponse{TaskID: res.Task}), nil
	}
}
