package actions

import (
	"context"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

type FetchIndicesParams struct {
	Client  elasticsearch.Client
	Indices []string
}

// FetchIndices fetches aliases, mappings and settings of the given indices.
// Indices that do not exist are left out of the response. Closed indices are
// included, so presence means the index exists, not that it is searchable.
func FetchIndices(params FetchIndicesParams) TaskEither[RetryableEsClientError, estypes.FetchIndexResponse] {
	indices := append([]string(nil), params.Indices...)

	return func(ctx context.Context) (Either[RetryableEsClientError, estypes.FetchIndexResponse], error) {
		if len(indices) == 0 {
			return Right[RetryableEsClientError](estypes.FetchIndexResponse{}), nil
		}

		res, err := params.Client.GetIndices(ctx, indices, true)
		if err != nil {
			return catchRetryable[estypes.FetchIndexResponse](err)
		}
		return Right[RetryableEsClientError](res), nil
	}
}
