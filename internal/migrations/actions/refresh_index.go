package actions

import (
	"context"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
)

type RefreshIndexResponse struct {
	Refreshed bool
}

// RefreshIndex makes all operations on index visible to search.
func RefreshIndex(client elasticsearch.Client, index string) TaskEither[Failure, RefreshIndexResponse] {
	return func(ctx context.Context) (Either[Failure, RefreshIndexResponse], error) {
		if err := client.RefreshIndex(ctx, index); err != nil {
			return catchRetryableFailure[RefreshIndexResponse](err)
		}
		return Right[Failure](RefreshIndexResponse{Refreshed: true}), nil
	}
}
