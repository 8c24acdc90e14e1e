package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
)

const IndexStatusYellow = "yellow"

// WaitForIndexStatus waits until all primary shards of index are assigned
// (status yellow) or better. A timeout is returned as IndexNotYellowTimeout.
func WaitForIndexStatus(client elasticsearch.Client, index string, timeout time.Duration, status string) TaskEither[Failure, struct{}] {
	return func(ctx context.Context) (Either[Failure, struct{}], error) {
		health, err := client.WaitForIndexStatus(ctx, index, status, timeout)
		if err != nil {
			return catchRetryableFailure[struct{}](err)
		}
		if health.TimedOut {
			return Left[Failure, struct{}](IndexNotYellowTimeout{
				Message: fmt.Sprintf("timeout waiting for the status of the [%s] index to become %q", index, status),
			}), nil
		}
		return Right[Failure](struct{}{}), nil
	}
}
