package actions

import (
	"context"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

const (
	SetWriteBlockSucceeded    = "set_write_block_succeeded"
	RemoveWriteBlockSucceeded = "remove_write_block_succeeded"
)

// SetWriteBlock makes index read only. Setting the block on an index that
// already has it succeeds.
func SetWriteBlock(client elasticsearch.Client, index string) TaskEither[Failure, string] {
	return func(ctx context.Context) (Either[Failure, string], error) {
		ack, err := client.AddWriteBlock(ctx, index, constants.DefaultTimeout)
		if err != nil {
			if elasticsearch.HasErrorType(err, IndexNotFoundType) {
				return Left[Failure, string](IndexNotFound{Index: index}), nil
			}
			return catchRetryableFailure[string](err)
		}

		if ack.Acknowledged && ack.ShardsAcknowledged {
			return Right[Failure](SetWriteBlockSucceeded), nil
		}
		return Left[Failure, string](RetryableEsClientError{
			Message: "set_write_block_failed",
		}), nil
	}
}

// RemoveWriteBlock clears the write block of index.
func RemoveWriteBlock(client elasticsearch.Client, index string) TaskEither[Failure, string] {
	return func(ctx context.Context) (Either[Failure, string], error) {
		write := false
		settings := &estypes.IndexSettings{
			Index: &estypes.IndexingSettings{
				Blocks: &estypes.IndexBlocksSettings{
					Write: &write,
				},
			},
		}

		ack, err := client.UpdateIndexSettings(ctx, index, settings, constants.DefaultTimeout)
		if err != nil {
			return catchRetryableFailure[string](err)
		}
		if !ack.Acknowledged {
			return Either[Failure, string]{}, kverrors.New("unable to remove write block",
				"index", index)
		}
		return Right[Failure](RemoveWriteBlockSucceeded), nil
	}
}
