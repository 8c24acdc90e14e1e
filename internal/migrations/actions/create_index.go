package actions

import (
	"context"
	"encoding/json"

	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

const CreateIndexSucceeded = "create_index_succeeded"

type CreateIndexParams struct {
	Client   elasticsearch.Client
	Index    string
	Mappings estypes.IndexMapping
	Aliases  []string
}

// CreateIndex creates index and waits for its primaries to be assigned. An
// index that already exists, e.g. created by another instance, counts as
// created.
func CreateIndex(params CreateIndexParams) TaskEither[Failure, string] {
	create := func(ctx context.Context) (Either[Failure, string], error) {
		_, err := params.Client.CreateIndex(ctx, params.Index, createIndexRequest(params), constants.DefaultTimeout)
		if err != nil && !elasticsearch.HasErrorType(err, "resource_already_exists_exception") {
			return catchRetryableFailure[string](err)
		}
		// acknowledged=false only means the shards did not start within the
		// timeout, the wait below covers it
		return Right[Failure](CreateIndexSucceeded), nil
	}

	return Chain(TaskEither[Failure, string](create), func(string) TaskEither[Failure, string] {
		return Map(
			WaitForIndexStatus(params.Client, params.Index, constants.DefaultTimeout, IndexStatusYellow),
			func(struct{}) string { return CreateIndexSucceeded },
		)
	})
}

func createIndexRequest(params CreateIndexParams) *estypes.CreateIndexRequest {
	aliases := map[string]json.RawMessage{}
	for _, alias := range params.Aliases {
		aliases[alias] = json.RawMessage(`{}`)
	}

	return &estypes.CreateIndexRequest{
		Mappings: params.Mappings,
		Aliases:  aliases,
		Settings: &estypes.IndexSettings{
			Index: &estypes.IndexingSettings{
				NumberOfShards:     1,
				AutoExpandReplicas: constants.IndexAutoExpandReplicas,
				RefreshInterval:    "1s",
				Mapping: &estypes.IndexMappingSettings{
					TotalFields: &estypes.TotalFieldsSettings{
						Limit: constants.IndexTotalFieldsLimit,
					},
				},
			},
		},
	}
}
