package actions

import (
	"context"
	"encoding/json"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

type ReindexParams struct {
	Client      elasticsearch.Client
	SourceIndex string
	TargetIndex string
	// Script is an optional painless script applied to every document.
	Script    string
	BatchSize int
	Query     json.RawMessage
	// RequireAlias makes the reindex fail when TargetIndex is not an alias.
	RequireAlias bool
}

type ReindexResponse struct {
	TaskID string
}

// Reindex starts copying documents from SourceIndex into TargetIndex and
// returns the task without waiting. Documents are written with op_type
// create and conflicts proceed, so a repeated reindex skips documents
// already copied and still copies the rest.
func Reindex(params ReindexParams) TaskEither[Failure, ReindexResponse] {
	body := estypes.ReIndex{
		Conflicts: "proceed",
		Source: estypes.ReIndexSource{
			Index: params.SourceIndex,
			Size:  params.BatchSize,
			Query: params.Query,
		},
		Dest: estypes.ReIndexDest{
			Index:  params.TargetIndex,
			OpType: "create",
		},
	}
	if params.Script != "" {
		body.Script = &estypes.ReIndexScript{
			Source: params.Script,
			Lang:   "painless",
		}
	}

	return func(ctx context.Context) (Either[Failure, ReindexResponse], error) {
		res, err := params.Client.ReIndex(ctx, body, params.RequireAlias)
		if err != nil {
			return catchRetryableFailure[ReindexResponse](err)
		}
		return Right[Failure](ReindexResponse{TaskID: res.Task}), nil
	}
}
