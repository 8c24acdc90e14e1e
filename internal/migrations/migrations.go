package migrations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/go-logr/logr"
	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	"github.com/openshift/kibana-migrator/internal/migrations/actions"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

const (
	fetchIndicesAction                 = "fetch_indices"
	updateAndPickupMappingsAction      = "update_and_pickup_mappings"
	waitForPickupUpdatedMappingsAction = "wait_for_pickup_updated_mappings_task"
	setWriteBlockAction                = "set_write_block"
	createIndexAction                  = "create_index"
	reindexAction                      = "reindex"
	waitForReindexTaskAction           = "wait_for_reindex_task"
	refreshIndexAction                 = "refresh_index"
	updateAliasesAction                = "update_aliases"
)

type MigrationRequest interface {
	UpdateMappingsInPlace(ctx context.Context, plan UpdateMappingsPlan) error
	ReindexToNewIndex(ctx context.Context, plan ReindexPlan) error
}

// UpdateMappingsPlan updates the mappings of an existing index and rewrites
// its documents so they are indexed with them.
type UpdateMappingsPlan struct {
	Index    string
	Mappings estypes.IndexMapping
	// BatchSize defaults to constants.DefaultBatchSize.
	BatchSize int
	// Query limits the documents picked up. Empty means all documents.
	Query       json.RawMessage
	WaitTimeout time.Duration
}

// ReindexPlan copies SourceIndex into TargetIndex and moves Alias over to
// TargetIndex. Alias defaults to SourceIndex, which is removed in the same
// request the alias is added with.
type ReindexPlan struct {
	Alias       string
	SourceIndex string
	TargetIndex string
	Mappings    estypes.IndexMapping
	Script      string
	BatchSize   int
	Query       json.RawMessage
	WaitTimeout time.Duration
}

func NewMigrationRequest(esClient elasticsearch.Client, retrier *Retrier, log logr.Logger) MigrationRequest {
	return &migrationRequest{
		esClient: esClient,
		retrier:  retrier,
		log:      log,
	}
}

type migrationRequest struct {
	esClient elasticsearch.Client
	retrier  *Retrier
	log      logr.Logger
}

func (mr *migrationRequest) UpdateMappingsInPlace(ctx context.Context, plan UpdateMappingsPlan) error {
	log := mr.log.WithValues("index", plan.Index)

	indices, err := runStep(ctx, mr.retrier, fetchIndicesAction, plan.Index,
		actions.FetchIndices(actions.FetchIndicesParams{
			Client:  mr.esClient,
			Indices: []string{plan.Index},
		}))
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		return kverrors.New("index to update mappings for does not exist",
			"index", plan.Index)
	}

	res, err := runStep(ctx, mr.retrier, updateAndPickupMappingsAction, plan.Index,
		actions.UpdateAndPickupMappings(actions.UpdateAndPickupMappingsParams{
			Client:    mr.esClient,
			Index:     plan.Index,
			Mappings:  plan.Mappings,
			BatchSize: batchSize(plan.BatchSize),
			Query:     plan.Query,
			Log:       log,
		}))
	if err != nil {
		return err
	}
	log.Info("picking up updated mappings", "task_id", res.TaskID)

	_, err = runStep(ctx, mr.retrier, waitForPickupUpdatedMappingsAction, plan.Index,
		actions.WaitForPickupUpdatedMappingsTask(mr.esClient, res.TaskID, waitTimeout(plan.WaitTimeout)))
	if err != nil {
		return err
	}

	log.Info("mappings updated")
	return nil
}

func (mr *migrationRequest) ReindexToNewIndex(ctx context.Context, plan ReindexPlan) error {
	alias := plan.Alias
	if alias == "" {
		alias = plan.SourceIndex
	}
	log := mr.log.WithValues("from", plan.SourceIndex, "to", plan.TargetIndex, "alias", alias)

	indices, err := runStep(ctx, mr.retrier, fetchIndicesAction, plan.SourceIndex,
		actions.FetchIndices(actions.FetchIndicesParams{
			Client:  mr.esClient,
			Indices: []string{plan.SourceIndex, plan.TargetIndex},
		}))
	if err != nil {
		return err
	}
	if aliasPointsTo(indices, alias, plan.TargetIndex) {
		log.Info("skipping reindex because already completed")
		return nil
	}
	if _, ok := indices[plan.SourceIndex]; !ok {
		return kverrors.New("source index does not exist",
			"index", plan.SourceIndex)
	}

	if _, err := runStep(ctx, mr.retrier, setWriteBlockAction, plan.SourceIndex,
		actions.SetWriteBlock(mr.esClient, plan.SourceIndex)); err != nil {
		return err
	}

	createIndex := actions.MapLeft(
		actions.CreateIndex(actions.CreateIndexParams{
			Client:   mr.esClient,
			Index:    plan.TargetIndex,
			Mappings: plan.Mappings,
		}),
		retryWhenNotYellow,
	)
	if _, err := runStep(ctx, mr.retrier, createIndexAction, plan.TargetIndex, createIndex); err != nil {
		return err
	}

	reindex, err := runStep(ctx, mr.retrier, reindexAction, plan.TargetIndex,
		actions.Reindex(actions.ReindexParams{
			Client:      mr.esClient,
			SourceIndex: plan.SourceIndex,
			TargetIndex: plan.TargetIndex,
			Script:      plan.Script,
			BatchSize:   batchSize(plan.BatchSize),
			Query:       plan.Query,
		}))
	if err != nil {
		return err
	}
	log.Info("reindexing", "task_id", reindex.TaskID)

	res, err := Retry(ctx, mr.retrier, waitForReindexTaskAction, plan.TargetIndex,
		actions.WaitForReindexTask(mr.esClient, reindex.TaskID, waitTimeout(plan.WaitTimeout)))
	if err != nil {
		return err
	}
	if failure, ok := res.GetLeft(); ok {
		// another instance completed the reindex and blocked the target
		if failure.Type() != actions.TargetIndexHadWriteBlockType {
			return unexpectedFailure(waitForReindexTaskAction, plan.TargetIndex, failure)
		}
		log.Info("target index has a write block, skipping to aliasing", "task_id", reindex.TaskID)
	}

	if _, err := runStep(ctx, mr.retrier, refreshIndexAction, plan.TargetIndex,
		actions.RefreshIndex(mr.esClient, plan.TargetIndex)); err != nil {
		return err
	}

	return mr.moveAlias(ctx, log, alias, plan)
}

func (mr *migrationRequest) moveAlias(ctx context.Context, log logr.Logger, alias string, plan ReindexPlan) error {
	aliasActions := []estypes.AliasAction{
		{RemoveIndex: &estypes.RemoveIndexAction{Index: plan.SourceIndex}},
		{Add: &estypes.AddAliasAction{Index: plan.TargetIndex, Alias: alias}},
	}
	if alias != plan.SourceIndex {
		aliasActions = []estypes.AliasAction{
			{Remove: &estypes.RemoveAliasAction{Index: plan.SourceIndex, Alias: alias}},
			{Add: &estypes.AddAliasAction{Index: plan.TargetIndex, Alias: alias}},
		}
	}

	res, err := Retry(ctx, mr.retrier, updateAliasesAction, plan.TargetIndex,
		actions.UpdateAliases(mr.esClient, aliasActions))
	if err != nil {
		return err
	}

	failure, ok := res.GetLeft()
	if !ok {
		log.Info("alias moved to new index")
		return nil
	}

	switch failure.Type() {
	case actions.IndexNotFoundType, actions.AliasNotFoundType:
		indices, err := runStep(ctx, mr.retrier, fetchIndicesAction, plan.TargetIndex,
			actions.FetchIndices(actions.FetchIndicesParams{
				Client:  mr.esClient,
				Indices: []string{plan.TargetIndex},
			}))
		if err != nil {
			return err
		}
		if aliasPointsTo(indices, alias, plan.TargetIndex) {
			log.Info("alias already moved to new index")
			return nil
		}
	}
	return unexpectedFailure(updateAliasesAction, plan.TargetIndex, failure)
}

// runStep retries task and treats every Left it settles on as fatal.
func runStep[L actions.Failure, R any](ctx context.Context, r *Retrier, action, index string, task actions.TaskEither[L, R]) (R, error) {
	var zero R
	res, err := Retry(ctx, r, action, index, task)
	if err != nil {
		return zero, err
	}
	if failure, ok := res.GetLeft(); ok {
		return zero, unexpectedFailure(action, index, failure)
	}
	right, _ := res.GetRight()
	return right, nil
}

func unexpectedFailure(action, index string, failure actions.Failure) error {
	return kverrors.New("action resolved to an unexpected failure",
		"action", action,
		"index", index,
		"failure", failure.String())
}

// retryWhenNotYellow makes a create index that timed out waiting for its
// shards retryable. Creating an existing index succeeds so the whole action
// can be invoked again.
func retryWhenNotYellow(f actions.Failure) actions.Failure {
	if f.Type() == actions.IndexNotYellowTimeoutType {
		return actions.RetryableEsClientError{Message: f.String()}
	}
	return f
}

func aliasPointsTo(indices estypes.FetchIndexResponse, alias, index string) bool {
	info, ok := indices[index]
	if !ok {
		return false
	}
	_, ok = info.Aliases[alias]
	return ok
}

func batchSize(size int) int {
	if size <= 0 {
		return constants.DefaultBatchSize
	}
	return size
}

func waitTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return actions.DefaultWaitForTaskTimeout
	}
	return timeout
}
