package elasticsearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// UpdateByQuery starts an update by query task over index and returns
// without waiting for it. Version conflicts are skipped.
func (ec *esClient) UpdateByQuery(ctx context.Context, index string, batchSize int, query json.RawMessage) (*estypes.TaskResponse, error) {
	es := ec.api
	opts := []func(*esapi.UpdateByQueryRequest){
		es.UpdateByQuery.WithContext(ctx),
		es.UpdateByQuery.WithAllowNoIndices(false),
		es.UpdateByQuery.WithConflicts("proceed"),
		es.UpdateByQuery.WithRefresh(true),
		es.UpdateByQuery.WithWaitForCompletion(false),
		es.UpdateByQuery.WithScrollSize(batchSize),
	}
	if len(query) > 0 {
		opts = append(opts, es.UpdateByQuery.WithBody(esutil.NewJSONReader(estypes.UpdateByQueryBody{Query: query})))
	}
	res, err := es.UpdateByQuery([]string{index}, opts...)

	task := &estypes.TaskResponse{}
	if err := ec.decode("update by query", res, err, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ReIndex starts a reindex task and returns without waiting for it.
func (ec *esClient) ReIndex(ctx context.Context, reindex estypes.ReIndex, requireAlias bool) (*estypes.TaskResponse, error) {
	es := ec.api
	res, err := es.Reindex(esutil.NewJSONReader(reindex),
		es.Reindex.WithContext(ctx),
		es.Reindex.WithRefresh(true),
		es.Reindex.WithWaitForCompletion(false),
		es.Reindex.WithRequireAlias(requireAlias),
	)

	task := &estypes.TaskResponse{}
	if err := ec.decode("reindex", res, err, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask blocks server side for up to timeout waiting for the task to
// complete.
func (ec *esClient) GetTask(ctx context.Context, taskID string, timeout time.Duration) (*estypes.GetTaskResponse, error) {
	es := ec.api
	res, err := es.Tasks.Get(taskID,
		es.Tasks.Get.WithContext(ctx),
		es.Tasks.Get.WithWaitForCompletion(true),
		es.Tasks.Get.WithTimeout(timeout),
	)

	task := &estypes.GetTaskResponse{}
	if err := ec.decode("get task", res, err, task); err != nil {
		return nil, err
	}
	return task, nil
}
