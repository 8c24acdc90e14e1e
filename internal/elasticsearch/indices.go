package elasticsearch

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/openshift/kibana-migrator/internal/constants"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// GetIndices returns aliases, mappings and settings for the given indices.
// A 404 is reported as an empty response so callers only see indices that
// exist.
func (ec *esClient) GetIndices(ctx context.Context, indices []string, ignoreUnavailable bool) (estypes.FetchIndexResponse, error) {
	es := ec.api
	res, err := es.Indices.Get(indices,
		es.Indices.Get.WithContext(ctx),
		es.Indices.Get.WithIgnoreUnavailable(ignoreUnavailable),
	)

	resp := estypes.FetchIndexResponse{}
	if err := ec.decode("get indices", res, err, &resp); err != nil {
		if isNotFound(err) {
			return estypes.FetchIndexResponse{}, nil
		}
		return nil, err
	}
	return resp, nil
}

func (ec *esClient) CreateIndex(ctx context.Context, name string, index *estypes.CreateIndexRequest, timeout time.Duration) (*estypes.AcknowledgedResponse, error) {
	es := ec.api
	res, err := es.Indices.Create(name,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(esutil.NewJSONReader(index)),
		es.Indices.Create.WithTimeout(timeout),
		es.Indices.Create.WithWaitForActiveShards(constants.WaitForAllShardsToBeActive),
	)

	ack := &estypes.AcknowledgedResponse{}
	if err := ec.decode("create index", res, err, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (ec *esClient) RefreshIndex(ctx context.Context, name string) error {
	es := ec.api
	res, err := es.Indices.Refresh(
		es.Indices.Refresh.WithContext(ctx),
		es.Indices.Refresh.WithIndex(name),
	)
	return ec.decode("refresh index", res, err, nil)
}

func (ec *esClient) PutMapping(ctx context.Context, index string, timeout time.Duration, mappings estypes.IndexMapping) (*estypes.AcknowledgedResponse, error) {
	es := ec.api
	res, err := es.Indices.PutMapping([]string{index}, esutil.NewJSONReader(mappings),
		es.Indices.PutMapping.WithContext(ctx),
		es.Indices.PutMapping.WithTimeout(timeout),
	)

	ack := &estypes.AcknowledgedResponse{}
	if err := ec.decode("put mapping", res, err, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (ec *esClient) AddWriteBlock(ctx context.Context, index string, timeout time.Duration) (*estypes.AcknowledgedResponse, error) {
	es := ec.api
	res, err := es.Indices.AddBlock([]string{index}, "write",
		es.Indices.AddBlock.WithContext(ctx),
		es.Indices.AddBlock.WithTimeout(timeout),
	)

	ack := &estypes.AcknowledgedResponse{}
	if err := ec.decode("add write block", res, err, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (ec *esClient) UpdateIndexSettings(ctx context.Context, index string, settings *estypes.IndexSettings, timeout time.Duration) (*estypes.AcknowledgedResponse, error) {
	es := ec.api
	res, err := es.Indices.PutSettings(esutil.NewJSONReader(settings),
		es.Indices.PutSettings.WithContext(ctx),
		es.Indices.PutSettings.WithIndex(index),
		es.Indices.PutSettings.WithTimeout(timeout),
	)

	ack := &estypes.AcknowledgedResponse{}
	if err := ec.decode("update index settings", res, err, ack); err != nil {
		return nil, err
	}
	return ack, nil
}
