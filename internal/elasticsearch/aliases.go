package elasticsearch

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// UpdateAliases applies all actions atomically.
func (ec *esClient) UpdateAliases(ctx context.Context, actions estypes.AliasActions, timeout time.Duration) (*estypes.AcknowledgedResponse, error) {
	es := ec.api
	res, err := es.Indices.UpdateAliases(esutil.NewJSONReader(actions),
		es.Indices.UpdateAliases.WithContext(ctx),
		es.Indices.UpdateAliases.WithTimeout(timeout),
	)

	ack := &estypes.AcknowledgedResponse{}
	if err := ec.decode("update aliases", res, err, ack); err != nil {
		return nil, err
	}
	return ack, nil
}
