package elasticsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// WaitForIndexStatus asks the cluster to hold the request until index
// reaches status or timeout passes. A timed out wait is not an error here:
// the cluster answers 408 with timed_out=true in the body, which is
// returned as a regular response.
func (ec *esClient) WaitForIndexStatus(ctx context.Context, index, status string, timeout time.Duration) (*estypes.ClusterHealthResponse, error) {
	es := ec.api
	res, err := es.Cluster.Health(
		es.Cluster.Health.WithContext(ctx),
		es.Cluster.Health.WithIndex(index),
		es.Cluster.Health.WithWaitForStatus(status),
		es.Cluster.Health.WithTimeout(timeout),
	)

	health := &estypes.ClusterHealthResponse{}
	if err := ec.decode("cluster health", res, err, health); err != nil {
		re, ok := AsResponseError(err)
		if ok && re.StatusCode == http.StatusRequestTimeout {
			if jsonErr := json.Unmarshal([]byte(re.Body), health); jsonErr == nil && health.TimedOut {
				return health, nil
			}
		}
		return nil, err
	}
	return health, nil
}
