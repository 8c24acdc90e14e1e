package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	elasticsearch8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

// Client is the cluster capability consumed by the migration actions. It
// performs exactly one HTTP request per call and never retries. Non 2xx
// responses are returned as *ResponseError, transport failures are returned
// as produced by the HTTP stack.
type Client interface {
	ClusterName() string

	// Index API
	GetIndices(ctx context.Context, indices []string, ignoreUnavailable bool) (estypes.FetchIndexResponse, error)
	CreateIndex(ctx context.Context, name string, index *estypes.CreateIndexRequest, timeout time.Duration) (*estypes.AcknowledgedResponse, error)
	RefreshIndex(ctx context.Context, name string) error

	// Mapping API
	PutMapping(ctx context.Context, index string, timeout time.Duration, mappings estypes.IndexMapping) (*estypes.AcknowledgedResponse, error)

	// Index Settings API
	AddWriteBlock(ctx context.Context, index string, timeout time.Duration) (*estypes.AcknowledgedResponse, error)
	UpdateIndexSettings(ctx context.Context, index string, settings *estypes.IndexSettings, timeout time.Duration) (*estypes.AcknowledgedResponse, error)

	// Index Alias API
	UpdateAliases(ctx context.Context, actions estypes.AliasActions, timeout time.Duration) (*estypes.AcknowledgedResponse, error)

	// Document tasks
	UpdateByQuery(ctx context.Context, index string, batchSize int, query json.RawMessage) (*estypes.TaskResponse, error)
	ReIndex(ctx context.Context, reindex estypes.ReIndex, requireAlias bool) (*estypes.TaskResponse, error)
	GetTask(ctx context.Context, taskID string, timeout time.Duration) (*estypes.GetTaskResponse, error)

	// Health API
	WaitForIndexStatus(ctx context.Context, index, status string, timeout time.Duration) (*estypes.ClusterHealthResponse, error)
}

type esClient struct {
	cluster string
	api     *esapi.API
}

// NewClient wraps a configured go-elasticsearch client.
func NewClient(cluster string, client *elasticsearch8.Client) Client {
	return &esClient{
		cluster: cluster,
		api:     client.API,
	}
}

// NewClientFromTransport builds a client that sends every request through t.
func NewClientFromTransport(cluster string, t esapi.Transport) Client {
	return &esClient{
		cluster: cluster,
		api:     esapi.New(t),
	}
}

func (ec *esClient) ClusterName() string {
	return ec.cluster
}

func (ec *esClient) errorCtx() kverrors.Context {
	return kverrors.NewContext(
		"cluster", ec.ClusterName(),
	)
}

// decode consumes res. Transport errors are returned untouched, error
// responses become *ResponseError and successful bodies are decoded into
// into when it is non-nil.
func (ec *esClient) decode(operation string, res *esapi.Response, err error, into interface{}) error {
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(ioutil.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := ioutil.ReadAll(res.Body)
		return newResponseError(operation, res.StatusCode, body)
	}

	if into == nil {
		return nil
	}

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, into); err != nil {
		return ec.errorCtx().Wrap(err, "failed decoding raw response body",
			"operation", operation,
			"response_status", res.StatusCode,
			"destination_type", fmt.Sprintf("%T", into))
	}
	return nil
}

func isNotFound(err error) bool {
	re, ok := AsResponseError(err)
	return ok && re.StatusCode == http.StatusNotFound
}
