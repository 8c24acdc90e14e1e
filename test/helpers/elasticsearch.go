package helpers

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"

	"github.com/openshift/kibana-migrator/internal/elasticsearch"
)

// NewFakeElasticsearchChatter returns a fake cluster answering with the given
// responses. Responses are keyed by request path without the leading slash,
// e.g. ".kibana/_mapping". Each request consumes the next response for its
// key; the last response of a key is repeated.
func NewFakeElasticsearchChatter(responses map[string]FakeElasticsearchResponses) *FakeElasticsearchChatter {
	return &FakeElasticsearchChatter{
		Requests:  map[string][]*FakeElasticsearchRequest{},
		Responses: responses,
	}
}

type FakeElasticsearchChatter struct {
	mu        sync.Mutex
	Requests  map[string][]*FakeElasticsearchRequest
	Responses map[string]FakeElasticsearchResponses
}

type FakeElasticsearchRequest struct {
	Method string
	Query  string
	Body   string
}

type FakeElasticsearchResponse struct {
	Error      error
	StatusCode int
	Body       string
}

type FakeElasticsearchResponses []FakeElasticsearchResponse

// Perform implements esapi.Transport.
func (chat *FakeElasticsearchChatter) Perform(req *http.Request) (*http.Response, error) {
	chat.mu.Lock()
	defer chat.mu.Unlock()

	key := strings.TrimPrefix(req.URL.Path, "/")

	body := ""
	if req.Body != nil {
		raw, err := ioutil.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
	}
	chat.Requests[key] = append(chat.Requests[key], &FakeElasticsearchRequest{
		Method: req.Method,
		Query:  req.URL.RawQuery,
		Body:   body,
	})

	responses, found := chat.Responses[key]
	if !found || len(responses) == 0 {
		return nil, fmt.Errorf("no fake response found for uri %q", key)
	}
	res := responses[0]
	if len(responses) > 1 {
		chat.Responses[key] = responses[1:]
	}

	if res.Error != nil {
		return nil, res.Error
	}
	return &http.Response{
		StatusCode: res.StatusCode,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       ioutil.NopCloser(bytes.NewBufferString(res.Body)),
	}, nil
}

// GetRequest pops the oldest recorded request for key.
func (chat *FakeElasticsearchChatter) GetRequest(key string) (*FakeElasticsearchRequest, bool) {
	chat.mu.Lock()
	defer chat.mu.Unlock()

	requests := chat.Requests[key]
	if len(requests) == 0 {
		return nil, false
	}
	chat.Requests[key] = requests[1:]
	return requests[0], true
}

// RequestCount returns how many requests for key have not been popped yet.
func (chat *FakeElasticsearchChatter) RequestCount(key string) int {
	chat.mu.Lock()
	defer chat.mu.Unlock()
	return len(chat.Requests[key])
}

func NewFakeElasticsearchClient(cluster string, chatter *FakeElasticsearchChatter) elasticsearch.Client {
	return elasticsearch.NewClientFromTransport(cluster, chatter)
}
