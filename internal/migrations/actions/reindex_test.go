package actions_test

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/openshift/kibana-migrator/internal/migrations/actions"
	"github.com/openshift/kibana-migrator/test/helpers"
)

var _ = Describe("Reindexing", func() {
	defer GinkgoRecover()

	var (
		chatter *helpers.FakeElasticsearchChatter
		ctx     = context.Background()
	)

	Describe("Reindex", func() {
		It("should start the reindex task with a painless script", func() {
			chatter = helpers.NewFakeElasticsearchChatter(map[string]helpers.FakeElasticsearchResponses{
				"_reindex": {
					{StatusCode: http.StatusOK, Body: `{"task": "node1:7"}`},
				},
			})

			res, err := actions.Reindex(actions.ReindexParams{
				Client:      helpers.NewFakeElasticsearchClient(esCluster, chatter),
				SourceIndex: ".kibana",
				TargetIndex: ".kibana-6",
				Script:      `ctx._source.type = ctx._type`,
				BatchSize:   500,
				Query:       json.RawMessage(`{"match_all": {}}`),
			})(ctx)
			Expect(err).ToNot(HaveOccurred())

			right, ok := res.GetRight()
			Expect(ok).To(BeTrue())
			Expect(right).To(Equal(actions.ReindexResponse{TaskID: "node1:7"}))

			req, found := chatter.GetRequest("_reindex")
			Expect(found).To(BeTrue())
			Expect(req.Method).To(Equal(http.MethodPost))
			Expect(req.Query).To(ContainSubstring("wait_for_completion=false"))
			Expect(req.Query).To(ContainSubstring("refresh=true"))
			Expect(req.Body).To(MatchJSON(`{
				"conflicts": "proceed",
				"source": {"index": ".kibana", "size": 500, "query": {"match_all": {}}},
				"dest": {"index": ".kibana-6", "op_type": "create"},
				"script": {"source": "ctx._source.type = ctx._type", "lang": "painless"}
			}`))
		})

		It("should leave out the script when none is given", func() {
			chatter = helpers.NewFakeElasticsearchChatter(map[string]helpers.FakeElasticsearchResponses{
				"_reindex": {
					{StatusCode: http.StatusOK, Body: `{"task": "node1:8"}`},
				},
			})

			_, err := actions.Reindex(actions.ReindexParams{
				Client:      helpers.NewFakeElasticsearchClient(esCluster, chatter),
				SourceIndex: "a",
				TargetIndex: "b",
				BatchSize:   1000,
			})(ctx)
			Expect(err).ToNot(HaveOccurred())

			req, found := chatter.GetRequest("_reindex")
			Expect(found).To(BeTrue())
			Expect(req.Body).To(MatchJSON(`{"conflicts": "proceed", "source": {"index": "a", "size": 1000}, "dest": {"index": "b", "op_type": "create"}}`))
		})
	})

	Describe("RefreshIndex", func() {
		It("should refresh the index", func() {
			chatter = helpers.NewFakeElasticsearchChatter(map[string]helpers.FakeElasticsearchResponses{
				".kibana-6/_refresh": {
					{StatusCode: http.StatusOK, Body: `{"_shards": {"total": 2, "successful": 1, "failed": 0}}`},
				},
			})

			res, err := actions.RefreshIndex(helpers.NewFakeElasticsearchClient(esCluster, chatter), ".kibana-6")(ctx)
			Expect(err).ToNot(HaveOccurred())

			right, ok := res.GetRight()
			Expect(ok).To(BeTrue())
			Expect(right.Refreshed).To(BeTrue())
		})

		It("should resolve to a retryable error on a gateway timeout", func() {
			chatter = helpers.NewFakeElasticsearchChatter(map[string]helpers.FakeElasticsearchResponses{
				".kibana-6/_refresh": {
					{StatusCode: http.StatusGatewayTimeout, Body: `{}`},
				},
			})

			res, err := actions.RefreshIndex(helpers.NewFakeElasticsearchClient(esCluster, chatter), ".kibana-6")(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.IsLeft()).To(BeTrue())
		})
	})
})
