package actions_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/openshift/kibana-migrator/internal/migrations/actions"
	"github.com/openshift/kibana-migrator/test/helpers"
)

var _ = Describe("Waiting for tasks", func() {
	defer GinkgoRecover()

	const (
		taskID   = "node1:42"
		taskPath = "_tasks/node1:42"
		timeout  = 10 * time.Second
	)

	var (
		chatter *helpers.FakeElasticsearchChatter
		ctx     = context.Background()
	)

	respondWith := func(res helpers.FakeElasticsearchResponse) {
		chatter = helpers.NewFakeElasticsearchChatter(map[string]helpers.FakeElasticsearchResponses{
			taskPath: {res},
		})
	}

	Describe("WaitForTask", func() {
		It("should block on the task with the given timeout", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body:       `{"completed": true, "task": {"description": "reindex from [a] to [b]"}, "response": {"failures": []}}`,
			})

			res, err := actions.WaitForTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).ToNot(HaveOccurred())

			completion, ok := res.GetRight()
			Expect(ok).To(BeTrue())
			Expect(completion.Completed).To(BeTrue())
			Expect(completion.Description).To(Equal("reindex from [a] to [b]"))
			Expect(completion.Error).To(BeNil())
			Expect(completion.Failures).To(BeEmpty())

			req, found := chatter.GetRequest(taskPath)
			Expect(found).To(BeTrue())
			Expect(req.Method).To(Equal(http.MethodGet))
			Expect(req.Query).To(ContainSubstring("wait_for_completion=true"))
			Expect(req.Query).To(ContainSubstring("timeout=10000ms"))
		})

		It("should resolve to a completion timeout when the wait timed out", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusRequestTimeout,
				Body:       `{"error": {"type": "timeout_exception", "reason": "Timed out waiting for completion of [node1:42]"}, "status": 408}`,
			})

			res, err := actions.WaitForTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).ToNot(HaveOccurred())

			left, ok := res.GetLeft()
			Expect(ok).To(BeTrue())
			Expect(left.Type()).To(Equal(actions.WaitForTaskCompletionTimeoutType))
			Expect(actions.IsRetryable(left)).To(BeTrue())
		})

		It("should return a missing task as a fatal error", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusNotFound,
				Body:       `{"error": {"type": "resource_not_found_exception", "reason": "task [node1:42] isn't running and hasn't stored its results"}, "status": 404}`,
			})

			_, err := actions.WaitForTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WaitForPickupUpdatedMappingsTask", func() {
		It("should succeed when the task completed without failures", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body:       `{"completed": true, "task": {}, "response": {"total": 3, "updated": 3, "failures": []}}`,
			})

			res, err := actions.WaitForPickupUpdatedMappingsTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).ToNot(HaveOccurred())

			right, ok := res.GetRight()
			Expect(ok).To(BeTrue())
			Expect(right).To(Equal(actions.PickupUpdatedMappingsSucceeded))
		})

		It("should fail when documents could not be updated", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "a", "id": "1", "status": 400, "cause": {"type": "mapper_parsing_exception", "reason": "failed to parse"}}
				]}}`,
			})

			_, err := actions.WaitForPickupUpdatedMappingsTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("pickupUpdatedMappings task failed with failures"))
		})

		It("should fail when the task failed", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body:       `{"completed": true, "task": {}, "error": {"type": "search_phase_execution_exception", "reason": "all shards failed"}}`,
			})

			_, err := actions.WaitForPickupUpdatedMappingsTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WaitForReindexTask", func() {
		wait := func() (actions.Either[actions.Failure, string], error) {
			return actions.WaitForReindexTask(helpers.NewFakeElasticsearchClient(esCluster, chatter), taskID, timeout)(ctx)
		}

		It("should ignore version conflicts", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 409, "cause": {"type": "version_conflict_engine_exception", "reason": "document already exists"}}
				]}}`,
			})

			res, err := wait()
			Expect(err).ToNot(HaveOccurred())

			right, ok := res.GetRight()
			Expect(ok).To(BeTrue())
			Expect(right).To(Equal(actions.ReindexSucceeded))
		})

		It("should report a missing source index", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body:       `{"completed": true, "task": {}, "error": {"type": "index_not_found_exception", "reason": "no such index [a]", "index": "a"}}`,
			})

			res, err := wait()
			Expect(err).ToNot(HaveOccurred())

			left, ok := res.GetLeft()
			Expect(ok).To(BeTrue())
			Expect(left).To(Equal(actions.IndexNotFound{Index: "a"}))
		})

		It("should report a write block on the target index", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 403, "cause": {"type": "cluster_block_exception", "reason": "index [b] blocked by: [FORBIDDEN/8/index write (api)];"}}
				]}}`,
			})

			res, err := wait()
			Expect(err).ToNot(HaveOccurred())

			left, ok := res.GetLeft()
			Expect(ok).To(BeTrue())
			Expect(left.Type()).To(Equal(actions.TargetIndexHadWriteBlockType))
		})

		It("should report incompatible mappings", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 400, "cause": {"type": "strict_dynamic_mapping_exception", "reason": "mapping set to strict"}}
				]}}`,
			})

			res, err := wait()
			Expect(err).ToNot(HaveOccurred())

			left, ok := res.GetLeft()
			Expect(ok).To(BeTrue())
			Expect(left.Type()).To(Equal(actions.IncompatibleMappingType))
		})

		It("should fail when a write block is reported next to other failures", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 429, "cause": {"type": "circuit_breaking_exception", "reason": "data too large"}},
					{"index": "b", "id": "2", "status": 403, "cause": {"type": "cluster_block_exception", "reason": "index [b] blocked by: [FORBIDDEN/8/index write (api)];"}}
				]}}`,
			})

			res, err := wait()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("reindex failed with the following failures"))
			Expect(res.IsLeft()).To(BeFalse())
		})

		It("should fail when incompatible mappings are reported next to other failures", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 400, "cause": {"type": "mapper_parsing_exception", "reason": "failed to parse"}},
					{"index": "b", "id": "2", "status": 500, "cause": {"type": "illegal_state_exception", "reason": "unexpected"}}
				]}}`,
			})

			_, err := wait()
			Expect(err).To(HaveOccurred())
		})

		It("should not take other cluster blocks for a write block", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 403, "cause": {"type": "cluster_block_exception", "reason": "index [b] blocked by: [FORBIDDEN/12/index read-only / allow delete (api)];"}}
				]}}`,
			})

			_, err := wait()
			Expect(err).To(HaveOccurred())
		})

		It("should report a write block when version conflicts are reported too", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 409, "cause": {"type": "version_conflict_engine_exception", "reason": "document already exists"}},
					{"index": "b", "id": "2", "status": 403, "cause": {"type": "cluster_block_exception", "reason": "index [b] blocked by: [FORBIDDEN/8/index write (api)];"}}
				]}}`,
			})

			res, err := wait()
			Expect(err).ToNot(HaveOccurred())

			left, ok := res.GetLeft()
			Expect(ok).To(BeTrue())
			Expect(left.Type()).To(Equal(actions.TargetIndexHadWriteBlockType))
		})

		It("should fail on unexpected failures", func() {
			respondWith(helpers.FakeElasticsearchResponse{
				StatusCode: http.StatusOK,
				Body: `{"completed": true, "task": {}, "response": {"failures": [
					{"index": "b", "id": "1", "status": 500, "cause": {"type": "illegal_state_exception", "reason": "unexpected"}}
				]}}`,
			})

			_, err := wait()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("reindex failed with the following failures"))
		})
	})
})
