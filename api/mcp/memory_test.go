package mcp

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/dedup"
	"github.com/keepsakehq/keepsake/pkg/store/inmemory"
	"github.com/keepsakehq/keepsake/pkg/topic"
	testutils "github.com/keepsakehq/keepsake/pkg/utils/test"
)

func TestMCP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MCP Suite")
}

var _ = Describe("MCP Server", func() {
	var (
		server    *Server
		graphMock *testutils.MockGraphDriver
		coord     *coordinator.Coordinator
		ctx       context.Context
		alice     UserInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		detector := dedup.NewDetector(dedup.Config{})
		graphMock = testutils.NewMockGraphDriver()

		var err error
		coord, err = coordinator.NewCoordinator(coordinator.Config{
			Local:      inmemory.NewDriver(detector),
			Graph:      graphMock,
			Classifier: topic.NewClassifier(nil),
			Detector:   detector,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			Coordinator: coord,
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		alice = UserInput{UserID: "alice", UserName: "Alice"}
	})

	store := func(content string) StoreOutput {
		res, output, err := server.handleStore(ctx, nil, StoreInput{
			UserInput: alice,
			Content:   content,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		return output
	}

	Describe("NewServer", func() {
		It("returns an error when the coordinator is nil", func() {
			_, err := NewServer(Config{Logger: zap.NewNop()})
			Expect(err).To(MatchError(ContainSubstring("coordinator is required")))
		})

		It("returns an error when the logger is nil", func() {
			_, err := NewServer(Config{Coordinator: coord})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates an empty server when noop is set", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("memory_store", func() {
		It("stores a statement and reports the outcome", func() {
			output := store("My sister Anna lives in Portland")

			Expect(output.Result.Status).To(Equal(coordinator.StatusSuccess))
			Expect(output.Result.Record.Topics).To(ConsistOf("family"))
			Expect(output.Detail).To(Equal("Saved."))
		})

		It("flags duplicates as tool errors with the structured result attached", func() {
			store("My sister Anna lives in Portland")

			res, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput: alice,
				Content:   "My sister Anna lives in Portland",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Result.Status).To(Equal(coordinator.StatusDuplicateExact))
			Expect(output.Detail).To(ContainSubstring("already remember"))
		})

		It("requires a user id", func() {
			res, _, err := server.handleStore(ctx, nil, StoreInput{Content: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("rejects a malformed birth date", func() {
			res, _, err := server.handleStore(ctx, nil, StoreInput{
				UserInput: UserInput{UserID: "alice", BirthDate: "last tuesday"},
				Content:   "hello",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("timestamps with the delta year", func() {
			delta := 10
			res, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput: UserInput{UserID: "dan", BirthDate: "1960-03-15", DeltaYear: &delta},
				Content:   "we moved to the farm",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Result.Record.CreatedAt.Year()).To(Equal(1970))
		})

		It("passes proxy provenance through", func() {
			res, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput:  alice,
				Content:    "dentist appointment on Tuesday",
				IsProxy:    true,
				ProxyAgent: "calendar-agent",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Result.Record.IsProxy).To(BeTrue())
			Expect(output.Result.Record.Confidence).To(Equal(1.0))
		})

		It("honors an explicit confidence of zero over cognitive state", func() {
			cs := 50
			zero := 0.0
			res, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput:  UserInput{UserID: "erin", CognitiveState: &cs},
				Content:    "I might have left the oven on",
				Confidence: &zero,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Result.Record.Confidence).To(BeZero())
		})

		It("falls back to cognitive state when confidence is absent", func() {
			cs := 50
			_, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput: UserInput{UserID: "erin", CognitiveState: &cs},
				Content:   "I might have left the oven on",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Result.Record.Confidence).To(Equal(0.5))
		})

		It("rejects an out-of-range explicit confidence", func() {
			bad := -0.2
			res, output, err := server.handleStore(ctx, nil, StoreInput{
				UserInput:  alice,
				Content:    "I might have left the oven on",
				Confidence: &bad,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Result.Status).To(Equal(coordinator.StatusValidationError))
		})
	})

	Describe("memory_query", func() {
		It("returns ranked results", func() {
			store("I love gardening in spring")
			store("my favorite dish is lasagna")

			res, output, err := server.handleQuery(ctx, nil, QueryInput{
				UserInput: alice,
				Query:     "gardening",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Results).To(HaveLen(1))
			Expect(output.Results[0].Record.Content).To(Equal("I love gardening in spring"))
		})

		It("requires a query", func() {
			res, _, err := server.handleQuery(ctx, nil, QueryInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("returns an empty slice rather than nil", func() {
			_, output, err := server.handleQuery(ctx, nil, QueryInput{
				UserInput: alice,
				Query:     "submarine",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Results).NotTo(BeNil())
			Expect(output.Results).To(BeEmpty())
		})
	})

	Describe("memory_query_topic", func() {
		It("expands topic vocabulary", func() {
			store("I studied physics at university")

			res, output, err := server.handleQueryByTopic(ctx, nil, QueryTopicInput{
				UserInput: alice,
				Topics:    []string{"education"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Results).To(HaveLen(1))
		})

		It("requires at least one topic", func() {
			res, _, err := server.handleQueryByTopic(ctx, nil, QueryTopicInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("memory_update", func() {
		It("replaces content by id", func() {
			stored := store("I love gardening in spring")

			res, output, err := server.handleUpdate(ctx, nil, UpdateInput{
				UserInput: alice,
				ID:        stored.Result.Record.ID,
				Content:   "I went to the doctor about my allergy",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Result.Record.Topics).To(ConsistOf("health"))
		})

		It("requires an id", func() {
			res, _, err := server.handleUpdate(ctx, nil, UpdateInput{
				UserInput: alice,
				Content:   "new content",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("flags an unknown id as an error result", func() {
			res, output, err := server.handleUpdate(ctx, nil, UpdateInput{
				UserInput: alice,
				ID:        "missing",
				Content:   "new content",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(output.Result.Status).To(Equal(coordinator.StatusValidationError))
		})
	})

	Describe("memory_delete", func() {
		It("deletes from both stores", func() {
			stored := store("I love gardening in spring")

			res, output, err := server.handleDelete(ctx, nil, DeleteInput{
				UserInput: alice,
				ID:        stored.Result.Record.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Report.LocalDeleted).To(BeTrue())
			Expect(output.Report.GraphDeleted).To(BeTrue())
		})

		It("reports an unknown id as a tool error", func() {
			res, _, err := server.handleDelete(ctx, nil, DeleteInput{
				UserInput: alice,
				ID:        "missing",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("memory_list and memory_details", func() {
		It("lists contents", func() {
			store("I love gardening in spring")

			res, output, err := server.handleList(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Memories).To(ConsistOf("I love gardening in spring"))
		})

		It("returns an empty slice for a fresh user", func() {
			_, output, err := server.handleList(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Memories).NotTo(BeNil())
			Expect(output.Memories).To(BeEmpty())
		})

		It("returns full records with metadata", func() {
			store("I love gardening in spring")

			_, output, err := server.handleDetails(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Records).To(HaveLen(1))
			Expect(output.Records[0].Topics).To(ConsistOf("hobbies"))
		})
	})

	Describe("memory_stats", func() {
		It("summarizes the owner's memories", func() {
			store("My sister Anna lives in Portland")
			store("I went to the doctor with my mom")

			_, output, err := server.handleStats(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Stats.Total).To(Equal(2))
			Expect(output.Stats.Topics).To(HaveKeyWithValue("family", 2))
		})
	})

	Describe("memory_clear", func() {
		It("refuses to run without the confirm flag", func() {
			store("I love gardening in spring")

			res, _, err := server.handleClear(ctx, nil, ClearInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())

			_, listOutput, err := server.handleList(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(listOutput.Memories).To(HaveLen(1))
		})

		It("clears everything when confirmed", func() {
			store("I love gardening in spring")
			store("my favorite dish is lasagna")

			res, output, err := server.handleClear(ctx, nil, ClearInput{UserInput: alice, Confirm: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Report.LocalCleared).To(Equal(2))
			Expect(output.Report.LocalVerified).To(BeTrue())
		})
	})

	Describe("memory_sync_status", func() {
		It("reports the stores in sync", func() {
			store("I love gardening in spring")

			_, output, err := server.handleSyncStatus(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Status.LocalCount).To(Equal(1))
			Expect(output.Status.InSync).To(BeTrue())
		})

		It("reports a graph outage without failing", func() {
			store("I love gardening in spring")
			graphMock.Unavailable = true

			res, output, err := server.handleSyncStatus(ctx, nil, ListInput{UserInput: alice})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(output.Status.GraphAvailable).To(BeFalse())
			Expect(output.Status.GraphError).NotTo(BeEmpty())
		})
	})
})
