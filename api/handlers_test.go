package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
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

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("API handlers", func() {
	var (
		server    *Server
		local     *inmemory.Driver
		graphMock *testutils.MockGraphDriver
	)

	jsonRequest := func(method, path string, body any) *http.Response {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req, err := http.NewRequest(method, path, bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(data, out)).To(Succeed())
	}

	alicePayload := UserPayload{ID: "alice", Name: "Alice"}

	storeMemory := func(text string) StoreResponse {
		resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
			User: alicePayload,
			Text: text,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var body StoreResponse
		decode(resp, &body)
		return body
	}

	BeforeEach(func() {
		detector := dedup.NewDetector(dedup.Config{})
		local = inmemory.NewDriver(detector)
		graphMock = testutils.NewMockGraphDriver()

		coord, err := coordinator.NewCoordinator(coordinator.Config{
			Local:      local,
			Graph:      graphMock,
			Classifier: topic.NewClassifier(nil),
			Detector:   detector,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, coord, zap.NewNop())
	})

	Describe("GET /ping", func() {
		It("responds pong", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("POST /memories", func() {
		It("stores a memory and returns 201", func() {
			body := storeMemory("My sister Anna lives in Portland")

			Expect(body.Status).To(Equal(coordinator.StatusSuccess))
			Expect(body.Record).NotTo(BeNil())
			Expect(body.Record.Topics).To(ConsistOf("family"))
			Expect(body.GraphSynced).To(BeTrue())
			Expect(body.Detail).To(Equal("Saved."))
		})

		It("returns 409 for duplicates", func() {
			storeMemory("My sister Anna lives in Portland")

			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
				User: alicePayload,
				Text: "My sister Anna lives in Portland",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))

			var body StoreResponse
			decode(resp, &body)
			Expect(body.Status).To(Equal(coordinator.StatusDuplicateExact))
			Expect(body.Detail).To(ContainSubstring("already remember"))
		})

		It("returns 400 for empty content", func() {
			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
				User: alicePayload,
				Text: "   ",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body StoreResponse
			decode(resp, &body)
			Expect(body.Status).To(Equal(coordinator.StatusContentEmpty))
		})

		It("returns 400 when the user id is missing", func() {
			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{Text: "hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(ContainSubstring("user.id"))
		})

		It("returns 400 for a malformed birth date", func() {
			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
				User: UserPayload{ID: "alice", BirthDate: "last tuesday"},
				Text: "hello",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed body", func() {
			req, err := http.NewRequest(http.MethodPost, "/memories", bytes.NewReader([]byte("{")))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("passes explicit confidence through", func() {
			conf := 0.4
			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
				User:       alicePayload,
				Text:       "I think I parked on level 3",
				Confidence: &conf,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body StoreResponse
			decode(resp, &body)
			Expect(body.Record.Confidence).To(Equal(0.4))
		})

		It("reports local-only storage with a 201", func() {
			graphMock.Unavailable = true

			resp := jsonRequest(http.MethodPost, "/memories", StoreRequest{
				User: alicePayload,
				Text: "I love gardening in spring",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body StoreResponse
			decode(resp, &body)
			Expect(body.Status).To(Equal(coordinator.StatusSuccessLocalOnly))
			Expect(body.GraphSynced).To(BeFalse())
		})
	})

	Describe("POST /memories/query", func() {
		It("returns ranked results", func() {
			storeMemory("I love gardening in spring")
			storeMemory("my favorite dish is lasagna")

			resp := jsonRequest(http.MethodPost, "/memories/query", QueryRequest{
				User: alicePayload,
				Text: "gardening",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Results []coordinator.QueryResult `json:"results"`
				Count   int                       `json:"count"`
			}
			decode(resp, &body)
			Expect(body.Count).To(Equal(1))
			Expect(body.Results[0].Record.Content).To(Equal("I love gardening in spring"))
		})

		It("returns an empty result set cleanly", func() {
			resp := jsonRequest(http.MethodPost, "/memories/query", QueryRequest{
				User: alicePayload,
				Text: "submarine",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count int `json:"count"`
			}
			decode(resp, &body)
			Expect(body.Count).To(BeZero())
		})
	})

	Describe("POST /memories/topics", func() {
		It("filters by expanded topic", func() {
			storeMemory("I studied physics at university")
			storeMemory("my favorite dish is lasagna")

			resp := jsonRequest(http.MethodPost, "/memories/topics", TopicQueryRequest{
				User:   alicePayload,
				Topics: []string{"education"},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Results []coordinator.QueryResult `json:"results"`
				Count   int                       `json:"count"`
			}
			decode(resp, &body)
			Expect(body.Count).To(Equal(1))
			Expect(body.Results[0].Record.Content).To(ContainSubstring("university"))
		})
	})

	Describe("POST /memories/list and /memories/details", func() {
		It("lists contents without metadata", func() {
			storeMemory("I love gardening in spring")

			resp := jsonRequest(http.MethodPost, "/memories/list", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Memories []string `json:"memories"`
				Count    int      `json:"count"`
			}
			decode(resp, &body)
			Expect(body.Count).To(Equal(1))
			Expect(body.Memories).To(ConsistOf("I love gardening in spring"))
		})

		It("returns full records with metadata", func() {
			storeMemory("I love gardening in spring")

			resp := jsonRequest(http.MethodPost, "/memories/details", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Records []struct {
					ID         string   `json:"id"`
					Topics     []string `json:"topics"`
					Confidence float64  `json:"confidence"`
				} `json:"records"`
			}
			decode(resp, &body)
			Expect(body.Records).To(HaveLen(1))
			Expect(body.Records[0].ID).NotTo(BeEmpty())
			Expect(body.Records[0].Topics).To(ConsistOf("hobbies"))
			Expect(body.Records[0].Confidence).To(Equal(1.0))
		})
	})

	Describe("POST /memories/stats", func() {
		It("summarizes the owner's memory", func() {
			storeMemory("My sister Anna lives in Portland")
			storeMemory("I went to the doctor with my mom")

			resp := jsonRequest(http.MethodPost, "/memories/stats", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats coordinator.Stats
			decode(resp, &stats)
			Expect(stats.Total).To(Equal(2))
			Expect(stats.Topics).To(HaveKeyWithValue("family", 2))
		})
	})

	Describe("POST /memories/sync-status", func() {
		It("reports the stores in sync", func() {
			storeMemory("I love gardening in spring")

			resp := jsonRequest(http.MethodPost, "/memories/sync-status", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var status coordinator.SyncStatus
			decode(resp, &status)
			Expect(status.LocalCount).To(Equal(1))
			Expect(status.GraphCount).To(Equal(1))
			Expect(status.InSync).To(BeTrue())
		})

		It("reports a graph outage without failing", func() {
			storeMemory("I love gardening in spring")
			graphMock.Unavailable = true

			resp := jsonRequest(http.MethodPost, "/memories/sync-status", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var status coordinator.SyncStatus
			decode(resp, &status)
			Expect(status.GraphAvailable).To(BeFalse())
			Expect(status.GraphError).NotTo(BeEmpty())
		})
	})

	Describe("PUT /memories/:id", func() {
		It("updates a record", func() {
			stored := storeMemory("I love gardening in spring")

			resp := jsonRequest(http.MethodPut, fmt.Sprintf("/memories/%s", stored.Record.ID), UpdateRequest{
				User: alicePayload,
				Text: "I went to the doctor about my allergy",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body StoreResponse
			decode(resp, &body)
			Expect(body.Record.Content).To(Equal("I went to the doctor about my allergy"))
			Expect(body.Record.Topics).To(ConsistOf("health"))
		})

		It("returns 400 for an unknown record", func() {
			resp := jsonRequest(http.MethodPut, "/memories/missing", UpdateRequest{
				User: alicePayload,
				Text: "new content",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /memories/:id", func() {
		It("deletes a record and reports both stores", func() {
			stored := storeMemory("I love gardening in spring")

			resp := jsonRequest(http.MethodDelete, fmt.Sprintf("/memories/%s", stored.Record.ID), UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var report coordinator.DeleteReport
			decode(resp, &report)
			Expect(report.LocalDeleted).To(BeTrue())
			Expect(report.GraphDeleted).To(BeTrue())
		})

		It("returns 404 for an unknown record", func() {
			resp := jsonRequest(http.MethodDelete, "/memories/missing", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /memories/clear", func() {
		It("clears everything for the owner", func() {
			storeMemory("I love gardening in spring")
			storeMemory("my favorite dish is lasagna")

			resp := jsonRequest(http.MethodPost, "/memories/clear", UserRequest{User: alicePayload})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var report coordinator.ClearReport
			decode(resp, &report)
			Expect(report.LocalCleared).To(Equal(2))
			Expect(report.LocalVerified).To(BeTrue())
			Expect(report.GraphCleared).To(Equal(2))

			count, err := local.Count(context.Background(), "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})
})
