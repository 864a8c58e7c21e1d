package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/confidence"
	"github.com/keepsakehq/keepsake/pkg/coordinator"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StoreRequest is the body for POST /memories.
type StoreRequest struct {
	User       UserPayload `json:"user"`
	Text       string      `json:"text"`
	IsProxy    bool        `json:"is_proxy,omitempty"`
	ProxyAgent string      `json:"proxy_agent,omitempty"`

	// Confidence is optional; absent means "let the resolver decide".
	Confidence *float64 `json:"confidence,omitempty"`
}

// QueryRequest is the body for POST /memories/query.
type QueryRequest struct {
	User  UserPayload `json:"user"`
	Text  string      `json:"text"`
	Limit int         `json:"limit,omitempty"`
}

// TopicQueryRequest is the body for POST /memories/topics.
type TopicQueryRequest struct {
	User   UserPayload `json:"user"`
	Topics []string    `json:"topics"`
	Limit  int         `json:"limit,omitempty"`
}

// UserRequest is the body for the operations that need only identity.
type UserRequest struct {
	User UserPayload `json:"user"`
}

// UpdateRequest is the body for PUT /memories/:id.
type UpdateRequest struct {
	User UserPayload `json:"user"`
	Text string      `json:"text"`
}

// StoreResponse wraps a pipeline result with its user-facing phrasing.
type StoreResponse struct {
	*coordinator.StoreResult
	Detail string `json:"detail"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStore runs the store pipeline and maps the structured status onto
// an HTTP code: stored variants are 201, duplicates 409, rejected input
// 400, and a local store failure 500.
func (s *Server) handleStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	opts := coordinator.DefaultStoreOptions()
	opts.IsProxy = req.IsProxy
	opts.ProxyAgent = req.ProxyAgent
	if req.Confidence != nil {
		opts.Confidence = *req.Confidence
	} else {
		opts.Confidence = confidence.Unset
	}

	result, err := s.coord.Store(c.Context(), req.Text, user, opts)
	if err != nil {
		s.logger.Error("store failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StoreResponse{StoreResult: result, Detail: result.Human()})
	}

	return c.Status(statusCode(result.Status)).JSON(StoreResponse{StoreResult: result, Detail: result.Human()})
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	results, err := s.coord.Query(c.Context(), req.Text, user, req.Limit)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "query failed"})
	}

	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

func (s *Server) handleQueryByTopic(c *fiber.Ctx) error {
	var req TopicQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	results, err := s.coord.QueryByTopic(c.Context(), req.Topics, user, req.Limit)
	if err != nil {
		s.logger.Error("topic query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "query failed"})
	}

	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

func (s *Server) handleListAll(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	contents, err := s.coord.ListAll(c.Context(), user)
	if err != nil {
		s.logger.Error("list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "list failed"})
	}

	return c.JSON(fiber.Map{"memories": contents, "count": len(contents)})
}

func (s *Server) handleGetAll(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	records, err := s.coord.GetAll(c.Context(), user)
	if err != nil {
		s.logger.Error("details failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "details failed"})
	}

	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	stats, err := s.coord.GetStats(c.Context(), user)
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "stats failed"})
	}

	return c.JSON(stats)
}

func (s *Server) handleSyncStatus(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	status, err := s.coord.GraphEntityCount(c.Context(), user)
	if err != nil {
		s.logger.Error("sync status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "sync status failed"})
	}

	return c.JSON(status)
}

func (s *Server) handleClearAll(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	report, err := s.coord.ClearAll(c.Context(), user)
	if err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "clear failed", "report": report})
	}

	return c.JSON(report)
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	result, err := s.coord.Update(c.Context(), id, req.Text, user)
	if err != nil {
		s.logger.Error("update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StoreResponse{StoreResult: result, Detail: result.Human()})
	}

	return c.Status(statusCode(result.Status)).JSON(StoreResponse{StoreResult: result, Detail: result.Human()})
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := req.User.toUser()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	report, err := s.coord.Delete(c.Context(), id, user)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "report": report})
	}

	return c.JSON(report)
}

// statusCode maps a pipeline status onto an HTTP status code. Both stored
// variants are 201; the local-only case is distinguished in the body, not
// the code, since the memory is stored either way.
func statusCode(status coordinator.Status) int {
	switch status {
	case coordinator.StatusSuccess, coordinator.StatusSuccessLocalOnly:
		return fiber.StatusCreated
	case coordinator.StatusDuplicateExact, coordinator.StatusDuplicateSemantic:
		return fiber.StatusConflict
	case coordinator.StatusContentEmpty, coordinator.StatusContentTooLong, coordinator.StatusValidationError:
		return fiber.StatusBadRequest
	case coordinator.StatusStorageError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
