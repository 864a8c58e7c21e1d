package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/record"
)

var (
	storeToolName    = "memory_store"
	storeDescription = "Store a statement about the user in the memory engine. The statement is deduplicated, classified into topics, scored for confidence and written to both the local and graph stores. Returns the stored record, or the rejection reason when the statement is a duplicate or invalid."

	queryToolName    = "memory_query"
	queryDescription = "Query the user's memories by free text. The query is expanded through the topic vocabulary before matching, so 'mom' also finds 'family' memories. Returns matching records ranked by relevance."

	queryTopicToolName    = "memory_query_topic"
	queryTopicDescription = "Query the user's memories by topic names (e.g. family, health, food). Topic terms are expanded through the topic vocabulary before matching."

	updateToolName    = "memory_update"
	updateDescription = "Replace the content of an existing memory record by id. The new content is re-deduplicated (excluding the record being updated), re-classified and re-synced to the graph store."

	deleteToolName    = "memory_delete"
	deleteDescription = "Delete a memory record by id from both the local and graph stores. Local deletion is authoritative; a graph failure is reported but does not fail the delete."

	listToolName    = "memory_list"
	listDescription = "List the content of all of the user's memories, most recent first."

	detailsToolName    = "memory_details"
	detailsDescription = "Return all of the user's memory records with full metadata: topics, confidence, provenance and timestamps."

	statsToolName    = "memory_stats"
	statsDescription = "Return summary statistics for the user's memories: total count, per-topic histogram and the most recent record."

	clearToolName    = "memory_clear"
	clearDescription = "Delete ALL of the user's memories from the local store, the graph store and the staging area. Destructive and not idempotent-safe to call casually; returns a per-subsystem report."

	syncStatusToolName    = "memory_sync_status"
	syncStatusDescription = "Compare the local and graph store record counts for the user and report whether the two are in sync."
)

// UserInput carries the acting user on every tool call. Only the id is
// required; the rest refines confidence scoring and timestamping.
type UserInput struct {
	UserID         string `json:"user_id" jsonschema:"the id of the user whose memories are being accessed"`
	UserName       string `json:"user_name,omitempty" jsonschema:"the user's display name, used when restating facts in the third person"`
	CognitiveState *int   `json:"cognitive_state,omitempty" jsonschema:"optional 0-100 cognitive assessment used as a fallback confidence source"`
	BirthDate      string `json:"birth_date,omitempty" jsonschema:"the user's date of birth in YYYY-MM-DD form"`
	DeltaYear      *int   `json:"delta_year,omitempty" jsonschema:"years since birth the statement refers to; timestamps the memory at birth year plus delta"`
}

func (in UserInput) toUser() (*record.User, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	user := &record.User{
		ID:             in.UserID,
		Name:           in.UserName,
		CognitiveState: in.CognitiveState,
		DeltaYear:      in.DeltaYear,
	}

	if in.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", in.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("invalid birth_date %q: expected YYYY-MM-DD", in.BirthDate)
		}
		user.BirthDate = &birth
	}

	if err := user.Validate(time.Now()); err != nil {
		return nil, err
	}
	return user, nil
}

// StoreInput represents the input arguments for the MCP memory_store tool.
type StoreInput struct {
	UserInput
	Content    string `json:"content" jsonschema:"the statement to remember"`
	IsProxy    bool   `json:"is_proxy,omitempty" jsonschema:"whether the statement was authored by an automated collaborator rather than the user"`
	ProxyAgent string `json:"proxy_agent,omitempty" jsonschema:"the name of the authoring collaborator when is_proxy is set"`
	// Confidence is a pointer so an explicit 0 is distinguishable from an
	// absent field.
	Confidence *float64 `json:"confidence,omitempty" jsonschema:"optional explicit reliability score between 0 and 1; omit to let the engine score it"`
}

// StoreOutput represents the structured outcome of a store.
type StoreOutput struct {
	Result *coordinator.StoreResult `json:"result"`
	Detail string                   `json:"detail"`
}

// handleStore processes a memory store request via MCP.
func (s *Server) handleStore(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, StoreOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), StoreOutput{}, nil
	}

	opts := coordinator.DefaultStoreOptions()
	opts.IsProxy = input.IsProxy
	opts.ProxyAgent = input.ProxyAgent
	if input.Confidence != nil {
		opts.Confidence = *input.Confidence
	}

	result, err := s.config.Coordinator.Store(ctx, input.Content, user, opts)
	if err != nil {
		return toolError(fmt.Sprintf("Memory store failed: %v", err)), StoreOutput{}, nil
	}

	output := StoreOutput{Result: result, Detail: result.Human()}
	res := toolResult(output)
	if !result.Status.Stored() {
		// Rejections (duplicates, invalid content) are expected
		// outcomes; surface them as errors so the caller reacts, but
		// keep the structured result attached.
		res.IsError = true
	}
	return res, output, nil
}

// QueryInput represents the input arguments for the MCP memory_query tool.
type QueryInput struct {
	UserInput
	Query string `json:"query" jsonschema:"free text to search the user's memories with"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return; 0 means no limit"`
}

// QueryOutput represents the structured output of a memory query.
type QueryOutput struct {
	Results []coordinator.QueryResult `json:"results"`
}

// handleQuery processes a free-text memory query via MCP.
func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), QueryOutput{}, nil
	}
	if input.Query == "" {
		return toolError("query is required"), QueryOutput{}, nil
	}

	results, err := s.config.Coordinator.Query(ctx, input.Query, user, input.Limit)
	if err != nil {
		return toolError(fmt.Sprintf("Memory query failed: %v", err)), QueryOutput{}, nil
	}
	if results == nil {
		results = []coordinator.QueryResult{}
	}

	output := QueryOutput{Results: results}
	return toolResult(output), output, nil
}

// QueryTopicInput represents the input arguments for the MCP
// memory_query_topic tool.
type QueryTopicInput struct {
	UserInput
	Topics []string `json:"topics" jsonschema:"topic names to search for, e.g. family, health, food"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results to return; 0 means no limit"`
}

// handleQueryByTopic processes a topic-scoped memory query via MCP.
func (s *Server) handleQueryByTopic(ctx context.Context, _ *mcp.CallToolRequest, input QueryTopicInput) (*mcp.CallToolResult, QueryOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), QueryOutput{}, nil
	}
	if len(input.Topics) == 0 {
		return toolError("at least one topic is required"), QueryOutput{}, nil
	}

	results, err := s.config.Coordinator.QueryByTopic(ctx, input.Topics, user, input.Limit)
	if err != nil {
		return toolError(fmt.Sprintf("Memory query failed: %v", err)), QueryOutput{}, nil
	}
	if results == nil {
		results = []coordinator.QueryResult{}
	}

	output := QueryOutput{Results: results}
	return toolResult(output), output, nil
}

// UpdateInput represents the input arguments for the MCP memory_update tool.
type UpdateInput struct {
	UserInput
	ID      string `json:"id" jsonschema:"the id of the memory record to update"`
	Content string `json:"content" jsonschema:"the replacement statement"`
}

// handleUpdate processes a memory update request via MCP.
func (s *Server) handleUpdate(ctx context.Context, _ *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, StoreOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), StoreOutput{}, nil
	}
	if input.ID == "" {
		return toolError("id is required"), StoreOutput{}, nil
	}

	result, err := s.config.Coordinator.Update(ctx, input.ID, input.Content, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory update failed: %v", err)), StoreOutput{}, nil
	}

	output := StoreOutput{Result: result, Detail: result.Human()}
	res := toolResult(output)
	if !result.Status.Stored() {
		res.IsError = true
	}
	return res, output, nil
}

// DeleteInput represents the input arguments for the MCP memory_delete tool.
type DeleteInput struct {
	UserInput
	ID string `json:"id" jsonschema:"the id of the memory record to delete"`
}

// DeleteOutput represents the structured outcome of a delete.
type DeleteOutput struct {
	Report *coordinator.DeleteReport `json:"report"`
}

// handleDelete processes a memory delete request via MCP.
func (s *Server) handleDelete(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), DeleteOutput{}, nil
	}
	if input.ID == "" {
		return toolError("id is required"), DeleteOutput{}, nil
	}

	report, err := s.config.Coordinator.Delete(ctx, input.ID, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory delete failed: %v", err)), DeleteOutput{}, nil
	}

	output := DeleteOutput{Report: report}
	return toolResult(output), output, nil
}

// ListInput represents the input arguments for the MCP memory_list tool.
type ListInput struct {
	UserInput
}

// ListOutput represents the content-only listing of an owner's memories.
type ListOutput struct {
	Memories []string `json:"memories"`
}

// handleList processes a memory list request via MCP.
func (s *Server) handleList(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), ListOutput{}, nil
	}

	memories, err := s.config.Coordinator.ListAll(ctx, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory list failed: %v", err)), ListOutput{}, nil
	}
	if memories == nil {
		memories = []string{}
	}

	output := ListOutput{Memories: memories}
	return toolResult(output), output, nil
}

// DetailsOutput represents the full-metadata listing of an owner's memories.
type DetailsOutput struct {
	Records []*record.Record `json:"records"`
}

// handleDetails processes a memory details request via MCP.
func (s *Server) handleDetails(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, DetailsOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), DetailsOutput{}, nil
	}

	records, err := s.config.Coordinator.GetAll(ctx, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory details failed: %v", err)), DetailsOutput{}, nil
	}
	if records == nil {
		records = []*record.Record{}
	}

	output := DetailsOutput{Records: records}
	return toolResult(output), output, nil
}

// StatsOutput represents the summary statistics for an owner's memories.
type StatsOutput struct {
	Stats *coordinator.Stats `json:"stats"`
}

// handleStats processes a memory stats request via MCP.
func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, StatsOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), StatsOutput{}, nil
	}

	stats, err := s.config.Coordinator.GetStats(ctx, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory stats failed: %v", err)), StatsOutput{}, nil
	}

	output := StatsOutput{Stats: stats}
	return toolResult(output), output, nil
}

// ClearInput represents the input arguments for the MCP memory_clear tool.
type ClearInput struct {
	UserInput
	Confirm bool `json:"confirm" jsonschema:"must be true; guards against accidental full wipes"`
}

// ClearOutput represents the per-subsystem outcome of a clear.
type ClearOutput struct {
	Report *coordinator.ClearReport `json:"report"`
}

// handleClear processes a clear-all request via MCP.
func (s *Server) handleClear(ctx context.Context, _ *mcp.CallToolRequest, input ClearInput) (*mcp.CallToolResult, ClearOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), ClearOutput{}, nil
	}
	if !input.Confirm {
		return toolError("clearing all memories is destructive; set confirm to true to proceed"), ClearOutput{}, nil
	}

	report, err := s.config.Coordinator.ClearAll(ctx, user)
	if err != nil {
		return toolError(fmt.Sprintf("Memory clear failed: %v", err)), ClearOutput{}, nil
	}

	output := ClearOutput{Report: report}
	return toolResult(output), output, nil
}

// SyncStatusOutput represents the local/graph sync comparison.
type SyncStatusOutput struct {
	Status *coordinator.SyncStatus `json:"status"`
}

// handleSyncStatus processes a sync-status request via MCP.
func (s *Server) handleSyncStatus(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, SyncStatusOutput, error) {
	user, err := input.toUser()
	if err != nil {
		return toolError(err.Error()), SyncStatusOutput{}, nil
	}

	status, err := s.config.Coordinator.GraphEntityCount(ctx, user)
	if err != nil {
		return toolError(fmt.Sprintf("Sync status failed: %v", err)), SyncStatusOutput{}, nil
	}

	output := SyncStatusOutput{Status: status}
	return toolResult(output), output, nil
}

// toolError wraps a message as an MCP error result.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// toolResult serializes output as the result's text content.
func toolResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
