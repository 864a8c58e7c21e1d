// Package mcp provides an MCP (Model Context Protocol) server exposing
// the keepsake memory operations as typed tools.
//
// This is the fixed, typed tool-calling boundary: one tool per verb,
// bound by name, with structured inputs and outputs. The LLM layer
// decides when to call; this package only reacts.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/utils"
)

type Config struct {
	// Coordinator executes the memory operations.
	Coordinator *coordinator.Coordinator

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "keepsake",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// One typed tool per verb, bound by name.
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        storeToolName,
		Description: storeDescription,
	}, s.handleStore)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        queryToolName,
		Description: queryDescription,
	}, s.handleQuery)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        queryTopicToolName,
		Description: queryTopicDescription,
	}, s.handleQueryByTopic)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        updateToolName,
		Description: updateDescription,
	}, s.handleUpdate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        deleteToolName,
		Description: deleteDescription,
	}, s.handleDelete)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listToolName,
		Description: listDescription,
	}, s.handleList)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        detailsToolName,
		Description: detailsDescription,
	}, s.handleDetails)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        statsToolName,
		Description: statsDescription,
	}, s.handleStats)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        clearToolName,
		Description: clearDescription,
	}, s.handleClear)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        syncStatusToolName,
		Description: syncStatusDescription,
	}, s.handleSyncStatus)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the streamable HTTP handler for mounting.
func (s *Server) Handler() http.Handler {
	return s.handler
}
