// Package mcp provides an MCP (Model Context Protocol) server exposing the
// sassy memory engine as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/utils"
)

// Engine is the part of the memory engine the tools use.
type Engine interface {
	Search(ctx context.Context, p memory.SearchParams) []memory.Hit
	Write(ctx context.Context, p memory.WriteParams) memory.WriteResult
}

type Config struct {
	// Engine serves memory_recall and memory_remember.
	Engine Engine

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
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
			Name:    "sassy",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Engine == nil {
			return nil, errors.New("memory engine is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        recallToolName,
			Description: recallDescription,
		}, s.handleRecall)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        rememberToolName,
			Description: rememberDescription,
		}, s.handleRemember)
	}

	s.mcpServer = mcpServer

	// Stateless streamable HTTP handler
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

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
