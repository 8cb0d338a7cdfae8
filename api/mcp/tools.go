package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/sassy/api/search"
	"github.com/papercomputeco/sassy/pkg/memory"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall memories about the user. Returns stored facts, preferences, reminders and past interactions ranked by relevance to the query text."

	rememberToolName    = "memory_remember"
	rememberDescription = "Store a new memory about the user. The memory is classified automatically unless a kind is given."
)

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Query string `json:"query" jsonschema:"the text to recall memories about"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of memories to return (default: 5)"`
	Kind  string `json:"kind,omitempty" jsonschema:"only return memories of this kind, e.g. preference or reminder"`
}

// RememberInput represents the input arguments for the memory_remember tool.
type RememberInput struct {
	Content    string   `json:"content" jsonschema:"the memory text to store"`
	Kind       string   `json:"kind,omitempty" jsonschema:"memory kind; leave empty to classify automatically"`
	Context    string   `json:"context,omitempty" jsonschema:"free-form origin of the memory"`
	Categories []string `json:"categories,omitempty" jsonschema:"extra category tags"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, search.SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), search.SearchOutput{}, nil
	}

	output := search.Search(ctx, search.SearchInput{
		Query: input.Query,
		Limit: input.Limit,
		Kind:  input.Kind,
	}, s.config.Engine, s.config.Logger)

	res, err := jsonResult(output)
	if err != nil {
		s.config.Logger.Error("failed to serialize recall results", "error", err)
		return errorResult("Failed to serialize results: %v", err), search.SearchOutput{}, nil
	}
	return res, output, nil
}

func (s *Server) handleRemember(ctx context.Context, _ *mcp.CallToolRequest, input RememberInput) (*mcp.CallToolResult, memory.WriteResult, error) {
	if strings.TrimSpace(input.Content) == "" {
		return errorResult("content is required"), memory.WriteResult{}, nil
	}

	s.config.Logger.Debug("MCP remember request", "kind", input.Kind)

	output := s.config.Engine.Write(ctx, memory.WriteParams{
		Content:    input.Content,
		Kind:       input.Kind,
		Context:    input.Context,
		Categories: input.Categories,
	})
	if !output.Stored && !output.Indexed {
		return errorResult("memory could not be stored"), output, nil
	}

	res, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize result: %v", err), memory.WriteResult{}, nil
	}
	return res, output, nil
}
