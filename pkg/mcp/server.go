// Package mcp exposes the memory engine as a Model Context Protocol server
// over stdio. Tool failures come back as structured results, never as
// protocol errors, so assistant sessions keep working when persistence or
// the embedding provider is down.
package mcp

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/mnemo-ai/mnemo/pkg/memory"
)

const serverName = "mnemo"

// Server wraps the MCP SDK server with memory tools registered
type Server struct {
	engine *memory.Engine
	logger zerolog.Logger
	server *sdk.Server
}

// New builds an MCP server exposing the memory tools
func New(engine *memory.Engine, version string, logger zerolog.Logger) *Server {
	s := &Server{
		engine: engine,
		logger: logger,
		server: sdk.NewServer(&sdk.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
	}

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "store_memory",
		Description: "Store a new memory with content, type, importance and tags",
	}, s.storeMemory)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "update_memory",
		Description: "Update fields of an existing memory, re-deriving its embedding when the content changes",
	}, s.updateMemory)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "recall_memories",
		Description: "Recall stored memories ranked by relevance to a query, or list recent memories when the query is empty",
	}, s.recallMemories)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "update_embeddings_for_existing_memories",
		Description: "Compute embeddings for stored memories that lack a current one",
	}, s.updateEmbeddings)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_memory_summary",
		Description: "Summarize stored memories: totals, counts by type, average importance and time range",
	}, s.getSummary)

	return s
}

// Run serves MCP over stdio until the context is canceled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Str("server", serverName).Msg("MCP server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

type storeMemoryParams struct {
	MemoryType       string            `json:"memory_type" jsonschema:"Category of the memory, e.g. fact, preference, decision"`
	Content          any               `json:"content" jsonschema:"Memory content, either plain text or a structured document"`
	Title            string            `json:"title,omitempty" jsonschema:"Short human-readable title"`
	Importance       *float64          `json:"importance,omitempty" jsonschema:"Importance between 0 and 1, defaults to 0.5"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty" jsonschema:"Free-form emotional annotations"`
	Tags             []string          `json:"tags,omitempty" jsonschema:"Tags for later filtering"`
	ProjectID        string            `json:"project_id,omitempty" jsonschema:"Project scope, defaults to the configured project"`
}

func (s *Server) storeMemory(ctx context.Context, req *sdk.CallToolRequest, params *storeMemoryParams) (*sdk.CallToolResult, any, error) {
	result := memory.StoreMemory(ctx, s.engine, memory.StoreMemoryParams{
		MemoryType:       params.MemoryType,
		Content:          params.Content,
		Title:            params.Title,
		Importance:       params.Importance,
		EmotionalContext: params.EmotionalContext,
		Tags:             params.Tags,
		ProjectID:        params.ProjectID,
	})
	s.logResult("store_memory", result.Error)
	return textResult(result)
}

type updateMemoryParams struct {
	MemoryID         string            `json:"memory_id" jsonschema:"Identifier of the memory to update"`
	Content          any               `json:"content,omitempty" jsonschema:"Replacement content, either plain text or a structured document"`
	Title            *string           `json:"title,omitempty" jsonschema:"Replacement title"`
	Importance       *float64          `json:"importance,omitempty" jsonschema:"Replacement importance between 0 and 1"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty" jsonschema:"Replacement emotional annotations"`
	AddTags          []string          `json:"add_tags,omitempty" jsonschema:"Tags to append to the existing tag set"`
}

func (s *Server) updateMemory(ctx context.Context, req *sdk.CallToolRequest, params *updateMemoryParams) (*sdk.CallToolResult, any, error) {
	result := memory.UpdateMemory(ctx, s.engine, memory.UpdateMemoryParams{
		MemoryID:         params.MemoryID,
		Content:          params.Content,
		Title:            params.Title,
		Importance:       params.Importance,
		EmotionalContext: params.EmotionalContext,
		AddTags:          params.AddTags,
	})
	s.logResult("update_memory", result.Error)
	return textResult(result)
}

type recallMemoriesParams struct {
	Query         string   `json:"query,omitempty" jsonschema:"Natural language query, empty lists recent memories"`
	ProjectID     string   `json:"project_id,omitempty" jsonschema:"Project scope, defaults to the configured project"`
	MemoryType    string   `json:"memory_type,omitempty" jsonschema:"Restrict results to one memory type"`
	Tags          []string `json:"tags,omitempty" jsonschema:"Only return memories carrying every listed tag"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum number of results"`
	MinImportance float64  `json:"min_importance,omitempty" jsonschema:"Exclude memories below this importance"`
}

func (s *Server) recallMemories(ctx context.Context, req *sdk.CallToolRequest, params *recallMemoriesParams) (*sdk.CallToolResult, any, error) {
	result := memory.RecallMemories(ctx, s.engine, memory.RecallMemoriesParams{
		Query:         params.Query,
		ProjectID:     params.ProjectID,
		MemoryType:    params.MemoryType,
		Tags:          params.Tags,
		Limit:         params.Limit,
		MinImportance: params.MinImportance,
	})
	s.logResult("recall_memories", result.Error)
	return textResult(result)
}

type updateEmbeddingsParams struct {
	BatchSize int `json:"batch_size,omitempty" jsonschema:"Maximum number of memories to process in this run"`
}

func (s *Server) updateEmbeddings(ctx context.Context, req *sdk.CallToolRequest, params *updateEmbeddingsParams) (*sdk.CallToolResult, any, error) {
	result := memory.UpdateEmbeddings(ctx, s.engine, memory.UpdateEmbeddingsParams{
		BatchSize: params.BatchSize,
	})
	s.logResult("update_embeddings_for_existing_memories", result.Error)
	return textResult(result)
}

type getSummaryParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project scope, empty summarizes all projects"`
}

func (s *Server) getSummary(ctx context.Context, req *sdk.CallToolRequest, params *getSummaryParams) (*sdk.CallToolResult, any, error) {
	result := memory.GetSummary(ctx, s.engine, memory.GetSummaryParams{
		ProjectID: params.ProjectID,
	})
	s.logResult("get_memory_summary", result.Error)
	return textResult(result)
}

func (s *Server) logResult(tool string, opErr *memory.OperationError) {
	if opErr == nil {
		s.logger.Debug().Str("tool", tool).Msg("Tool call succeeded")
		return
	}
	s.logger.Warn().
		Str("tool", tool).
		Str("kind", string(opErr.Kind)).
		Str("message", opErr.Message).
		Msg("Tool call failed")
}

func textResult(v any) (*sdk.CallToolResult, any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: string(raw)},
		},
	}, v, nil
}
