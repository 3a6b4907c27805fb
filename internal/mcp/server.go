package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-form-agent/internal/agent"
	"github.com/a3tai/mcp-form-agent/internal/config"
	"github.com/a3tai/mcp-form-agent/internal/descriptions"
)

// shutdownTimeout bounds the graceful stop of the SSE server
const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *agent.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *agent.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if service == nil {
		return nil, errors.New("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list is fixed
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// add registers a tool, logging every call
func (s *Server) add(tool mcp.Tool, handler toolHandler) {
	name := tool.Name
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		failed := err != nil || (result != nil && result.IsError)
		s.logger.Debug("mcp.tool",
			"tool", name,
			"error", failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	})
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	documentParam := mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Document id or path (paths are loaded on demand)"),
	)
	documentsParam := mcp.WithString("documents",
		mcp.Required(),
		mcp.Description("Comma-separated document ids or paths"),
	)

	s.add(mcp.NewTool(
		"form_load",
		mcp.WithDescription(descriptions.FormLoadDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the form, absolute or relative to the configured directory"),
		),
	), s.handleFormLoad)

	s.add(mcp.NewTool(
		"form_search",
		mcp.WithDescription(descriptions.FormSearchDescription),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	), s.handleFormSearch)

	s.add(mcp.NewTool(
		"form_list",
		mcp.WithDescription(descriptions.FormListDescription),
	), s.handleFormList)

	s.add(mcp.NewTool(
		"form_fields",
		mcp.WithDescription(descriptions.FormFieldsDescription),
		documentParam,
		mcp.WithBoolean("confidence",
			mcp.Description("Also list every labelled match with its position and confidence"),
		),
	), s.handleFormFields)

	s.add(mcp.NewTool(
		"form_tables",
		mcp.WithDescription(descriptions.FormTablesDescription),
		documentParam,
		mcp.WithString("aggregate",
			mcp.Description("Aggregate a column instead of listing tables: sum, avg, min, max or count"),
		),
		mcp.WithString("column",
			mcp.Description("Column header to aggregate (required with aggregate)"),
		),
	), s.handleFormTables)

	s.add(mcp.NewTool(
		"form_classify",
		mcp.WithDescription(descriptions.FormClassifyDescription),
		documentParam,
	), s.handleFormClassify)

	s.add(mcp.NewTool(
		"form_validate",
		mcp.WithDescription(descriptions.FormValidateDescription),
		documentParam,
		mcp.WithString("schema_type",
			mcp.Description("Schema to validate against; defaults to the detected type"),
		),
	), s.handleFormValidate)

	s.add(mcp.NewTool(
		"form_ask",
		mcp.WithDescription(descriptions.FormAskDescription),
		documentParam,
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the form"),
		),
	), s.handleFormAsk)

	s.add(mcp.NewTool(
		"form_ask_multiple",
		mcp.WithDescription(descriptions.FormAskMultipleDescription),
		documentsParam,
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer across the forms"),
		),
	), s.handleFormAskMultiple)

	s.add(mcp.NewTool(
		"form_analyze",
		mcp.WithDescription(descriptions.FormAnalyzeDescription),
		documentsParam,
		mcp.WithString("question",
			mcp.Description("Optional question to answer over all forms"),
		),
	), s.handleFormAnalyze)

	s.add(mcp.NewTool(
		"form_summarize",
		mcp.WithDescription(descriptions.FormSummarizeDescription),
		documentsParam,
		mcp.WithString("style",
			mcp.Description("bullets (default) or narrative; single form only"),
		),
	), s.handleFormSummarize)

	s.add(mcp.NewTool(
		"form_compare",
		mcp.WithDescription(descriptions.FormCompareDescription),
		mcp.WithString("first",
			mcp.Required(),
			mcp.Description("First document id or path"),
		),
		mcp.WithString("second",
			mcp.Required(),
			mcp.Description("Second document id or path"),
		),
	), s.handleFormCompare)

	s.add(mcp.NewTool(
		"form_retrieve",
		mcp.WithDescription(descriptions.FormRetrieveDescription),
		documentsParam,
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of passages to return"),
		),
	), s.handleFormRetrieve)

	s.add(mcp.NewTool(
		"form_export",
		mcp.WithDescription(descriptions.FormExportDescription),
		documentParam,
		mcp.WithString("format",
			mcp.Description("json (default), csv, markdown or xlsx"),
		),
		mcp.WithString("output_path",
			mcp.Description("Optional file to write, inside the configured directory"),
		),
	), s.handleFormExport)

	s.add(mcp.NewTool(
		"form_server_info",
		mcp.WithDescription(descriptions.FormServerInfoDescription),
	), s.handleFormServerInfo)
}

// Handler functions
func (s *Server) handleFormLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.service.LoadForm(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Successfully loaded form: %s\n", doc.Path)
	responseText += fmt.Sprintf("ID: %s\n", doc.ID)
	responseText += fmt.Sprintf("File Type: %s\n", doc.FileType)
	if doc.SchemaType != "" {
		responseText += fmt.Sprintf("Form Type: %s (%s)\n", doc.SchemaType, displayName(doc.SchemaType))
	} else {
		responseText += "Form Type: unclassified\n"
	}
	responseText += fmt.Sprintf("Fields: %d\n", doc.Fields.Len())
	responseText += fmt.Sprintf("Tables: %d\n", len(doc.Tables))
	responseText += fmt.Sprintf("Extraction Confidence: %.2f\n", doc.ExtractionConfidence)

	switch {
	case doc.Fields.Len() == 0 && len(doc.Tables) == 0:
		responseText += "\n⚠️  WARNING: No fields or tables were extracted. Questions will be answered from raw text only.\n"
	case doc.ExtractionConfidence < 0.5:
		responseText += "\n💡 INFO: Low extraction confidence. Check 'form_fields' before relying on answers.\n"
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	result, err := s.service.Search(ctx, optionalString(args, "directory"), optionalString(args, "query"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		responseText := fmt.Sprintf("No forms found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return mcp.NewToolResultText(responseText), nil
	}

	return mcp.NewToolResultText(formatSearchResult(result)), nil
}

func (s *Server) handleFormList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.service.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents loaded. Use 'form_load' to load a form."), nil
	}
	return jsonResult(docs)
}

func (s *Server) handleFormFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	withMatches, err := optionalBool(request.GetArguments(), "confidence")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.service.Fields(ctx, ref, withMatches)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFormTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	if op := optionalString(args, "aggregate"); op != "" {
		result, err := s.service.AggregateTables(ctx, ref, optionalString(args, "column"), op)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
	result, err := s.service.Tables(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFormClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.service.Classify(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFormValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	schemaType := optionalString(request.GetArguments(), "schema_type")

	result, err := s.service.ValidateFields(ctx, ref, schemaType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFormAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.service.Ask(ctx, ref, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAnswer(answer.Answer, answer.Confidence, answer.SourceFields, answer.Context)), nil
}

func (s *Server) handleFormAskMultiple(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := requireList(request, "documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.service.AskMultiple(ctx, refs, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAnswer(answer.Answer, answer.Confidence, answer.SourceFields, answer.Context)), nil
}

func (s *Server) handleFormAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := requireList(request, "documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question := optionalString(request.GetArguments(), "question")

	analysis, err := s.service.Analyze(ctx, refs, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(analysis)
}

func (s *Server) handleFormSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := requireList(request, "documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(refs) > 1 {
		text, err := s.service.SummarizeMultiple(ctx, refs)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	summary, err := s.service.Summarize(ctx, refs[0], optionalString(request.GetArguments(), "style"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(summary.FullText), nil
}

func (s *Server) handleFormCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	first, err := request.RequireString("first")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	second, err := request.RequireString("second")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	comparison, err := s.service.Compare(ctx, first, second)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comparison)
}

func (s *Server) handleFormRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := requireList(request, "documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK, err := optionalInt(request.GetArguments(), "top_k")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snippets, err := s.service.Retrieve(ctx, refs, query, topK)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snippets)
}

func (s *Server) handleFormExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	result, err := s.service.Export(ctx, ref, optionalString(args, "format"), optionalString(args, "output_path"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.OutputPath != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Exported %s as %s to %s (%d bytes)",
			result.DocumentID, result.Format, result.OutputPath, result.Bytes)), nil
	}
	if result.Encoding == "text" {
		return mcp.NewToolResultText(result.Content), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFormServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatServerInfo(result)), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx)
	}
	return fmt.Errorf("unsupported mode: %s", s.config.Mode)
}

// runStdioMode serves MCP over standard input and output until ctx is done
// or the input closes
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("mcp.stdio.start", "dir", s.config.Directory)

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.SSEHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp.sse.start", "address", httpServer.Addr, "dir", s.config.Directory)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("mcp.sse.shutdown", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// SSEHandler returns the HTTP handler serving the SSE and message endpoints
func (s *Server) SSEHandler() http.Handler {
	return server.NewSSEServer(s.mcpServer, server.WithBaseURL(s.config.BaseURL()))
}

// Argument helpers

func optionalString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// optionalInt accepts JSON numbers and numeric strings; absent means 0
func optionalInt(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%s must be a number", key)
}

// optionalBool accepts JSON booleans and boolean strings; absent means false
func optionalBool(args map[string]any, key string) (bool, error) {
	switch v := args[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%s must be true or false", key)
		}
		return b, nil
	}
	return false, fmt.Errorf("%s must be true or false", key)
}

// requireList splits a required comma-separated argument
func requireList(request mcp.CallToolRequest, key string) ([]string, error) {
	raw, err := request.RequireString(key)
	if err != nil {
		return nil, err
	}
	items := splitList(raw)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s must name at least one document", key)
	}
	return items, nil
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
