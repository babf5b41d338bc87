package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/internal/registry"
	"github.com/dshills/docsync/internal/storage"
	"github.com/dshills/docsync/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeDuplicateID    = -32001 // A block id is declared in more than one file
	ErrorCodeSyncInProgress = -32002 // Another replace run is already writing
	ErrorCodeBlockNotFound  = -32003 // No block with the requested id
)

const (
	maxReportedErrors     = 5
	defaultIncludeContent = true
	defaultIncludeDiff    = false
)

// handleCollectBlocks handles the collect_blocks tool invocation
func (s *Server) handleCollectBlocks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args, "path")
	if err != nil {
		return nil, err
	}
	includeContent := getBoolDefault(args, "include_content", defaultIncludeContent)

	collected, err := s.collect(ctx, path)
	if err != nil {
		return nil, err
	}

	blocks := make([]map[string]interface{}, 0, collected.Registry.Len())
	for _, b := range collected.Registry.Blocks() {
		entry := map[string]interface{}{
			"id":         b.ID,
			"path":       b.Origin.Path,
			"start_line": b.Origin.StartLine,
			"end_line":   b.Origin.EndLine,
			"lines":      b.Lines(),
			"digest":     b.DigestHex(),
		}
		if includeContent {
			entry["content"] = b.Content
		}
		blocks = append(blocks, entry)
	}

	response := map[string]interface{}{
		"blocks":        blocks,
		"block_count":   len(blocks),
		"files_scanned": collected.Stats.FilesScanned,
		"files_skipped": collected.Stats.FilesSkipped,
		"files_failed":  collected.Stats.FilesFailed,
		"duration_ms":   collected.Stats.Duration.Milliseconds(),
	}
	addErrors(response, fileErrorMessages(collected.Errors))

	if s.storage != nil {
		run := storage.NewRun(storage.RunCollect, path)
		run.FilesScanned = collected.Stats.FilesScanned
		if err := storage.ExportCollect(ctx, s.storage, run, collected.Registry.Blocks(), toStorageErrors(collected.Errors)); err != nil {
			s.log.Error("failed to record run", "error", err)
		} else {
			response["run_id"] = run.ID.String()
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetBlock handles the get_block tool invocation
func (s *Server) handleGetBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args, "path")
	if err != nil {
		return nil, err
	}
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	collected, err := s.collect(ctx, path)
	if err != nil {
		return nil, err
	}

	block, ok := collected.Registry.Get(id)
	if !ok {
		return nil, newMCPError(ErrorCodeBlockNotFound, "block not found", map[string]interface{}{
			"id":        id,
			"available": collected.Registry.IDs(),
		})
	}

	response := map[string]interface{}{
		"id":      block.ID,
		"content": block.Content,
		"origin":  block.Origin.String(),
		"lines":   block.Lines(),
		"digest":  block.DigestHex(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCheckDocs handles the check_docs tool invocation
func (s *Server) handleCheckDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleSync(ctx, request, types.ModeCheck)
}

// handleSyncDocs handles the sync_docs tool invocation
func (s *Server) handleSyncDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleSync(ctx, request, types.ModeReplace)
}

func (s *Server) handleSync(ctx context.Context, request mcp.CallToolRequest, mode types.Mode) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	sourcePath, err := requirePath(args, "source_path")
	if err != nil {
		return nil, err
	}
	docPath := sourcePath
	if _, given := args["doc_path"]; given {
		if docPath, err = requirePath(args, "doc_path"); err != nil {
			return nil, err
		}
	}
	includeDiff := getBoolDefault(args, "include_diff", defaultIncludeDiff)

	collected, err := s.collect(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	report, err := s.pipeline.Sync(ctx, collected.Registry, docPath, mode)
	if errors.Is(err, pipeline.ErrSyncInProgress) {
		return nil, newMCPError(ErrorCodeSyncInProgress, "replace already in progress", map[string]interface{}{
			"doc_path": docPath,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "sync failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	engine := s.pipeline.Engine()
	outcomes := make([]map[string]interface{}, 0)
	for _, o := range report.Outcomes() {
		entry := map[string]interface{}{
			"id":     o.ID,
			"file":   o.File,
			"line":   o.Line,
			"status": string(o.Status),
		}
		if includeDiff && (o.Status == types.StatusWouldChange || o.Status == types.StatusReplaced) {
			entry["diff"] = engine.Diff(fmt.Sprintf("%s:%d %s", o.File, o.Line, o.ID), o.Current, o.Expected)
		}
		outcomes = append(outcomes, entry)
	}

	messages := fileErrorMessages(collected.Errors)
	for _, e := range report.Errors() {
		messages = append(messages, e.Error())
	}

	response := map[string]interface{}{
		"mode":     mode.String(),
		"failed":   report.Failed() || collected.Failed(),
		"outcomes": outcomes,
		"counts": map[string]interface{}{
			string(types.StatusUnchanged):   report.Count(types.StatusUnchanged),
			string(types.StatusReplaced):    report.Count(types.StatusReplaced),
			string(types.StatusWouldChange): report.Count(types.StatusWouldChange),
			string(types.StatusUnknownID):   report.Count(types.StatusUnknownID),
		},
		"files_scanned": report.Stats.FilesScanned,
		"files_written": report.Stats.FilesWritten,
		"duration_ms":   report.Stats.Duration.Milliseconds(),
	}
	addErrors(response, messages)

	if s.storage != nil {
		kind := storage.RunCheck
		if mode == types.ModeReplace {
			kind = storage.RunReplace
		}
		run := storage.NewRun(kind, docPath)
		run.FilesScanned = report.Stats.FilesScanned
		run.BlockCount = collected.Registry.Len()
		if err := storage.ExportSync(ctx, s.storage, run, report.Files); err != nil {
			s.log.Error("failed to record run", "error", err)
		} else {
			response["run_id"] = run.ID.String()
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// collect runs a collect and maps a conflict to an MCP error
func (s *Server) collect(ctx context.Context, path string) (*pipeline.CollectResult, error) {
	collected, err := s.pipeline.Collect(ctx, path)
	if errors.Is(err, types.ErrDuplicateIDAcrossFiles) {
		conflicts := make([]map[string]interface{}, 0)
		for _, c := range registry.Conflicts(err) {
			conflicts = append(conflicts, map[string]interface{}{
				"id":     c.ID,
				"first":  c.First.String(),
				"second": c.Second.String(),
			})
		}
		return nil, newMCPError(ErrorCodeDuplicateID, "duplicate block ids across files", map[string]interface{}{
			"conflicts": conflicts,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "collect failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return collected, nil
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func requirePath(args map[string]interface{}, param string) (string, error) {
	path, _ := args[param].(string)
	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  param,
			"reason": err.Error(),
		})
	}
	return path, nil
}

func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	return nil
}

func fileErrorMessages(errs []pipeline.FileError) []string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Err.Error())
	}
	return messages
}

func toStorageErrors(errs []pipeline.FileError) []storage.FileError {
	out := make([]storage.FileError, 0, len(errs))
	for _, e := range errs {
		out = append(out, storage.FileError{FilePath: e.Path, Message: e.Err.Error()})
	}
	return out
}

// addErrors includes the first few errors in a response
func addErrors(response map[string]interface{}, messages []string) {
	if len(messages) == 0 {
		return
	}
	if len(messages) > maxReportedErrors {
		response["errors"] = messages[:maxReportedErrors]
		response["error_count"] = len(messages)
		return
	}
	response["errors"] = messages
}

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
)
