// Package mcp implements the Model Context Protocol (MCP) server for docsync.
//
// The server exposes the engine to AI coding assistants as four tools:
//   - collect_blocks: scan a source tree and return its registry
//   - get_block: return one block by id
//   - check_docs: report drifted documentation regions without writing
//   - sync_docs: rewrite drifted documentation regions
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started with:
//
//	docsync serve
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Tool: sync_docs
//
//	Request:
//	{
//	  "name": "sync_docs",
//	  "arguments": {
//	    "source_path": "/path/to/project/src",
//	    "doc_path": "/path/to/project/docs",
//	    "include_diff": true
//	  }
//	}
//
//	Response:
//	{
//	  "mode": "replace",
//	  "failed": false,
//	  "counts": {"replaced": 1, "unchanged": 4, "unknown_id": 0, "would_change": 0},
//	  "outcomes": [{"id": "adding_numbers", "file": "...", "line": 12, "status": "replaced", "diff": "..."}],
//	  "files_written": 1
//	}
//
// Only one sync_docs call writes at a time; a concurrent call fails with
// ErrorCodeSyncInProgress.
//
// # Errors
//
// Handlers return *MCPError with a JSON-RPC code:
//   - -32602: invalid parameters (missing, relative or nonexistent path)
//   - -32603: internal error
//   - -32001: a block id is declared in more than one file
//   - -32002: another replace run is in progress
//   - -32003: get_block found no block with that id
//
// When the server was started with an export database, every call records
// a run and returns its run_id.
package mcp
