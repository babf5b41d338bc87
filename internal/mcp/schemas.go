package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// collectBlocksTool returns the tool definition for collect_blocks
func collectBlocksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "collect_blocks",
		Description: "Scan a source tree for identifier-tagged blocks and return the registry",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source tree (or a single file)",
				},
				"include_content": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include each block's content in the response",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getBlockTool returns the tool definition for get_block
func getBlockTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_block",
		Description: "Return the content and origin of one block",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source tree",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Block identifier",
				},
			},
			Required: []string{"path", "id"},
		},
	}
}

// checkDocsTool returns the tool definition for check_docs
func checkDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "check_docs",
		Description: "Report documentation regions that drifted from their source blocks, without writing",
		InputSchema: syncSchema(),
	}
}

// syncDocsTool returns the tool definition for sync_docs
func syncDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_docs",
		Description: "Rewrite documentation regions from their source blocks",
		InputSchema: syncSchema(),
	}
}

func syncSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"source_path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute path to the source tree holding the blocks",
			},
			"doc_path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute path to the documentation tree (default: source_path)",
			},
			"include_diff": map[string]interface{}{
				"type":        "boolean",
				"description": "If true, include a unified diff for every drifted region",
				"default":     false,
			},
		},
		Required: []string{"source_path"},
	}
}
