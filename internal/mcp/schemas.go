package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultSearchLimit = 8

func searchTool(maxLimit int) mcp.Tool {
	return mcp.Tool{
		Name:        "regulation_search",
		Description: "Keyword search over the indexed regulation. Mentioning an article (\"artikel 19\", \"art. 9\") boosts chunks of that article.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hits to return",
					"default":     min(defaultSearchLimit, maxLimit),
					"minimum":     1,
					"maximum":     maxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

func quoteTool() mcp.Tool {
	return mcp.Tool{
		Name:        "regulation_quote",
		Description: "Return the full text and page range of one chunk, for citation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Chunk id as returned by regulation_search, e.g. art19_c2",
				},
			},
			Required: []string{"id"},
		},
	}
}

func statsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "regulation_stats",
		Description: "Report the source and size of the loaded index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
