package llm

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "first "},
			mcp.TextContent{Type: "text", Text: "second"},
		},
	}

	text, err := extractText(result)
	require.NoError(t, err)
	assert.Equal(t, "first second", text)
}

func TestExtractTextErrorResult(t *testing.T) {
	result := &mcp.CallToolResult{}
	result.IsError = true

	_, err := extractText(result)
	assert.Error(t, err)
}

func TestExtractTextNoContent(t *testing.T) {
	_, err := extractText(&mcp.CallToolResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestValidatePromptSize(t *testing.T) {
	g := &MCPGenerator{config: *LoadConfig(&Config{MaxContentSize: 10})}

	assert.Error(t, g.validate("sys", ""))
	assert.Error(t, g.validate("a long system prompt", "and more"))
	assert.NoError(t, g.validate("ab", "cd"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 25, estimateTokens(string(make([]byte, 100))))
}
