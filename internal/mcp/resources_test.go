package mcp

import (
	"context"
	"testing"

	mcpTypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesResource(t *testing.T) {
	resource := NewFeaturesResource(nil)

	def := resource.GetResource()
	assert.Equal(t, "resource://echidna-features", def.URI)
	assert.Equal(t, "text/markdown", def.MIMEType)

	contents, err := resource.Handler(context.Background(), mcpTypes.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcpTypes.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "resource://echidna-features", text.URI)
	assert.Contains(t, text.Text, "# Echidna Features")
	assert.Contains(t, text.Text, "corpusDir")
}

func TestHelpPrompt(t *testing.T) {
	prompt := NewHelpPrompt(nil)

	def := prompt.GetPrompt()
	assert.Equal(t, "echidna_help", def.Name)

	result, err := prompt.Handler(context.Background(), mcpTypes.GetPromptRequest{})
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)

	assert.Equal(t, mcpTypes.RoleUser, result.Messages[0].Role)
	assert.Equal(t, mcpTypes.RoleAssistant, result.Messages[1].Role)

	answer, ok := result.Messages[1].Content.(mcpTypes.TextContent)
	require.True(t, ok)
	assert.Contains(t, answer.Text, "run_echidna_test")
	assert.Contains(t, answer.Text, "visualize_coverage")
}
