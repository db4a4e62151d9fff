package mcp

import (
	"context"

	mcpTypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

const helpText = `# Echidna MCP Server

This MCP server provides tools for smart contract analysis using the Echidna fuzzer.

## Available Tools

1. ` + "`run_echidna_test`" + ` - Run Echidna on a Solidity contract file
2. ` + "`create_echidna_config`" + ` - Create an Echidna configuration file
3. ` + "`create_solidity_contract`" + ` - Create a Solidity file with provided code
4. ` + "`analyze_corpus`" + ` - Analyze an Echidna corpus directory
5. ` + "`filter_functions`" + ` - Create a config to filter functions for testing
6. ` + "`setup_end_to_end_test`" + ` - Set up end-to-end testing with Etheno
7. ` + "`generate_property_template`" + ` - Generate template code for various property types
8. ` + "`create_assertion_contract`" + ` - Create a contract with assertion-based properties
9. ` + "`create_fork_test`" + ` - Create a test using state forking from an RPC provider
10. ` + "`visualize_coverage`" + ` - Visualize code coverage data from an Echidna corpus

## Common Usage Patterns

### Testing a Smart Contract

1. Create your Solidity contract with Echidna properties
2. Run Echidna test using the run_echidna_test tool
3. Analyze the results

### Using Corpus Data

1. Set up a corpus directory in your Echidna config
2. Run tests to collect corpus data
3. Analyze the corpus using analyze_corpus

### End-to-End Testing

1. Use setup_end_to_end_test to capture transactions
2. Create an E2E.sol file with properties to test
3. Run Echidna with the generated config

### Testing with State Forking

1. Create a test contract using create_fork_test
2. Run the test with RPC environment variables set
3. Analyze results to identify issues on the live network
`

// HelpPrompt answers "how do I use this server" with a canned
// user/assistant exchange describing the tool surface
type HelpPrompt struct {
	logger *logrus.Logger
}

func NewHelpPrompt(logger *logrus.Logger) *HelpPrompt {
	if logger == nil {
		logger = logrus.New()
	}
	return &HelpPrompt{logger: logger}
}

func (p *HelpPrompt) GetPrompt() mcpTypes.Prompt {
	return mcpTypes.NewPrompt("echidna_help",
		mcpTypes.WithPromptDescription("Help information about using Echidna through this server"),
	)
}

func (p *HelpPrompt) Handler(ctx context.Context, req mcpTypes.GetPromptRequest) (*mcpTypes.GetPromptResult, error) {
	p.logger.Debug("Serving echidna_help prompt")

	return mcpTypes.NewGetPromptResult(
		"Echidna usage help",
		[]mcpTypes.PromptMessage{
			mcpTypes.NewPromptMessage(
				mcpTypes.RoleUser,
				mcpTypes.NewTextContent("How do I use Echidna with this MCP server?"),
			),
			mcpTypes.NewPromptMessage(
				mcpTypes.RoleAssistant,
				mcpTypes.NewTextContent(helpText),
			),
		},
	), nil
}
