package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	mcpTypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
	"github.com/fuzzbridge/echidna-mcp/internal/echidna"
	applogger "github.com/fuzzbridge/echidna-mcp/internal/logger"
)

// EchidnaTools is the MCP tool surface over the fuzzer service. Every
// handler is stateless; all paths come from the request.
type EchidnaTools struct {
	log      *applogger.RunLogger
	service  *echidna.Service
	eventBus *bus.EventBus
}

// NewEchidnaTools creates the tool surface. The event bus is optional;
// without it, tool lifecycle events are simply not published.
func NewEchidnaTools(service *echidna.Service, eventBus *bus.EventBus, logger *logrus.Logger) *EchidnaTools {
	if logger == nil {
		logger = logrus.New()
	}

	return &EchidnaTools{
		log:      applogger.NewRunLogger(logger, "", ""),
		service:  service,
		eventBus: eventBus,
	}
}

type toolDef struct {
	tool    mcpTypes.Tool
	handler server.ToolHandlerFunc
}

func (t *EchidnaTools) definitions() []toolDef {
	return []toolDef{
		{t.GetRunTestTool(), t.RunTestHandler},
		{t.GetCreateConfigTool(), t.CreateConfigHandler},
		{t.GetCreateContractTool(), t.CreateContractHandler},
		{t.GetAnalyzeCorpusTool(), t.AnalyzeCorpusHandler},
		{t.GetFilterFunctionsTool(), t.FilterFunctionsHandler},
		{t.GetSetupE2ETool(), t.SetupE2EHandler},
		{t.GetPropertyTemplateTool(), t.PropertyTemplateHandler},
		{t.GetAssertionContractTool(), t.AssertionContractHandler},
		{t.GetForkTestTool(), t.ForkTestHandler},
		{t.GetVisualizeCoverageTool(), t.VisualizeCoverageHandler},
	}
}

// RegisterAll registers every tool on the server
func (t *EchidnaTools) RegisterAll(s *Server) {
	for _, def := range t.definitions() {
		s.AddTool(def.tool, def.handler)
	}
}

// Names returns the tool names in registration order
func (t *EchidnaTools) Names() []string {
	defs := t.definitions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.tool.Name)
	}
	return names
}

// runLog returns a logger bound to the invocation, so handler log
// lines carry the run ID and reach subscribers of the run log stream
func (t *EchidnaTools) runLog(runID, tool string) *applogger.RunLogger {
	return t.log.WithRun(runID).WithTool(tool)
}

func (t *EchidnaTools) started(tool string) (string, time.Time) {
	runID := uuid.NewString()
	t.runLog(runID, tool).Debug("Tool invoked")
	if t.eventBus != nil {
		t.eventBus.PublishToolStart(runID, tool)
	}
	return runID, time.Now()
}

func (t *EchidnaTools) failed(runID, tool, message string) *mcpTypes.CallToolResult {
	t.runLog(runID, tool).Errorf("Tool failed: %s", message)
	if t.eventBus != nil {
		t.eventBus.PublishToolError(runID, tool, message)
	}
	return mcpTypes.NewToolResultError(message)
}

func (t *EchidnaTools) succeeded(runID, tool string, start time.Time, payload interface{}) (*mcpTypes.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return t.failed(runID, tool, fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return t.succeededText(runID, tool, start, string(data))
}

func (t *EchidnaTools) succeededText(runID, tool string, start time.Time, text string) (*mcpTypes.CallToolResult, error) {
	if t.eventBus != nil {
		t.eventBus.PublishToolResult(runID, tool, "ok", time.Since(start).Milliseconds())
	}
	return mcpTypes.NewToolResultText(text), nil
}

// intArg reads a numeric argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return 0
}

func boolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func stringSliceArg(args map[string]interface{}, key string) ([]string, bool) {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (t *EchidnaTools) GetRunTestTool() mcpTypes.Tool {
	return mcpTypes.NewTool("run_echidna_test",
		mcpTypes.WithDescription("Run Echidna on the specified Solidity contract and return captured output"),
		mcpTypes.WithString("contract_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path to the Solidity contract file"),
		),
		mcpTypes.WithString("contract_name",
			mcpTypes.Description("Contract name to test"),
		),
		mcpTypes.WithString("config_file",
			mcpTypes.Description("Path to an Echidna config file"),
		),
		mcpTypes.WithString("test_mode",
			mcpTypes.Description("Test mode (property, assertion, optimization, ...)"),
		),
		mcpTypes.WithNumber("test_limit",
			mcpTypes.Description("Maximum number of test transactions"),
		),
		mcpTypes.WithNumber("seq_len",
			mcpTypes.Description("Transaction sequence length"),
		),
		mcpTypes.WithString("corpus_dir",
			mcpTypes.Description("Corpus directory for coverage-guided fuzzing"),
		),
		mcpTypes.WithNumber("timeout_seconds",
			mcpTypes.Description("Per-run timeout override in seconds"),
		),
	)
}

func (t *EchidnaTools) RunTestHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("run_echidna_test")

	contractFile, _ := args["contract_file"].(string)
	if contractFile == "" {
		return t.failed(runID, "run_echidna_test", "contract_file is required"), nil
	}

	runReq := echidna.RunRequest{
		ContractFile: contractFile,
		Timeout:      time.Duration(intArg(args, "timeout_seconds")) * time.Second,
		TestLimit:    intArg(args, "test_limit"),
		SeqLen:       intArg(args, "seq_len"),
	}
	runReq.ContractName, _ = args["contract_name"].(string)
	runReq.ConfigFile, _ = args["config_file"].(string)
	runReq.TestMode, _ = args["test_mode"].(string)
	runReq.CorpusDir, _ = args["corpus_dir"].(string)

	result, err := t.service.RunTest(ctx, runReq)
	if err != nil {
		return t.failed(runID, "run_echidna_test", fmt.Sprintf("Failed to run echidna: %v", err)), nil
	}

	return t.succeeded(runID, "run_echidna_test", start, result)
}

func (t *EchidnaTools) GetCreateConfigTool() mcpTypes.Tool {
	return mcpTypes.NewTool("create_echidna_config",
		mcpTypes.WithDescription("Create an Echidna configuration file from the provided parameters"),
		mcpTypes.WithObject("config",
			mcpTypes.Required(),
			mcpTypes.Description("Configuration parameters as key/value pairs"),
		),
		mcpTypes.WithString("output_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path where the configuration file is written"),
		),
	)
}

func (t *EchidnaTools) CreateConfigHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("create_echidna_config")

	params, ok := args["config"].(map[string]interface{})
	if !ok {
		return t.failed(runID, "create_echidna_config", "config must be an object"), nil
	}

	outputFile, _ := args["output_file"].(string)
	if outputFile == "" {
		return t.failed(runID, "create_echidna_config", "output_file is required"), nil
	}

	opts := echidna.OptionsFromMap(params)
	if err := opts.WriteFile(outputFile); err != nil {
		return t.failed(runID, "create_echidna_config", fmt.Sprintf("Failed to write config: %v", err)), nil
	}

	content, err := opts.Marshal()
	if err != nil {
		return t.failed(runID, "create_echidna_config", fmt.Sprintf("Failed to serialize config: %v", err)), nil
	}

	t.runLog(runID, "create_echidna_config").Infof("Wrote echidna config with %d options to %s", opts.Len(), outputFile)

	return t.succeeded(runID, "create_echidna_config", start, map[string]interface{}{
		"config_file": outputFile,
		"content":     string(content),
	})
}

func (t *EchidnaTools) GetCreateContractTool() mcpTypes.Tool {
	return mcpTypes.NewTool("create_solidity_contract",
		mcpTypes.WithDescription("Write a Solidity source file with the provided code"),
		mcpTypes.WithString("output_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path where the contract file is written"),
		),
		mcpTypes.WithString("contract_code",
			mcpTypes.Required(),
			mcpTypes.Description("Complete Solidity source of the contract"),
		),
	)
}

func (t *EchidnaTools) CreateContractHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("create_solidity_contract")

	outputFile, _ := args["output_file"].(string)
	code, _ := args["contract_code"].(string)

	if outputFile == "" {
		return t.failed(runID, "create_solidity_contract", "output_file is required"), nil
	}
	if code == "" {
		return t.failed(runID, "create_solidity_contract", "contract_code is required"), nil
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return t.failed(runID, "create_solidity_contract", fmt.Sprintf("Failed to create directory: %v", err)), nil
		}
	}

	// The code is written byte for byte; reading the file back returns
	// exactly what the caller supplied
	if err := os.WriteFile(outputFile, []byte(code), 0644); err != nil {
		return t.failed(runID, "create_solidity_contract", fmt.Sprintf("Failed to write contract: %v", err)), nil
	}

	t.runLog(runID, "create_solidity_contract").Infof("Wrote contract: %s (%d bytes)", outputFile, len(code))

	return t.succeededText(runID, "create_solidity_contract", start,
		fmt.Sprintf("Successfully wrote %d bytes to %s", len(code), outputFile))
}

func (t *EchidnaTools) GetAnalyzeCorpusTool() mcpTypes.Tool {
	return mcpTypes.NewTool("analyze_corpus",
		mcpTypes.WithDescription("Analyze an Echidna corpus directory: coverage traces, saved call sequences and reproducers"),
		mcpTypes.WithString("corpus_dir",
			mcpTypes.Required(),
			mcpTypes.Description("Path to the corpus directory"),
		),
	)
}

func (t *EchidnaTools) AnalyzeCorpusHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("analyze_corpus")

	corpusDir, _ := args["corpus_dir"].(string)
	if corpusDir == "" {
		return t.failed(runID, "analyze_corpus", "corpus_dir is required"), nil
	}

	summary, err := echidna.AnalyzeCorpus(corpusDir)
	if err != nil {
		return t.failed(runID, "analyze_corpus", fmt.Sprintf("Failed to analyze corpus: %v", err)), nil
	}

	return t.succeeded(runID, "analyze_corpus", start, summary)
}

func (t *EchidnaTools) GetFilterFunctionsTool() mcpTypes.Tool {
	return mcpTypes.NewTool("filter_functions",
		mcpTypes.WithDescription("Create a configuration fragment restricting which functions Echidna calls"),
		mcpTypes.WithArray("filter_list",
			mcpTypes.Required(),
			mcpTypes.Description("Function signatures to filter, e.g. [\"transfer(address,uint256)\"]"),
		),
		mcpTypes.WithBoolean("blacklist",
			mcpTypes.Description("True to skip the listed functions, false to call only them (default true)"),
		),
		mcpTypes.WithString("output_file",
			mcpTypes.Description("Path to write the fragment to (default filter_config.yaml)"),
		),
	)
}

func (t *EchidnaTools) FilterFunctionsHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("filter_functions")

	filterList, ok := stringSliceArg(args, "filter_list")
	if !ok {
		return t.failed(runID, "filter_functions", "filter_list must be an array of strings"), nil
	}

	blacklist := boolArg(args, "blacklist", true)

	opts, err := echidna.FilterOptions(filterList, blacklist)
	if err != nil {
		return t.failed(runID, "filter_functions", fmt.Sprintf("Invalid filter: %v", err)), nil
	}

	content, err := opts.Marshal()
	if err != nil {
		return t.failed(runID, "filter_functions", fmt.Sprintf("Failed to serialize filter: %v", err)), nil
	}

	outputFile, _ := args["output_file"].(string)
	if outputFile == "" {
		outputFile = "filter_config.yaml"
	}

	if err := opts.WriteFile(outputFile); err != nil {
		return t.failed(runID, "filter_functions", fmt.Sprintf("Failed to write filter config: %v", err)), nil
	}

	return t.succeeded(runID, "filter_functions", start, map[string]interface{}{
		"blacklist":   blacklist,
		"functions":   filterList,
		"content":     string(content),
		"config_file": outputFile,
	})
}

func (t *EchidnaTools) GetSetupE2ETool() mcpTypes.Tool {
	return mcpTypes.NewTool("setup_end_to_end_test",
		mcpTypes.WithDescription("Set up end-to-end testing against a deployed system using an Etheno transaction trace"),
		mcpTypes.WithString("trace_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path to the Etheno JSON trace (e.g. init.json)"),
		),
		mcpTypes.WithString("target_address",
			mcpTypes.Required(),
			mcpTypes.Description("Hex address of the deployed contract to target"),
		),
		mcpTypes.WithString("output_dir",
			mcpTypes.Description("Directory for the generated contract and config"),
		),
		mcpTypes.WithBoolean("run_capture",
			mcpTypes.Description("Run Etheno and the Truffle test suite to record the trace first"),
		),
		mcpTypes.WithString("test_file",
			mcpTypes.Description("Specific Truffle test file to run during capture"),
		),
	)
}

func (t *EchidnaTools) SetupE2EHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("setup_end_to_end_test")

	e2eReq := echidna.E2ERequest{
		RunCapture: boolArg(args, "run_capture", false),
	}
	e2eReq.TraceFile, _ = args["trace_file"].(string)
	e2eReq.TargetAddress, _ = args["target_address"].(string)
	e2eReq.OutputDir, _ = args["output_dir"].(string)
	e2eReq.TestFile, _ = args["test_file"].(string)

	result, err := t.service.SetupE2E(ctx, e2eReq)
	if err != nil {
		return t.failed(runID, "setup_end_to_end_test", fmt.Sprintf("Failed to set up E2E test: %v", err)), nil
	}

	return t.succeeded(runID, "setup_end_to_end_test", start, result)
}

func (t *EchidnaTools) GetPropertyTemplateTool() mcpTypes.Tool {
	return mcpTypes.NewTool("generate_property_template",
		mcpTypes.WithDescription("Generate template Solidity for an Echidna property style"),
		mcpTypes.WithString("contract_name",
			mcpTypes.Required(),
			mcpTypes.Description("Name of the contract under test"),
		),
		mcpTypes.WithString("property_type",
			mcpTypes.Required(),
			mcpTypes.Description("One of: boolean, assertion, dapptest, optimization"),
		),
	)
}

func (t *EchidnaTools) PropertyTemplateHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("generate_property_template")

	contractName, _ := args["contract_name"].(string)
	if contractName == "" {
		return t.failed(runID, "generate_property_template", "contract_name is required"), nil
	}

	propertyType, _ := args["property_type"].(string)

	template, err := echidna.PropertyTemplate(contractName, echidna.PropertyType(propertyType))
	if err != nil {
		return t.failed(runID, "generate_property_template", err.Error()), nil
	}

	notes := echidna.PropertyUsageNotes(echidna.PropertyType(propertyType))

	return t.succeededText(runID, "generate_property_template", start,
		fmt.Sprintf("%s\n\nUsage notes:\n%s", template, notes))
}

func (t *EchidnaTools) GetAssertionContractTool() mcpTypes.Tool {
	return mcpTypes.NewTool("create_assertion_contract",
		mcpTypes.WithDescription("Generate and write a test contract with assertion-based properties"),
		mcpTypes.WithString("contract_to_test",
			mcpTypes.Required(),
			mcpTypes.Description("Name of the contract under test; its source is expected next to the output file"),
		),
		mcpTypes.WithArray("properties",
			mcpTypes.Required(),
			mcpTypes.Description("Properties as objects with \"name\" and \"condition\" fields"),
		),
		mcpTypes.WithString("output_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path where the test contract is written"),
		),
	)
}

func (t *EchidnaTools) AssertionContractHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("create_assertion_contract")

	contractToTest, _ := args["contract_to_test"].(string)
	outputFile, _ := args["output_file"].(string)
	if outputFile == "" {
		return t.failed(runID, "create_assertion_contract", "output_file is required"), nil
	}

	rawProps, ok := args["properties"].([]interface{})
	if !ok {
		return t.failed(runID, "create_assertion_contract", "properties must be an array of objects"), nil
	}

	properties := make([]echidna.AssertionProperty, 0, len(rawProps))
	for _, raw := range rawProps {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return t.failed(runID, "create_assertion_contract", "properties must be an array of objects"), nil
		}
		prop := echidna.AssertionProperty{}
		prop.Name, _ = obj["name"].(string)
		prop.Condition, _ = obj["condition"].(string)
		properties = append(properties, prop)
	}

	code, err := echidna.AssertionContract(contractToTest, properties)
	if err != nil {
		return t.failed(runID, "create_assertion_contract", fmt.Sprintf("Failed to generate contract: %v", err)), nil
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return t.failed(runID, "create_assertion_contract", fmt.Sprintf("Failed to create directory: %v", err)), nil
		}
	}

	if err := os.WriteFile(outputFile, []byte(code), 0644); err != nil {
		return t.failed(runID, "create_assertion_contract", fmt.Sprintf("Failed to write contract: %v", err)), nil
	}

	return t.succeeded(runID, "create_assertion_contract", start, map[string]interface{}{
		"contract_file": outputFile,
		"contract_name": "Test" + contractToTest,
		"properties":    len(properties),
	})
}

func (t *EchidnaTools) GetForkTestTool() mcpTypes.Tool {
	return mcpTypes.NewTool("create_fork_test",
		mcpTypes.WithDescription("Write a state-forking test contract plus a runner script exporting the RPC environment variables Echidna reads"),
		mcpTypes.WithString("contract_code",
			mcpTypes.Required(),
			mcpTypes.Description("Complete Solidity source of the fork test contract"),
		),
		mcpTypes.WithString("output_file",
			mcpTypes.Required(),
			mcpTypes.Description("Path where the contract file is written"),
		),
		mcpTypes.WithString("rpc_url",
			mcpTypes.Required(),
			mcpTypes.Description("HTTP(S) RPC endpoint to fork state from"),
		),
		mcpTypes.WithNumber("block_number",
			mcpTypes.Description("Block number to pin the fork to"),
		),
	)
}

func (t *EchidnaTools) ForkTestHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("create_fork_test")

	forkReq := echidna.ForkTestRequest{
		BlockNumber: uint64(intArg(args, "block_number")),
	}
	forkReq.ContractCode, _ = args["contract_code"].(string)
	forkReq.OutputFile, _ = args["output_file"].(string)
	forkReq.RPCURL, _ = args["rpc_url"].(string)

	result, err := echidna.WriteForkTest(forkReq)
	if err != nil {
		return t.failed(runID, "create_fork_test", fmt.Sprintf("Failed to create fork test: %v", err)), nil
	}

	return t.succeeded(runID, "create_fork_test", start, result)
}

func (t *EchidnaTools) GetVisualizeCoverageTool() mcpTypes.Tool {
	return mcpTypes.NewTool("visualize_coverage",
		mcpTypes.WithDescription("Render the most recent coverage trace from an Echidna corpus as text"),
		mcpTypes.WithString("corpus_dir",
			mcpTypes.Required(),
			mcpTypes.Description("Path to the corpus directory"),
		),
		mcpTypes.WithString("format",
			mcpTypes.Description("Output format; only \"text\" is supported"),
		),
		mcpTypes.WithNumber("max_lines",
			mcpTypes.Description("Truncate the listing after this many lines (default 100)"),
		),
	)
}

func (t *EchidnaTools) VisualizeCoverageHandler(ctx context.Context, req mcpTypes.CallToolRequest) (*mcpTypes.CallToolResult, error) {
	args := req.GetArguments()
	runID, start := t.started("visualize_coverage")

	corpusDir, _ := args["corpus_dir"].(string)
	if corpusDir == "" {
		return t.failed(runID, "visualize_coverage", "corpus_dir is required"), nil
	}

	if format, _ := args["format"].(string); format != "" && format != "text" {
		return t.failed(runID, "visualize_coverage", fmt.Sprintf("Unsupported format %q; only \"text\" is supported", format)), nil
	}

	maxLines := intArg(args, "max_lines")
	if maxLines <= 0 {
		maxLines = 100
	}

	report, err := echidna.CoverageText(corpusDir, maxLines)
	if err != nil {
		return t.failed(runID, "visualize_coverage", fmt.Sprintf("Failed to render coverage: %v", err)), nil
	}

	text := fmt.Sprintf("Coverage from %s\nLines: %d total, %d executed (marked with '*')\n\n%s",
		report.File, report.TotalLines, report.CoveredLines, report.Listing)
	if report.Truncated {
		text += fmt.Sprintf("\n... truncated to %d lines", maxLines)
	}

	return t.succeededText(runID, "visualize_coverage", start, text)
}
