package echidna

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables Echidna reads to fork live chain state
const (
	EnvRPCURL   = "ECHIDNA_RPC_URL"
	EnvRPCBlock = "ECHIDNA_RPC_BLOCK"
)

// ForkTestRequest describes a state-forking test to materialize on disk
type ForkTestRequest struct {
	ContractCode string
	OutputFile   string
	RPCURL       string
	BlockNumber  uint64
}

// ForkTestResult reports the files written and how to run them
type ForkTestResult struct {
	ContractFile string   `json:"contract_file"`
	ScriptFile   string   `json:"script_file"`
	NextSteps    []string `json:"next_steps"`
}

// WriteForkTest writes the test contract plus an executable shell script
// that exports the RPC environment variables Echidna consumes itself.
// This repository never talks to the RPC endpoint; the fuzzer owns all
// forking and caching.
func WriteForkTest(req ForkTestRequest) (*ForkTestResult, error) {
	if req.ContractCode == "" {
		return nil, fmt.Errorf("contract code is required")
	}
	if req.OutputFile == "" {
		return nil, fmt.Errorf("output file is required")
	}
	if err := validateRPCURL(req.RPCURL); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(req.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(req.OutputFile, []byte(req.ContractCode), 0644); err != nil {
		return nil, fmt.Errorf("failed to write contract file: %w", err)
	}

	scriptPath := strings.TrimSuffix(req.OutputFile, filepath.Ext(req.OutputFile)) + ".sh"

	var script strings.Builder
	script.WriteString("#!/bin/bash\n\n")
	fmt.Fprintf(&script, "export %s=%s\n", EnvRPCURL, req.RPCURL)
	if req.BlockNumber > 0 {
		fmt.Fprintf(&script, "export %s=%d\n", EnvRPCBlock, req.BlockNumber)
	}
	script.WriteString("\n")
	fmt.Fprintf(&script, "echidna %s --test-mode assertion\n", req.OutputFile)

	if err := os.WriteFile(scriptPath, []byte(script.String()), 0755); err != nil {
		return nil, fmt.Errorf("failed to write run script: %w", err)
	}

	manual := fmt.Sprintf("%s=%s ", EnvRPCURL, req.RPCURL)
	if req.BlockNumber > 0 {
		manual += fmt.Sprintf("%s=%d ", EnvRPCBlock, req.BlockNumber)
	}
	manual += fmt.Sprintf("echidna %s --test-mode assertion", req.OutputFile)

	return &ForkTestResult{
		ContractFile: req.OutputFile,
		ScriptFile:   scriptPath,
		NextSteps: []string{
			fmt.Sprintf("Run the test with: sh %s", scriptPath),
			"Or manually set environment variables:",
			manual,
		},
	}, nil
}

func validateRPCURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("rpc url is required")
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid rpc url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("rpc url must use http or https, got %q", parsed.Scheme)
	}
	return nil
}
