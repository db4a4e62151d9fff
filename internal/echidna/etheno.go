package echidna

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fuzzbridge/echidna-mcp/internal/executor"
)

// E2ERequest describes an end-to-end test setup: a transaction trace
// captured by Etheno plus the deployed contract to target
type E2ERequest struct {
	TraceFile     string
	TargetAddress string
	OutputDir     string
	TestFile      string
	RunCapture    bool
}

// E2EResult reports the generated files and any capture output
type E2EResult struct {
	ContractFile  string           `json:"contract_file"`
	ConfigFile    string           `json:"config_file"`
	TargetAddress string           `json:"target_address"`
	CaptureResult *executor.Result `json:"capture_output,omitempty"`
	TestResult    *executor.Result `json:"test_output,omitempty"`
	NextSteps     []string         `json:"next_steps"`
}

// SetupE2E assembles a wrapper contract and an Echidna configuration
// that replays an Etheno transaction trace. With RunCapture set, the
// Etheno and Truffle subprocesses are spawned first to record the trace;
// otherwise the trace file must already exist.
func (s *Service) SetupE2E(ctx context.Context, req E2ERequest) (*E2EResult, error) {
	if req.TraceFile == "" {
		return nil, fmt.Errorf("trace file is required")
	}
	if !common.IsHexAddress(req.TargetAddress) {
		return nil, fmt.Errorf("target address %q is not a valid hex address", req.TargetAddress)
	}
	target := common.HexToAddress(req.TargetAddress)

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.Workspace
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &E2EResult{TargetAddress: target.Hex()}

	if req.RunCapture {
		capture, test, err := s.captureTrace(ctx, req.TraceFile, req.TestFile)
		result.CaptureResult = capture
		result.TestResult = test
		if err != nil {
			return result, err
		}
	} else if _, err := os.Stat(req.TraceFile); err != nil {
		return nil, fmt.Errorf("trace file: %w", err)
	}

	contractPath := filepath.Join(outputDir, "E2E.sol")
	if err := os.WriteFile(contractPath, []byte(e2eContract(target)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write wrapper contract: %w", err)
	}
	result.ContractFile = contractPath

	configPath := filepath.Join(outputDir, "echidna.yaml")
	opts := NewOptions().
		Set("prefix", "crytic_").
		Set("initialize", req.TraceFile).
		Set("allContracts", true)
	if err := opts.WriteFile(configPath); err != nil {
		return nil, err
	}
	result.ConfigFile = configPath

	result.NextSteps = []string{
		fmt.Sprintf("Review %s to confirm the deployed contract addresses", req.TraceFile),
		fmt.Sprintf("Add properties for %s to %s", target.Hex(), contractPath),
		fmt.Sprintf("Run Echidna with: echidna %s --contract E2E --config %s", outputDir, configPath),
	}

	return result, nil
}

// captureTrace records a deployment trace by running the Truffle test
// suite against Etheno's instrumented Ganache
func (s *Service) captureTrace(ctx context.Context, traceFile, testFile string) (*executor.Result, *executor.Result, error) {
	if err := s.runner.CheckInstalled(s.cfg.EthenoBinary); err != nil {
		return nil, nil, err
	}
	if err := s.runner.CheckInstalled(s.cfg.TruffleBinary); err != nil {
		return nil, nil, err
	}

	capture, err := s.runner.Run(ctx, executor.Spec{
		Command: s.cfg.EthenoBinary,
		Args: []string{
			"--ganache",
			"--ganache-args=--miner.blockGasLimit 10000000",
			"-x", traceFile,
		},
		Dir: s.cfg.Workspace,
	})
	if err != nil {
		return nil, nil, err
	}
	if capture.ExitCode != 0 || capture.TimedOut {
		return capture, nil, fmt.Errorf("etheno capture failed with exit code %d", capture.ExitCode)
	}

	testArgs := []string{"test"}
	if testFile != "" {
		testArgs = append(testArgs, testFile)
	}
	testArgs = append(testArgs, "--network", "develop")

	test, err := s.runner.Run(ctx, executor.Spec{
		Command: s.cfg.TruffleBinary,
		Args:    testArgs,
		Dir:     s.cfg.Workspace,
	})
	if err != nil {
		return capture, nil, err
	}

	return capture, test, nil
}

func e2eContract(target common.Address) string {
	return fmt.Sprintf(`// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

contract E2E {
    address constant TARGET = %s;

    function crytic_target_has_code() public view returns (bool) {
        return TARGET.code.length > 0;
    }

    // Add properties against the deployed system below. State comes from
    // the transaction trace referenced by the generated configuration.
}
`, target.Hex())
}
