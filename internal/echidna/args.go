package echidna

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RunRequest describes a single Echidna invocation
type RunRequest struct {
	ContractFile string
	ContractName string
	ConfigFile   string
	TestMode     string
	TestLimit    int
	SeqLen       int
	CorpusDir    string
	Timeout      time.Duration
}

// Validate checks that the referenced files exist before any subprocess
// is spawned, so a bad path fails fast with a filesystem error instead
// of burning the run timeout
func (req RunRequest) Validate() error {
	if req.ContractFile == "" {
		return fmt.Errorf("contract file is required")
	}

	if _, err := os.Stat(req.ContractFile); err != nil {
		return fmt.Errorf("contract file: %w", err)
	}

	if req.ConfigFile != "" {
		if _, err := os.Stat(req.ConfigFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}

	return nil
}

// Args assembles the echidna command line. Option values are passed
// through verbatim; echidna validates its own flags.
func (req RunRequest) Args() []string {
	args := []string{req.ContractFile}

	if req.ContractName != "" {
		args = append(args, "--contract", req.ContractName)
	}
	if req.ConfigFile != "" {
		args = append(args, "--config", req.ConfigFile)
	}
	if req.TestMode != "" {
		args = append(args, "--test-mode", req.TestMode)
	}
	if req.TestLimit > 0 {
		args = append(args, "--test-limit", strconv.Itoa(req.TestLimit))
	}
	if req.SeqLen > 0 {
		args = append(args, "--seq-len", strconv.Itoa(req.SeqLen))
	}
	if req.CorpusDir != "" {
		args = append(args, "--corpus-dir", req.CorpusDir)
	}

	return args
}
