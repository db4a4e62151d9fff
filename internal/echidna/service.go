package echidna

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuzzbridge/echidna-mcp/internal/config"
	"github.com/fuzzbridge/echidna-mcp/internal/executor"
)

// Service drives the external fuzzing executables. It holds no state
// between calls; every operation is a single request/response.
type Service struct {
	cfg    config.EchidnaConfig
	runner *executor.Runner
	logger *logrus.Logger
}

// NewService creates a fuzzer service around the given runner
func NewService(cfg config.EchidnaConfig, runner *executor.Runner, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}

	return &Service{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// DefaultTimeout returns the configured per-run timeout
func (s *Service) DefaultTimeout() time.Duration {
	return time.Duration(s.cfg.TimeoutSec) * time.Second
}

// RunTest validates the request and spawns Echidna on the contract.
// Request validation happens before the subprocess exists, so a missing
// contract file surfaces as a filesystem error rather than a timeout.
func (s *Service) RunTest(ctx context.Context, req RunRequest) (*executor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.runner.CheckInstalled(s.cfg.Binary); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.DefaultTimeout()
	}

	s.logger.Infof("Running echidna on %s", req.ContractFile)

	return s.runner.Run(ctx, executor.Spec{
		Command: s.cfg.Binary,
		Args:    req.Args(),
		Dir:     s.cfg.Workspace,
		Timeout: timeout,
	})
}
