package echidna

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContract(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Token.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract Token {}"), 0644))
	return path
}

func TestRunRequest_ArgsFullSet(t *testing.T) {
	req := RunRequest{
		ContractFile: "Token.sol",
		ContractName: "TestToken",
		ConfigFile:   "echidna.yaml",
		TestMode:     "assertion",
		TestLimit:    50000,
		SeqLen:       100,
		CorpusDir:    "corpus",
	}

	assert.Equal(t, []string{
		"Token.sol",
		"--contract", "TestToken",
		"--config", "echidna.yaml",
		"--test-mode", "assertion",
		"--test-limit", "50000",
		"--seq-len", "100",
		"--corpus-dir", "corpus",
	}, req.Args())
}

func TestRunRequest_ArgsMinimal(t *testing.T) {
	req := RunRequest{ContractFile: "Token.sol"}
	assert.Equal(t, []string{"Token.sol"}, req.Args())
}

func TestRunRequest_ValidateMissingContract(t *testing.T) {
	req := RunRequest{ContractFile: filepath.Join(t.TempDir(), "absent.sol")}

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "expected a filesystem error, got: %v", err)
}

func TestRunRequest_ValidateMissingConfig(t *testing.T) {
	req := RunRequest{
		ContractFile: writeContract(t),
		ConfigFile:   filepath.Join(t.TempDir(), "absent.yaml"),
	}

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestRunRequest_ValidateEmptyContract(t *testing.T) {
	err := RunRequest{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
