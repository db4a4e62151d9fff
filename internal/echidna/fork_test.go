package echidna

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteForkTest(t *testing.T) {
	dir := t.TempDir()
	contractPath := filepath.Join(dir, "ForkTest.sol")

	result, err := WriteForkTest(ForkTestRequest{
		ContractCode: "contract ForkTest {}",
		OutputFile:   contractPath,
		RPCURL:       "https://mainnet.example.org/rpc",
		BlockNumber:  16000000,
	})
	require.NoError(t, err)

	// Contract written verbatim
	content, err := os.ReadFile(result.ContractFile)
	require.NoError(t, err)
	assert.Equal(t, "contract ForkTest {}", string(content))

	// Script exports the variables Echidna reads and is executable
	assert.Equal(t, filepath.Join(dir, "ForkTest.sh"), result.ScriptFile)
	script, err := os.ReadFile(result.ScriptFile)
	require.NoError(t, err)
	assert.Contains(t, string(script), "export ECHIDNA_RPC_URL=https://mainnet.example.org/rpc")
	assert.Contains(t, string(script), "export ECHIDNA_RPC_BLOCK=16000000")
	assert.Contains(t, string(script), "echidna "+contractPath+" --test-mode assertion")

	info, err := os.Stat(result.ScriptFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestWriteForkTest_BlockNumberOptional(t *testing.T) {
	dir := t.TempDir()

	result, err := WriteForkTest(ForkTestRequest{
		ContractCode: "contract ForkTest {}",
		OutputFile:   filepath.Join(dir, "ForkTest.sol"),
		RPCURL:       "http://localhost:8545",
	})
	require.NoError(t, err)

	script, err := os.ReadFile(result.ScriptFile)
	require.NoError(t, err)
	assert.NotContains(t, string(script), "ECHIDNA_RPC_BLOCK")
}

func TestWriteForkTest_InvalidRPCURL(t *testing.T) {
	req := ForkTestRequest{
		ContractCode: "contract ForkTest {}",
		OutputFile:   filepath.Join(t.TempDir(), "ForkTest.sol"),
	}

	req.RPCURL = ""
	_, err := WriteForkTest(req)
	assert.Error(t, err)

	req.RPCURL = "not a url"
	_, err = WriteForkTest(req)
	assert.Error(t, err)

	req.RPCURL = "ftp://mainnet.example.org"
	_, err = WriteForkTest(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}
