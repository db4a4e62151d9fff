package echidna

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOptions_MarshalFormat(t *testing.T) {
	opts := NewOptions().
		Set("testMode", "assertion").
		Set("testLimit", 50000).
		Set("coverage", true).
		Set("shrinkLimit", float64(5000)).
		Set("filterFunctions", []string{"mint(uint256)", "burn(uint256)"})

	data, err := opts.Marshal()
	require.NoError(t, err)

	expected := `testMode: assertion
testLimit: 50000
coverage: true
shrinkLimit: 5000
filterFunctions: ["mint(uint256)","burn(uint256)"]
`
	assert.Equal(t, expected, string(data))
}

func TestOptions_RoundTripThroughYAML(t *testing.T) {
	input := map[string]interface{}{
		"testLimit":    float64(10000),
		"corpusDir":    "corpus",
		"coverage":     true,
		"seqLen":       float64(100),
		"multi-abi":    false,
		"filterFuncs":  []interface{}{"f(uint256)", "g()"},
		"maxGasprice":  float64(0),
		"format":       "text",
		"shrinkFactor": 1.5,
	}

	opts := OptionsFromMap(input)
	assert.Equal(t, len(input), opts.Len())

	dir := t.TempDir()
	path := filepath.Join(dir, "echidna.yaml")
	require.NoError(t, opts.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The generated file must parse as YAML with no key loss
	parsed := map[string]interface{}{}
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	require.Len(t, parsed, len(input))

	assert.Equal(t, 10000, parsed["testLimit"])
	assert.Equal(t, "corpus", parsed["corpusDir"])
	assert.Equal(t, true, parsed["coverage"])
	assert.Equal(t, false, parsed["multi-abi"])
	assert.Equal(t, "text", parsed["format"])
	assert.Equal(t, 1.5, parsed["shrinkFactor"])
	assert.Equal(t, []interface{}{"f(uint256)", "g()"}, parsed["filterFuncs"])
}

func TestOptions_DeterministicOrderFromMap(t *testing.T) {
	m := map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3}

	first := OptionsFromMap(m)
	second := OptionsFromMap(m)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, first.Keys())
	assert.Equal(t, first.Keys(), second.Keys())
}

func TestOptions_SetPreservesInsertionOrder(t *testing.T) {
	opts := NewOptions().
		Set("prefix", "crytic_").
		Set("initialize", "init.json").
		Set("allContracts", true).
		Set("prefix", "echidna_") // replace, keep position

	assert.Equal(t, []string{"prefix", "initialize", "allContracts"}, opts.Keys())

	data, err := opts.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "prefix: echidna_\n")
}

func TestOptions_WriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "echidna.yaml")

	require.NoError(t, NewOptions().Set("coverage", true).WriteFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFilterOptions_Blacklist(t *testing.T) {
	opts, err := FilterOptions([]string{"selfdestructContract()"}, true)
	require.NoError(t, err)

	data, err := opts.Marshal()
	require.NoError(t, err)

	expected := `filterBlacklist: true
filterFunctions: ["selfdestructContract()"]
`
	assert.Equal(t, expected, string(data))
}

func TestFilterOptions_EmptyWhitelistRejected(t *testing.T) {
	_, err := FilterOptions(nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyWhitelist)

	// An empty blacklist is harmless: it filters nothing out
	_, err = FilterOptions(nil, true)
	assert.NoError(t, err)
}
