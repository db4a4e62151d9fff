package echidna

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "coverage"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reproducers"), 0755))

	covered := "contract Token {\n*    function mint() public {}\n     function burn() public {}\n*    function transfer() public {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covered.1234.txt"), []byte(covered), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage", "1.txt"), []byte("call seq 1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage", "2.txt"), []byte("call seq 2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reproducers", "crash.txt"), []byte("repro"), 0644))

	return dir
}

func TestAnalyzeCorpus_EmptyDirectory(t *testing.T) {
	summary, err := AnalyzeCorpus(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, summary.CoverageFiles)
	assert.Empty(t, summary.TestCases)
	assert.Empty(t, summary.Reproducers)
	assert.Nil(t, summary.Sample)
}

func TestAnalyzeCorpus_MissingDirectory(t *testing.T) {
	_, err := AnalyzeCorpus(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestAnalyzeCorpus_EnumeratesFiles(t *testing.T) {
	dir := buildCorpus(t)

	summary, err := AnalyzeCorpus(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"covered.1234.txt"}, summary.CoverageFiles)
	assert.ElementsMatch(t, []string{
		filepath.Join("coverage", "1.txt"),
		filepath.Join("coverage", "2.txt"),
	}, summary.TestCases)
	assert.Equal(t, []string{filepath.Join("reproducers", "crash.txt")}, summary.Reproducers)

	require.NotNil(t, summary.Sample)
	assert.Contains(t, summary.Sample.Preview, "function mint")
	assert.False(t, strings.HasSuffix(summary.Sample.Preview, "..."))
}

func TestAnalyzeCorpus_LargeCoverageSampleTruncated(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", sampleLimit*2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covered.9.txt"), []byte(big), 0644))

	summary, err := AnalyzeCorpus(dir)
	require.NoError(t, err)

	require.NotNil(t, summary.Sample)
	assert.Equal(t, sampleLimit*2, summary.Sample.Size)
	assert.Len(t, summary.Sample.Preview, sampleLimit+3)
	assert.True(t, strings.HasSuffix(summary.Sample.Preview, "..."))
}

func TestCoverageText_CountsExecutedLines(t *testing.T) {
	dir := buildCorpus(t)

	report, err := CoverageText(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalLines)
	assert.Equal(t, 2, report.CoveredLines)
	assert.False(t, report.Truncated)
	assert.Contains(t, report.Listing, "function transfer")
}

func TestCoverageText_PicksNewestFile(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "covered.1.txt")
	require.NoError(t, os.WriteFile(old, []byte("old\n"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "covered.2.txt"), []byte("* new\n"), 0644))

	report, err := CoverageText(dir, 0)
	require.NoError(t, err)
	assert.Contains(t, report.File, "covered.2.txt")
	assert.Equal(t, 1, report.CoveredLines)
}

func TestCoverageText_TruncatesListing(t *testing.T) {
	dir := t.TempDir()
	lines := strings.Repeat("line\n", 200)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covered.1.txt"), []byte(lines), 0644))

	report, err := CoverageText(dir, 100)
	require.NoError(t, err)

	assert.Equal(t, 200, report.TotalLines)
	assert.True(t, report.Truncated)
	assert.Len(t, strings.Split(report.Listing, "\n"), 100)
}

func TestCoverageText_NoCoverageFiles(t *testing.T) {
	_, err := CoverageText(t.TempDir(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCoverage)
}
