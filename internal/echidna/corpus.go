package echidna

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoCoverage is returned when a corpus holds no coverage files
var ErrNoCoverage = errors.New("no coverage files found in corpus directory")

const sampleLimit = 500

// CoverageSample is a bounded preview of one coverage file
type CoverageSample struct {
	File    string `json:"file"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// CorpusSummary describes the contents of an Echidna corpus directory
type CorpusSummary struct {
	Dir           string          `json:"corpus_dir"`
	CoverageFiles []string        `json:"coverage_files"`
	TestCases     []string        `json:"test_cases"`
	Reproducers   []string        `json:"reproducers"`
	Sample        *CoverageSample `json:"coverage_sample,omitempty"`
}

// CoverageReport is a text rendering of the newest coverage file
type CoverageReport struct {
	File         string `json:"coverage_file"`
	TotalLines   int    `json:"total_lines"`
	CoveredLines int    `json:"covered_lines"`
	Listing      string `json:"listing"`
	Truncated    bool   `json:"truncated"`
}

// AnalyzeCorpus enumerates the coverage traces, saved call sequences and
// reproducers inside an Echidna corpus directory. The directory layout is
// treated as opaque text output; nothing is interpreted or mutated.
// An empty directory yields an empty summary, not an error.
func AnalyzeCorpus(dir string) (*CorpusSummary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}

	summary := &CorpusSummary{
		Dir:           dir,
		CoverageFiles: []string{},
		TestCases:     []string{},
		Reproducers:   []string{},
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		base := d.Name()
		parent := filepath.Base(filepath.Dir(path))

		switch {
		case isCoverageFile(base):
			summary.CoverageFiles = append(summary.CoverageFiles, rel)
		case parent == "coverage" && strings.HasSuffix(base, ".txt"):
			summary.TestCases = append(summary.TestCases, rel)
		case parent == "reproducers" && strings.HasSuffix(base, ".txt"):
			summary.Reproducers = append(summary.Reproducers, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	if len(summary.CoverageFiles) > 0 {
		sample, err := sampleCoverage(filepath.Join(dir, summary.CoverageFiles[0]))
		if err != nil {
			return nil, err
		}
		summary.Sample = sample
	}

	return summary, nil
}

// CoverageText renders the most recently written coverage file as text,
// counting lines Echidna marked as executed
func CoverageText(dir string, maxLines int) (*CoverageReport, error) {
	summary, err := AnalyzeCorpus(dir)
	if err != nil {
		return nil, err
	}

	if len(summary.CoverageFiles) == 0 {
		return nil, ErrNoCoverage
	}

	newest := ""
	var newestTime time.Time
	for _, rel := range summary.CoverageFiles {
		path := filepath.Join(dir, rel)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("coverage file: %w", err)
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
	}

	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, fmt.Errorf("coverage file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	// Drop the trailing empty line produced by a final newline
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	covered := 0
	for _, line := range lines {
		// Echidna prefixes executed lines with '*'
		if strings.Contains(line, "*") {
			covered++
		}
	}

	report := &CoverageReport{
		File:         newest,
		TotalLines:   len(lines),
		CoveredLines: covered,
	}

	if maxLines > 0 && len(lines) > maxLines {
		report.Listing = strings.Join(lines[:maxLines], "\n")
		report.Truncated = true
	} else {
		report.Listing = strings.Join(lines, "\n")
	}

	return report, nil
}

func isCoverageFile(name string) bool {
	matched, _ := filepath.Match("covered.*.txt", name)
	return matched
}

func sampleCoverage(path string) (*CoverageSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coverage file: %w", err)
	}

	preview := string(data)
	if len(preview) > sampleLimit {
		preview = preview[:sampleLimit] + "..."
	}

	return &CoverageSample{
		File:    path,
		Size:    len(data),
		Preview: preview,
	}, nil
}
