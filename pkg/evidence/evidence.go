// Package evidence persists per-run audit bundles: run metadata plus one
// JSON record per pipeline stage. Bundles are what a reviewer reads when a
// run is suspended for human review.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ProblemHash string    `json:"problem_hash"`
	ProblemText string    `json:"problem_text,omitempty"`
	Outcome     string    `json:"outcome"`
	Route       string    `json:"route,omitempty"`
	LedgerID    string    `json:"ledger_id,omitempty"`
}

// StageRecord captures evidence for a single pipeline stage.
type StageRecord struct {
	Name           string          `json:"name"`
	Adapter        string          `json:"adapter,omitempty"`
	Model          string          `json:"model,omitempty"`
	PromptHash     string          `json:"prompt_hash,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	Error          string          `json:"error,omitempty"`
	DurationMillis int64           `json:"duration_ms"`
}

// Writer writes evidence bundles to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewWriter creates a new evidence writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return nil, err
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	if record.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", record.Name))
	return writeJSON(path, record)
}

// Hash returns the stable hex digest used for problem and prompt hashes.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
