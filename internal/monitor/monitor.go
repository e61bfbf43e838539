// Package monitor periodically writes the `<monitor>.json` aggregate file
// (spec.md §6 persisted state, §4.13 misc statistics), the one ambient
// "external collaborator" piece spec.md §1 calls out as needing only a
// minimal interface on the fuzzer's side.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Aggregate is the periodic snapshot written to `<monitor>.json`.
type Aggregate struct {
	UpdatedAt        time.Time `json:"updated_at"`
	ClientsRunning   int       `json:"clients_running"`
	TotalExecs       uint64    `json:"total_execs"`
	CorpusCount      int       `json:"corpus_count"`
	SolutionsCount   int       `json:"solutions_count"`
	FreeMemoryBytes  uint64    `json:"free_memory_bytes,omitempty"`
	CorpusFileCount  int       `json:"corpus_file_count,omitempty"`
	AvgInputLenBytes float64   `json:"avg_input_len_bytes,omitempty"`
}

// Writer periodically persists an Aggregate snapshot to `<base>.json`,
// refusing to silently overwrite a pre-existing file on first use (spec.md
// §6: "refuses to overwrite").
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter returns a Writer targeting base+".json". It errors if that file
// already exists, matching spec.md §6's `--monitor` contract.
func NewWriter(base string) (*Writer, error) {
	path := base + ".json"
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("monitor: %s already exists, refusing to overwrite", path)
	}
	return &Writer{path: path}, nil
}

// Write persists snap, overwriting only the file this Writer created.
func (w *Writer) Write(snap Aggregate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(w.path, b, 0o644)
}

// RunTicker writes snapshots produced by next every interval until ctxDone
// is closed.
func RunTicker(w *Writer, interval time.Duration, ctxDone <-chan struct{}, next func() Aggregate) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctxDone:
			return
		case <-t.C:
			_ = w.Write(next())
		}
	}
}
