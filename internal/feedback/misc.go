package feedback

import (
	"os"
	"path/filepath"
	"runtime"
)

// MiscStats is the record of the three periodic statistics of spec.md
// §4.13. No client builds or sends it, and internal/launcher does not gate
// it to any client; the launcher's monitor ticker in cmd/ftz-fuzz calls
// FreeMemoryBytes and CorpusFileCount directly and reports no average input
// length.
type MiscStats struct {
	FreeMemoryBytes   uint64
	CorpusFileCount   int
	AvgInputLenBytes  float64
}

// FreeMemoryBytes reports an approximate free-memory gauge. Go has no
// portable syscall for system-wide free memory without a third-party
// library; gopsutil (not present in any retrieval-pack repo) would be the
// ecosystem choice, but since no example imports it, this falls back to
// runtime.MemStats as a process-local proxy — documented in DESIGN.md as a
// stdlib fallback with no pack precedent to follow instead.
func FreeMemoryBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys - m.HeapInuse
}

// CorpusFileCount counts non-hidden files directly under dir (spec.md §4.13:
// "count of non-hidden files in the corpus directory").
func CorpusFileCount(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		n++
	}
	return n, nil
}

// AbsPathOrSelf resolves dir to an absolute path, falling back to dir
// itself on error; used when formatting monitor output.
func AbsPathOrSelf(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
