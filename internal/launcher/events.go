package launcher

import "time"

// EventKind discriminates the newline-delimited JSON events a client sends
// to the broker over the Unix-domain IPC socket (spec.md §4.12).
type EventKind string

const (
	EventCoverageDiscovery EventKind = "coverage_discovery"
	EventMiscStats         EventKind = "misc_stats"
	EventClientExited      EventKind = "client_exited"
)

// Event is one broker-bound message. Only the field matching Kind is
// populated.
type Event struct {
	Kind      EventKind `json:"kind"`
	ClientID  int       `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`

	CoverageDelta int `json:"coverage_delta,omitempty"`

	FreeMemoryBytes  uint64  `json:"free_memory_bytes,omitempty"`
	CorpusFileCount  int     `json:"corpus_file_count,omitempty"`
	AvgInputLenBytes float64 `json:"avg_input_len_bytes,omitempty"`

	ExitErr string `json:"exit_err,omitempty"`
}
