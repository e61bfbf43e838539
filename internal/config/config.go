// Package config holds the fuzzer's run configuration, populated by the CLI
// driver (cmd/ftz-fuzz) and threaded through the launcher to every client.
// Grounded on the teacher's control.ConfigStore/facade.Config pattern: a
// single struct with a constructor providing defaults, rather than package
// globals (spec.md §9's "process-wide state" note applies just as much to
// configuration as to executor state).
package config

import "time"

// Config is the fully resolved set of run parameters (spec.md §6).
type Config struct {
	Cores      string // "1,2-4,6", "all", or "none"; empty means "none"
	Overcommit int

	ZephyrExecDir string
	ZephyrOutDir  string

	CorpusDir    string
	SolutionsDir string
	MonitorBase  string

	StdoutPath string
	StderrPath string

	FuzzOne   bool
	LoadOnly  bool
	StateDiff bool

	SetupTimeout        time.Duration
	InterSendWatchdog   time.Duration
	ReplayMinRuns       int
	ReplayStabilityFrac float64

	ShmemEthSize      int
	ShmemCoverageSize int

	CoverageGatesAdmission bool
}

// DefaultConfig returns the configuration defaults named in spec.md §6/§9:
// corpus/solutions directory names, the monitor base name, and the
// handshake/watchdog/replay constants named in §4.5/§4.10 (T_setup ≈400ms,
// T_isw ≈150ms, R_min=3, σ=2.1%). Coverage-based admission defaults to off,
// per spec.md §9's open question ("the source currently gates it to false").
func DefaultConfig() *Config {
	return &Config{
		Overcommit:             1,
		CorpusDir:              "corpus",
		SolutionsDir:           "solutions",
		MonitorBase:            "monitor",
		SetupTimeout:           400 * time.Millisecond,
		InterSendWatchdog:      150 * time.Millisecond,
		ReplayMinRuns:          3,
		ReplayStabilityFrac:    0.021,
		ShmemEthSize:           4096,
		ShmemCoverageSize:      26 * 1024,
		CoverageGatesAdmission: false,
	}
}
