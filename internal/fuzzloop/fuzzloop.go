// Package fuzzloop implements the replaying evolutionary loop of spec.md
// §4.10: re-executes an admission candidate R_min times and only admits it
// if its state maps agree across runs within a stability threshold,
// rejecting inputs whose novelty was a timing artefact of the handshake or
// inter-send watchdog.
package fuzzloop

import (
	"context"
	"math/rand"

	"github.com/riesentoaster/ftz/internal/config"
	"github.com/riesentoaster/ftz/internal/corpus"
	"github.com/riesentoaster/ftz/internal/executor"
	"github.com/riesentoaster/ftz/internal/feedback"
	"github.com/riesentoaster/ftz/internal/input"
	"github.com/riesentoaster/ftz/internal/mutate"
	"github.com/riesentoaster/ftz/internal/shmem"
	"github.com/riesentoaster/ftz/internal/supervisor"
)

// Loop ties together the executor, a mutator stack, feedbacks, and a
// corpus coordinator into the per-client fuzzing loop of spec.md §2's data
// flow ("executor C5 pumps packets... feedbacks C7 classify novelty, the
// scheduler selects next seed, mutators C9 produce the next input, C10
// decides whether to keep it").
type Loop struct {
	cfg       *config.Config
	exec      *executor.Executor
	region    *shmem.Region
	coverage  []byte
	corpus    corpus.Coordinator
	solutions corpus.Coordinator
	mutators  []mutate.ListMutator
	feedback  feedback.Feedback
	objective feedback.Feedback
	rng       *rand.Rand

	prevStateMap []byte
	prevCoverage []byte
}

// New returns a Loop wired to a running client's executor, corpus, and
// mutator stack.
func New(cfg *config.Config, exec *executor.Executor, region *shmem.Region, coverage []byte, c, solutions corpus.Coordinator, mutators []mutate.ListMutator, fb, objective feedback.Feedback, rng *rand.Rand) *Loop {
	return &Loop{cfg: cfg, exec: exec, region: region, coverage: coverage, corpus: c, solutions: solutions, mutators: mutators, feedback: fb, objective: objective, rng: rng}
}

// RunOnce selects seed, mutates it into a candidate, replays the candidate
// R_min times, and admits it to the corpus (or solutions, on crash) if the
// replay stability gate and feedbacks agree. Returns the admitted testcase,
// or nil if the candidate was rejected.
func (l *Loop) RunOnce(ctx context.Context, seed *input.ListInput) (*corpus.Testcase, error) {
	candidate := seed.Clone()
	if len(l.mutators) > 0 {
		m := l.mutators[l.rng.Intn(len(l.mutators))]
		m.MutateList(l.rng, candidate)
	}

	stateMaps := make([][]byte, 0, l.cfg.ReplayMinRuns)
	var last *executor.Result
	for i := 0; i < l.cfg.ReplayMinRuns; i++ {
		res, err := l.exec.Run(ctx, l.region, l.coverage, candidate)
		if err != nil {
			return nil, err
		}
		stateMaps = append(stateMaps, res.StateMap)
		last = res

		if res.ExitKind == supervisor.ExitCrash && i == 0 {
			// A crash need not be replayed further; it is always saved.
			return l.admitCrash(candidate, res)
		}
	}

	if !stable(stateMaps, l.cfg.ReplayStabilityFrac) {
		return nil, nil
	}
	admittedMap := stateMaps[0]
	for _, m := range stateMaps[1:] {
		admittedMap = intersect(admittedMap, m)
	}

	result := &feedback.ExecResult{
		StateMap:     admittedMap,
		PrevStateMap: l.prevStateMap,
		CoverageMap:  last.Coverage,
		PrevCoverage: l.prevCoverage,
		Duration:     last.Duration,
		ExitKind:     last.ExitKind,
		Log:          last.Log,
	}
	meta := feedback.Metadata{}
	interesting, err := l.feedback.IsInteresting(result, meta)
	if err != nil {
		return nil, err
	}
	if !interesting {
		return nil, nil
	}

	l.prevStateMap = admittedMap
	l.prevCoverage = last.Coverage
	return l.corpus.Add(candidate, meta)
}

func (l *Loop) admitCrash(candidate *input.ListInput, res *executor.Result) (*corpus.Testcase, error) {
	meta := feedback.Metadata{"exit_kind": res.ExitKind.String()}
	return l.solutions.Add(candidate, meta)
}

// stable implements spec.md §4.10's stability gate: reject if the fraction
// of positions that ever differ across runs exceeds frac.
func stable(maps [][]byte, frac float64) bool {
	if len(maps) == 0 {
		return true
	}
	n := len(maps[0])
	flips := 0
	for i := 0; i < n; i++ {
		v := maps[0][i]
		for _, m := range maps[1:] {
			if m[i] != v {
				flips++
				break
			}
		}
	}
	return float64(flips)/float64(n) <= frac
}

func intersect(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		if a[i] != 0 && b[i] != 0 {
			out[i] = 1
		}
	}
	return out
}
