// Package feedback implements the admission feedbacks and objectives of
// spec.md §4.7: small single-concern interfaces combined by Or/OrFast
// helpers, mirroring the spec's own feedback_or_fast!/or_fast combinators
// and the teacher's small-interface-per-concern style (api/debug.go,
// api/control.go each wrap one thin concern rather than one large
// god-interface).
package feedback

import (
	"time"

	"github.com/riesentoaster/ftz/internal/observer"
	"github.com/riesentoaster/ftz/internal/supervisor"
)

// ExecResult is everything a Feedback needs to judge one execution.
type ExecResult struct {
	StateMap    []byte
	PrevStateMap []byte // the corpus-wide accumulated map, for novelty checks
	CoverageMap []byte  // target-provided, read-only
	PrevCoverage []byte
	Duration    time.Duration
	ExitKind    supervisor.ExitKind
	Log         []observer.Entry
}

// Metadata is the set of key/value attachments a Feedback may add to an
// admitted testcase.
type Metadata map[string]any

// Feedback answers whether an execution result is interesting enough to
// admit, optionally attaching metadata.
type Feedback interface {
	IsInteresting(r *ExecResult, meta Metadata) (bool, error)
}

// FeedbackFunc adapts a plain function to Feedback.
type FeedbackFunc func(r *ExecResult, meta Metadata) (bool, error)

func (f FeedbackFunc) IsInteresting(r *ExecResult, meta Metadata) (bool, error) { return f(r, meta) }

// Or combines feedbacks with logical OR, evaluating every one (so metadata
// attachment always runs) — the spec's plain `or` combinator.
func Or(fs ...Feedback) Feedback {
	return FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
		interesting := false
		for _, f := range fs {
			ok, err := f.IsInteresting(r, meta)
			if err != nil {
				return false, err
			}
			if ok {
				interesting = true
			}
		}
		return interesting, nil
	})
}

// OrFast combines feedbacks with logical OR, short-circuiting on the first
// interesting result — the spec's `feedback_or_fast!`/`or_fast` combinator.
func OrFast(fs ...Feedback) Feedback {
	return FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
		for _, f := range fs {
			ok, err := f.IsInteresting(r, meta)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
}

// Gated wraps a Feedback so it is always evaluated (for metadata/calibration
// purposes) but causes admission only when causesAdmission is true. With
// causesAdmission=false this is spec.md §4.7's "gated(Cov, false)":
// coverage is observed but does not by itself admit.
func Gated(f Feedback, causesAdmission bool) Feedback {
	return FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
		ok, err := f.IsInteresting(r, meta)
		if err != nil {
			return false, err
		}
		return ok && causesAdmission, nil
	})
}
