package feedback

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/riesentoaster/ftz/internal/observer"
	"github.com/riesentoaster/ftz/internal/pcapio"
	"github.com/riesentoaster/ftz/internal/supervisor"
)

// CoverageNovelty answers true when r.CoverageMap has a bit set that
// PrevCoverage does not (spec.md §4.7: "bitmap-delta over the
// target-provided coverage map").
var CoverageNovelty Feedback = FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
	if r.CoverageMap == nil {
		return false, nil
	}
	for i, b := range r.CoverageMap {
		var prev byte
		if i < len(r.PrevCoverage) {
			prev = r.PrevCoverage[i]
		}
		if b != 0 && prev == 0 {
			return true, nil
		}
	}
	return false, nil
})

// StateNovelty answers true when r.StateMap has a `1` that r.PrevStateMap
// does not (spec.md §4.7: "any new 1 in the per-client state map since the
// last admitted input").
var StateNovelty Feedback = FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
	for i, b := range r.StateMap {
		var prev byte
		if i < len(r.PrevStateMap) {
			prev = r.PrevStateMap[i]
		}
		if b != 0 && prev == 0 {
			return true, nil
		}
	}
	return false, nil
})

// TimeFeedback always records execution time and never itself causes
// admission (spec.md §4.7: "always records execution time, never novel").
var TimeFeedback Feedback = FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
	meta["exec_duration_ns"] = r.Duration.Nanoseconds()
	return false, nil
})

// PacketMetadata attaches a base64 pcap dump and a hash of the packet log to
// the testcase's metadata (spec.md §4.7). It is never itself a reason for
// admission — it only enriches whatever is admitted by the other feedbacks.
var PacketMetadata Feedback = FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
	pcapBytes, err := pcapio.DumpEntries(r.Log)
	if err != nil {
		return false, err
	}
	meta["pcap_base64"] = base64.StdEncoding.EncodeToString(pcapBytes)
	meta["packet_log_hash"] = hashLog(r.Log)
	return false, nil
})

// hashLog returns a hex SHA-256 over every logged frame's bytes in order,
// the "hash of the packet log" spec.md §4.7 attaches to admitted testcases.
func hashLog(log []observer.Entry) string {
	h := sha256.New()
	for _, e := range log {
		h.Write(e.Bytes)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CrashLogging is the objective of spec.md §4.7: marks a Crash exit as
// interesting for the solutions corpus and attaches the exit classification.
var CrashLogging Feedback = FeedbackFunc(func(r *ExecResult, meta Metadata) (bool, error) {
	meta["exit_kind"] = r.ExitKind.String()
	return r.ExitKind == supervisor.ExitCrash, nil
})

// marshalMetadata renders Metadata as compact JSON for embedding in a
// testcase file.
func marshalMetadata(meta Metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
