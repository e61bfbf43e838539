// Package observer maintains the per-execution packet log and protocol
// state map (spec.md §3 PacketLog/PacketState, §4.6). Replaces the source's
// process-wide PACKETS/START_TIME globals with state owned by one Observer
// value per execution (design note (9): "Replace with per-execution local
// state owned by the packet observer; globals are unnecessary").
package observer

import (
	"time"

	"github.com/riesentoaster/ftz/internal/proto"
)

// Direction tags a logged frame's travel direction.
type Direction int

const (
	Outgoing Direction = iota // fuzzer -> target
	Incoming                  // target -> fuzzer
)

// Entry is one logged frame (spec.md §3 PacketLog).
type Entry struct {
	Timestamp time.Duration // monotonic, since Reset
	Direction Direction
	Bytes     []byte
}

// Observer owns one execution's packet log and state map. A fresh Observer
// (via Reset) is required per execution.
type Observer struct {
	transition bool
	startAt    time.Time
	log        []Entry
	stateMap   []byte
	prev       int
}

// New returns an Observer in absolute mode (transition=false) or transition
// mode (spec.md §6 --state-diff flag) per the transition argument.
func New(transition bool) *Observer {
	o := &Observer{transition: transition}
	o.allocMap()
	return o
}

func (o *Observer) allocMap() {
	if o.transition {
		o.stateMap = make([]byte, proto.StateSpaceSize*proto.StateSpaceSize)
	} else {
		o.stateMap = make([]byte, proto.StateSpaceSize)
	}
}

// Reset clears the log, state map, and start time — the pre-execution hook
// of spec.md §4.6.
func (o *Observer) Reset() {
	o.startAt = monotonicNow()
	o.log = o.log[:0]
	for i := range o.stateMap {
		o.stateMap[i] = 0
	}
	o.prev = proto.StateNoPrevious
}

// Observe records one transported frame and updates the state map. ICMPv6
// frames never advance `prev` (spec.md §4.3/§4.6: "ICMPv6 states never
// mutate prev"); suppressTransition=true keeps any other frame from
// advancing it as well and leaves the state map untouched for ICMPv6 frames,
// which are only logged (the executor passes it for handshake-phase frames).
func (o *Observer) Observe(dir Direction, bytes []byte, suppressTransition bool) {
	o.log = append(o.log, Entry{
		Timestamp: monotonicNow().Sub(o.startAt),
		Direction: dir,
		Bytes:     append([]byte(nil), bytes...),
	})

	frame := proto.Parse(bytes)
	if suppressTransition && frame.Kind == proto.KindICMPv6 {
		return
	}
	cur := proto.ClassifyFrame(frame)
	if o.transition {
		idx := o.prev*proto.StateSpaceSize + cur
		o.stateMap[idx] = 1
		if !suppressTransition && frame.Kind != proto.KindICMPv6 {
			o.prev = cur
		}
	} else {
		o.stateMap[cur] = 1
	}
}

// Log returns the accumulated per-execution packet log.
func (o *Observer) Log() []Entry { return o.log }

// StateMap returns the current state bitmap: length N in absolute mode,
// N*N in transition mode.
func (o *Observer) StateMap() []byte { return o.stateMap }

// Intersect returns a new bitmap that is the logical AND of o's map with
// other, used by the replaying fuzzer's stability gate (spec.md §4.10:
// "admit with the intersection of the observed state maps").
func (o *Observer) Intersect(other []byte) []byte {
	out := make([]byte, len(o.stateMap))
	for i := range out {
		if o.stateMap[i] != 0 && other[i] != 0 {
			out[i] = 1
		}
	}
	return out
}

var monotonicNow = func() time.Time { return time.Now() }
