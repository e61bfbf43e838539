// Package input implements ListInput (spec.md §3/§4.8, component C8): the
// ordered sequence of packets a single fuzzing execution injects, its
// deterministic name, and the byte-level mutator delegation rule.
package input

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/riesentoaster/ftz/internal/proto"
)

// ListInput is an ordered sequence of packets. Length may be zero; the last
// entry is the cursor used by last-entry mutators and by byte-level resize
// operations (spec.md §3).
type ListInput struct {
	Packets []*proto.Packet
}

// New returns an empty ListInput.
func New() *ListInput {
	return &ListInput{}
}

// Clone deep-copies every packet so corpus entries and in-flight mutation
// candidates never alias each other's byte slices.
func (l *ListInput) Clone() *ListInput {
	cp := &ListInput{Packets: make([]*proto.Packet, len(l.Packets))}
	for i, p := range l.Packets {
		cp.Packets[i] = p.Clone()
	}
	return cp
}

// TailLength returns the tail packet's serialized byte length, used by the
// input-length statistic (spec.md §4.8). Returns 0 for an empty input.
func (l *ListInput) TailLength() int {
	if len(l.Packets) == 0 {
		return 0
	}
	return len(proto.Serialize(l.Packets[len(l.Packets)-1]))
}

// EnsureTail returns the last packet, inserting a fresh default packet
// first if the list is empty (spec.md §4.8: "if the list is empty they
// first insert a default packet").
func (l *ListInput) EnsureTail() *proto.Packet {
	if len(l.Packets) == 0 {
		l.Packets = append(l.Packets, proto.NewPacket())
	}
	return l.Packets[len(l.Packets)-1]
}

// Append adds p to the end of the list, the operation the appending mutator
// (spec.md §4.9) performs after generating a fresh packet.
func (l *ListInput) Append(p *proto.Packet) {
	l.Packets = append(l.Packets, p)
}

// Name computes the deterministic testcase name of spec.md §4.8:
// "hash(parts) || len". parts is each packet's serialized wire bytes in
// order; the name is the hex SHA-256 of their concatenation immediately
// followed by the input's total serialized byte length. The length is that
// of the hashed bytes, so two inputs whose concatenated wire bytes are equal
// get the same name even if their packet counts differ.
func (l *ListInput) Name() string {
	h := sha256.New()
	total := 0
	for _, p := range l.Packets {
		wire := proto.Serialize(p)
		h.Write(wire)
		total += len(wire)
	}
	return hex.EncodeToString(h.Sum(nil)) + strconv.Itoa(total)
}
