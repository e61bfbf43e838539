// Package mutate implements the field-level mutators of spec.md §4.9 and
// design note (9): in place of the zero-cost closures the original design
// assumed, each field is addressed through a Field[T] accessor interface,
// and one FuncField[T] accessor value exists per mutated packet field. A mutator
// is then generic over both the value type T and the Field[T] accessor
// ("parameterised by a field accessor", per the design note) rather than by
// inheritance.
package mutate

import "github.com/riesentoaster/ftz/internal/proto"

// Field is the accessor design note (9) calls for: Get returns the current
// value, Set installs a new one. One FuncField[T] instantiation exists per
// mutable field instead of one named struct type per field, since Go's
// generics make a single parameterised wrapper sufficient — the
// `IntMutator<T,F>` shape from the design note becomes `intMutator[T]`
// parameterised over a Field[T] value, not over a type parameter F.
type Field[T any] interface {
	Get(p *proto.Packet) T
	Set(p *proto.Packet, v T)
}

// FuncField wraps a pair of closures as a Field[T], the idiomatic Go
// compromise for a language without zero-cost closures as a *type*
// parameter: the closures themselves are the "field accessor", instantiated
// once per field at package-init time below.
type FuncField[T any] struct {
	GetFn func(p *proto.Packet) T
	SetFn func(p *proto.Packet, v T)
}

func (f FuncField[T]) Get(p *proto.Packet) T    { return f.GetFn(p) }
func (f FuncField[T]) Set(p *proto.Packet, v T) { f.SetFn(p, v) }

// Concrete field accessors for the integer fields the mutator stack
// mutates. Only these spec.md §3 fields have accessors; IPv4 Version, IHL,
// ECN, TotalLength, Flags and Protocol and TCP DataOffset and Reserved do
// not, so no mutator changes them.
var (
	FieldIPv4TTL = FuncField[uint8]{
		GetFn: func(p *proto.Packet) uint8 { return p.IPv4.TTL },
		SetFn: func(p *proto.Packet, v uint8) { p.IPv4.TTL = v },
	}
	FieldIPv4DSCP = FuncField[uint8]{
		GetFn: func(p *proto.Packet) uint8 { return p.IPv4.DSCP },
		SetFn: func(p *proto.Packet, v uint8) { p.IPv4.DSCP = v },
	}
	FieldIPv4ID = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.IPv4.ID },
		SetFn: func(p *proto.Packet, v uint16) { p.IPv4.ID = v },
	}
	FieldIPv4FragOffset = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.IPv4.FragOffset },
		SetFn: func(p *proto.Packet, v uint16) { p.IPv4.FragOffset = v },
	}
	FieldTCPSrcPort = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.TCP.SrcPort },
		SetFn: func(p *proto.Packet, v uint16) { p.TCP.SrcPort = v },
	}
	FieldTCPDstPort = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.TCP.DstPort },
		SetFn: func(p *proto.Packet, v uint16) { p.TCP.DstPort = v },
	}
	FieldTCPSeq = FuncField[uint32]{
		GetFn: func(p *proto.Packet) uint32 { return p.TCP.Seq },
		SetFn: func(p *proto.Packet, v uint32) { p.TCP.Seq = v },
	}
	FieldTCPAck = FuncField[uint32]{
		GetFn: func(p *proto.Packet) uint32 { return p.TCP.Ack },
		SetFn: func(p *proto.Packet, v uint32) { p.TCP.Ack = v },
	}
	FieldTCPWindow = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.TCP.Window },
		SetFn: func(p *proto.Packet, v uint16) { p.TCP.Window = v },
	}
	FieldTCPUrgent = FuncField[uint16]{
		GetFn: func(p *proto.Packet) uint16 { return p.TCP.Urgent },
		SetFn: func(p *proto.Packet, v uint16) { p.TCP.Urgent = v },
	}
)

// BoolField is the flag-specific analogue of Field[bool], one per TCP flag
// (spec.md §3's nine flags) so the bool mutator can flip it.
type BoolField = Field[bool]

var (
	FieldFlagNS  = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.NS }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.NS = v }}
	FieldFlagCWR = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.CWR }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.CWR = v }}
	FieldFlagECE = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.ECE }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.ECE = v }}
	FieldFlagURG = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.URG }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.URG = v }}
	FieldFlagACK = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.ACK }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.ACK = v }}
	FieldFlagPSH = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.PSH }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.PSH = v }}
	FieldFlagRST = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.RST }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.RST = v }}
	FieldFlagSYN = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.SYN }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.SYN = v }}
	FieldFlagFIN = FuncField[bool]{GetFn: func(p *proto.Packet) bool { return p.TCP.Flags.FIN }, SetFn: func(p *proto.Packet, v bool) { p.TCP.Flags.FIN = v }}

	AllFlagFields = []FuncField[bool]{
		FieldFlagNS, FieldFlagCWR, FieldFlagECE, FieldFlagURG,
		FieldFlagACK, FieldFlagPSH, FieldFlagRST, FieldFlagSYN, FieldFlagFIN,
	}
	AllU8Fields  = []FuncField[uint8]{FieldIPv4TTL, FieldIPv4DSCP}
	AllU16Fields = []FuncField[uint16]{FieldIPv4ID, FieldIPv4FragOffset, FieldTCPSrcPort, FieldTCPDstPort, FieldTCPWindow, FieldTCPUrgent}
	AllU32Fields = []FuncField[uint32]{FieldTCPSeq, FieldTCPAck}
)
