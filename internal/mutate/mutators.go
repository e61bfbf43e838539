package mutate

import (
	"math/rand"

	"github.com/riesentoaster/ftz/internal/input"
	"github.com/riesentoaster/ftz/internal/proto"
)

// PacketMutator mutates a single Packet in place.
type PacketMutator interface {
	MutatePacket(rng *rand.Rand, p *proto.Packet)
}

// ListMutator mutates a ListInput in place (spec.md §4.9).
type ListMutator interface {
	MutateList(rng *rand.Rand, l *input.ListInput)
}

// PacketMutatorFunc adapts a function to PacketMutator.
type PacketMutatorFunc func(rng *rand.Rand, p *proto.Packet)

func (f PacketMutatorFunc) MutatePacket(rng *rand.Rand, p *proto.Packet) { f(rng, p) }

// ListMutatorFunc adapts a function to ListMutator.
type ListMutatorFunc func(rng *rand.Rand, l *input.ListInput)

func (f ListMutatorFunc) MutateList(rng *rand.Rand, l *input.ListInput) { f(rng, l) }

// intMutator lifts a Field[T] to a PacketMutator by replacing the field's
// value with a uniformly random T on each call (spec.md §4.9: "one
// integer-mutator suite per integer field").
type intMutator[T ~uint8 | ~uint16 | ~uint32] struct {
	field Field[T]
}

func (m intMutator[T]) MutatePacket(rng *rand.Rand, p *proto.Packet) {
	m.field.Set(p, T(rng.Uint32()))
}

func NewIntMutator[T ~uint8 | ~uint16 | ~uint32](field Field[T]) PacketMutator {
	return intMutator[T]{field: field}
}

// boolMutator lifts a Field[bool] to a PacketMutator by flipping it (spec.md
// §4.9: "one bool mutator (flip) per TCP flag").
type boolMutator struct {
	field Field[bool]
}

func (m boolMutator) MutatePacket(rng *rand.Rand, p *proto.Packet) {
	m.field.Set(p, !m.field.Get(p))
}

func NewBoolMutator(field Field[bool]) PacketMutator {
	return boolMutator{field: field}
}

// LastEntry lifts a PacketMutator to a ListMutator by applying it to the
// list's last packet, skipping (no-op) on an empty list (spec.md §4.9).
func LastEntry(inner PacketMutator) ListMutator {
	return ListMutatorFunc(func(rng *rand.Rand, l *input.ListInput) {
		tail := l.TailPacket()
		if tail == nil {
			return
		}
		inner.MutatePacket(rng, tail)
	})
}

// RandomEntry lifts a PacketMutator to a ListMutator by applying it to a
// uniformly random packet, skipping on an empty list (spec.md §4.9).
func RandomEntry(inner PacketMutator) ListMutator {
	return ListMutatorFunc(func(rng *rand.Rand, l *input.ListInput) {
		if len(l.Packets) == 0 {
			return
		}
		idx := rng.Intn(len(l.Packets))
		inner.MutatePacket(rng, l.Packets[idx])
	})
}

// PacketGenerator produces a fresh Packet, the interface the appending
// mutator composes with rather than inheriting from (design note (9):
// "Prefer composition over inheritance... Provide one trait for each.").
type PacketGenerator interface {
	Generate(rng *rand.Rand) *proto.Packet
}

// Appending lifts a PacketGenerator into a ListMutator by generating a
// fresh packet and appending it (spec.md §4.9).
func Appending(gen PacketGenerator) ListMutator {
	return ListMutatorFunc(func(rng *rand.Rand, l *input.ListInput) {
		l.Append(gen.Generate(rng))
	})
}

// DefaultStack builds the full mutator stack of spec.md §4.9: "all
// field-mutators mapped to last-entry ∪ field-mutators mapped to
// random-entry ∪ appending(fixed) ∪ appending(random)".
func DefaultStack(fixed, random PacketGenerator) []ListMutator {
	var stack []ListMutator
	for _, f := range AllU8Fields {
		m := NewIntMutator[uint8](f)
		stack = append(stack, LastEntry(m), RandomEntry(m))
	}
	for _, f := range AllU16Fields {
		m := NewIntMutator[uint16](f)
		stack = append(stack, LastEntry(m), RandomEntry(m))
	}
	for _, f := range AllU32Fields {
		m := NewIntMutator[uint32](f)
		stack = append(stack, LastEntry(m), RandomEntry(m))
	}
	for _, f := range AllFlagFields {
		m := NewBoolMutator(f)
		stack = append(stack, LastEntry(m), RandomEntry(m))
	}
	stack = append(stack, Appending(fixed), Appending(random))
	return stack
}
