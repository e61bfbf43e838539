package input

import (
	"testing"

	"github.com/riesentoaster/ftz/internal/proto"
)

func TestEnsureTailInsertsDefaultOnEmpty(t *testing.T) {
	l := New()
	if l.TailPacket() != nil {
		t.Fatalf("expected nil tail packet on empty list")
	}
	tail := l.EnsureTail()
	if tail == nil || len(l.Packets) != 1 {
		t.Fatalf("expected a default packet to be inserted")
	}
}

func TestMutateTailBytesOnEmptyListInsertsDefault(t *testing.T) {
	l := New()
	l.MutateTailBytes(func(b []byte) []byte { return append(b, 0x41) })
	if len(l.Packets) != 1 {
		t.Fatalf("expected a default packet to be inserted")
	}
	if got := l.Packets[0].TCP.Payload; len(got) != 1 || got[0] != 0x41 {
		t.Fatalf("unexpected tail payload: %v", got)
	}
}

func TestNameIsDeterministic(t *testing.T) {
	l1 := New()
	l1.Append(proto.NewPacket())
	l2 := New()
	l2.Append(proto.NewPacket())
	if l1.Name() != l2.Name() {
		t.Fatalf("identical inputs produced different names: %q vs %q", l1.Name(), l2.Name())
	}

	l3 := New()
	p := proto.NewPacket()
	p.TCP.Payload = []byte("x")
	l3.Append(p)
	if l1.Name() == l3.Name() {
		t.Fatalf("differing inputs produced the same name")
	}
}

func TestTailLength(t *testing.T) {
	l := New()
	if l.TailLength() != 0 {
		t.Fatalf("expected 0 for empty list")
	}
	l.Append(proto.NewPacket())
	if l.TailLength() == 0 {
		t.Fatalf("expected a non-zero tail length for a default packet")
	}
}

func TestCloneDoesNotAliasPayload(t *testing.T) {
	l := New()
	p := proto.NewPacket()
	p.TCP.Payload = []byte("abc")
	l.Append(p)

	cp := l.Clone()
	cp.Packets[0].TCP.Payload[0] = 'z'
	if l.Packets[0].TCP.Payload[0] == 'z' {
		t.Fatalf("clone aliased the original payload slice")
	}
}
