package corpus

import (
	"testing"

	"github.com/riesentoaster/ftz/internal/input"
	"github.com/riesentoaster/ftz/internal/proto"
)

func sampleInput() *input.ListInput {
	l := input.New()
	p := proto.NewPacket()
	p.TCP.Payload = []byte("corpus-test")
	l.Append(p)
	return l
}

func TestOnDiskPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewOnDisk(dir)
	if err != nil {
		t.Fatal(err)
	}
	l := sampleInput()
	tc, err := c.Add(l, map[string]any{"exit_kind": "Ok"})
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := NewOnDisk(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.LoadFromDirectory(dir); err != nil {
		t.Fatal(err)
	}
	got, ok := loaded.Get(tc.ID)
	if !ok {
		t.Fatalf("expected to find testcase %d after reload", tc.ID)
	}
	gotList, err := got.List()
	if err != nil {
		t.Fatal(err)
	}
	wantWire := proto.Serialize(l.Packets[0])
	gotWire := proto.Serialize(gotList.Packets[0])
	if string(wantWire) != string(gotWire) {
		t.Fatalf("round-tripped input differs byte-for-byte:\nwant %x\ngot  %x", wantWire, gotWire)
	}
}

func TestOnDiskRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	c, err := NewOnDisk(dir)
	if err != nil {
		t.Fatal(err)
	}
	tc, err := c.Add(sampleInput(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(tc.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(tc.ID); ok {
		t.Fatalf("expected testcase to be removed")
	}
}

func TestInMemoryCountAndIterate(t *testing.T) {
	c := NewInMemory()
	for i := 0; i < 3; i++ {
		if _, err := c.Add(sampleInput(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if c.Count() != 3 {
		t.Fatalf("expected count 3, got %d", c.Count())
	}
	seen := 0
	c.Iterate(func(t *Testcase) bool {
		seen++
		return true
	})
	if seen != 3 {
		t.Fatalf("expected to iterate 3 items, got %d", seen)
	}
}
