// Package corpus implements the pluggable {OnDisk, InMemory} corpus
// coordinator of spec.md §4.11: add/replace/remove/get/count/iterate plus
// on-disk JSON persistence. Solutions corpus (crashing inputs) is always
// on-disk (spec.md §4.11).
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riesentoaster/ftz/internal/input"
)

// SchemaVersion is written to every persisted testcase so future format
// changes can be detected on load (SPEC_FULL.md §3: "gains a SchemaVersion
// field... for forward-compatible on-disk JSON").
const SchemaVersion = 1

// Testcase is one corpus entry: the admitted input, its attached metadata,
// and bookkeeping fields (spec.md §4.11's on-disk shape plus SPEC_FULL.md's
// SchemaVersion/CreatedAt additions).
type Testcase struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	SchemaVersion int            `json:"schema_version"`
	CreatedAt     time.Time      `json:"created_at"`
	Input         []rawPacket    `json:"input"`
	Metadata      map[string]any `json:"metadata"`
	Disabled      bool           `json:"-"`

	list *input.ListInput
}

// rawPacket is the JSON-serializable mirror of proto.Packet's exported
// fields; kept distinct from proto.Packet so the wire format is stable even
// if internal field naming changes later.
type rawPacket struct {
	Eth  json.RawMessage `json:"eth"`
	IPv4 json.RawMessage `json:"ipv4"`
	TCP  json.RawMessage `json:"tcp"`
}

func toRawPackets(l *input.ListInput) ([]rawPacket, error) {
	out := make([]rawPacket, len(l.Packets))
	for i, p := range l.Packets {
		eth, err := json.Marshal(p.Eth)
		if err != nil {
			return nil, err
		}
		ipv4, err := json.Marshal(p.IPv4)
		if err != nil {
			return nil, err
		}
		tcp, err := json.Marshal(p.TCP)
		if err != nil {
			return nil, err
		}
		out[i] = rawPacket{Eth: eth, IPv4: ipv4, TCP: tcp}
	}
	return out, nil
}

// List materializes the ListInput this testcase was created from, or
// deserializes it from Input on first access after a load.
func (t *Testcase) List() (*input.ListInput, error) {
	if t.list != nil {
		return t.list, nil
	}
	l := input.New()
	for _, rp := range t.Input {
		pkt, err := newPacketFromRaw(rp)
		if err != nil {
			return nil, err
		}
		l.Append(pkt)
	}
	t.list = l
	return l, nil
}

// Coordinator is the pluggable corpus backend interface (spec.md §4.11).
type Coordinator interface {
	Add(l *input.ListInput, meta map[string]any) (*Testcase, error)
	AddDisabled(l *input.ListInput, meta map[string]any) (*Testcase, error)
	Replace(id int, l *input.ListInput, meta map[string]any) error
	Remove(id int) error
	Get(id int) (*Testcase, bool)
	Count() int
	First() (*Testcase, bool)
	Last() (*Testcase, bool)
	Nth(n int) (*Testcase, bool)
	Iterate(fn func(*Testcase) bool)
	LoadFromDirectory(dir string) error
}

// InMemory is the in-memory Coordinator variant: a slice of testcases
// protected by a mutex, for callers (such as tests) where on-disk durability
// is unnecessary overhead. cmd/ftz-fuzz uses OnDisk in every mode, including
// --fuzz-one.
type InMemory struct {
	mu    sync.Mutex
	items []*Testcase
	next  int
}

// NewInMemory returns an empty in-memory corpus.
func NewInMemory() *InMemory { return &InMemory{} }

func (c *InMemory) Add(l *input.ListInput, meta map[string]any) (*Testcase, error) {
	return c.add(l, meta, false)
}

func (c *InMemory) AddDisabled(l *input.ListInput, meta map[string]any) (*Testcase, error) {
	return c.add(l, meta, true)
}

func (c *InMemory) add(l *input.ListInput, meta map[string]any, disabled bool) (*Testcase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := toRawPackets(l)
	if err != nil {
		return nil, err
	}
	t := &Testcase{
		ID: c.next, Name: l.Name(), SchemaVersion: SchemaVersion,
		CreatedAt: time.Now().UTC(), Input: raw, Metadata: meta, Disabled: disabled,
		list: l,
	}
	c.next++
	c.items = append(c.items, t)
	return t, nil
}

func (c *InMemory) Replace(id int, l *input.ListInput, meta map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.items {
		if t.ID == id {
			raw, err := toRawPackets(l)
			if err != nil {
				return err
			}
			t.Input, t.Metadata, t.Name, t.list = raw, meta, l.Name(), l
			return nil
		}
	}
	return fmt.Errorf("corpus: no testcase with id %d", id)
}

func (c *InMemory) Remove(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.items {
		if t.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("corpus: no testcase with id %d", id)
}

func (c *InMemory) Get(id int) (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.items {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (c *InMemory) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *InMemory) First() (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	return c.items[0], true
}

func (c *InMemory) Last() (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	return c.items[len(c.items)-1], true
}

func (c *InMemory) Nth(n int) (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n >= len(c.items) {
		return nil, false
	}
	return c.items[n], true
}

func (c *InMemory) Iterate(fn func(*Testcase) bool) {
	c.mu.Lock()
	items := append([]*Testcase(nil), c.items...)
	c.mu.Unlock()
	for _, t := range items {
		if !fn(t) {
			return
		}
	}
}

func (c *InMemory) LoadFromDirectory(dir string) error {
	return loadDirectoryInto(dir, func(t *Testcase) {
		c.mu.Lock()
		t.ID = c.next
		c.next++
		c.items = append(c.items, t)
		c.mu.Unlock()
	})
}

// loadDirectoryInto reads every `<id>-<name>.json` file in dir and hands
// the deserialized Testcase to add. Shared by InMemory.LoadFromDirectory and
// OnDisk.LoadFromDirectory.
func loadDirectoryInto(dir string, add func(*Testcase)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		var t Testcase
		if err := json.Unmarshal(b, &t); err != nil {
			return fmt.Errorf("corpus: %s: %w", name, err)
		}
		add(&t)
	}
	return nil
}
