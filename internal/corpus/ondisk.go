package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/riesentoaster/ftz/internal/input"
)

// OnDisk is the on-disk Coordinator variant (spec.md §4.11): each testcase
// is a pretty-JSON file named `<id>-<input_name>.json` under Dir. Also used,
// unconditionally, for the solutions corpus (spec.md §4.11: "Solutions
// corpus is always on-disk").
type OnDisk struct {
	Dir string

	mu    sync.Mutex
	items []*Testcase
	next  int
}

// NewOnDisk returns an OnDisk corpus rooted at dir, creating dir if absent.
func NewOnDisk(dir string) (*OnDisk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &OnDisk{Dir: dir}, nil
}

func (c *OnDisk) filename(t *Testcase) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%d-%s.json", t.ID, t.Name))
}

func (c *OnDisk) persist(t *Testcase) error {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.filename(t), b, 0o644)
}

func (c *OnDisk) Add(l *input.ListInput, meta map[string]any) (*Testcase, error) {
	return c.add(l, meta, false)
}

func (c *OnDisk) AddDisabled(l *input.ListInput, meta map[string]any) (*Testcase, error) {
	return c.add(l, meta, true)
}

func (c *OnDisk) add(l *input.ListInput, meta map[string]any, disabled bool) (*Testcase, error) {
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
	if err := c.persist(t); err != nil {
		return nil, err
	}
	c.items = append(c.items, t)
	return t, nil
}

func (c *OnDisk) Replace(id int, l *input.ListInput, meta map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.items {
		if t.ID == id {
			old := c.filename(t)
			raw, err := toRawPackets(l)
			if err != nil {
				return err
			}
			t.Input, t.Metadata, t.Name, t.list = raw, meta, l.Name(), l
			if err := c.persist(t); err != nil {
				return err
			}
			if newName := c.filename(t); newName != old {
				_ = os.Remove(old)
			}
			return nil
		}
	}
	return fmt.Errorf("corpus: no testcase with id %d", id)
}

func (c *OnDisk) Remove(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.items {
		if t.ID == id {
			if err := os.Remove(c.filename(t)); err != nil && !os.IsNotExist(err) {
				return err
			}
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("corpus: no testcase with id %d", id)
}

func (c *OnDisk) Get(id int) (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.items {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (c *OnDisk) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *OnDisk) First() (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	return c.items[0], true
}

func (c *OnDisk) Last() (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	return c.items[len(c.items)-1], true
}

func (c *OnDisk) Nth(n int) (*Testcase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n >= len(c.items) {
		return nil, false
	}
	return c.items[n], true
}

func (c *OnDisk) Iterate(fn func(*Testcase) bool) {
	c.mu.Lock()
	items := append([]*Testcase(nil), c.items...)
	c.mu.Unlock()
	for _, t := range items {
		if !fn(t) {
			return
		}
	}
}

func (c *OnDisk) LoadFromDirectory(dir string) error {
	return loadDirectoryInto(dir, func(t *Testcase) {
		c.mu.Lock()
		if t.ID >= c.next {
			c.next = t.ID + 1
		}
		c.items = append(c.items, t)
		c.mu.Unlock()
	})
}
