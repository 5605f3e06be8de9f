package results

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pmip/dmcompare/internal/grid"
	"github.com/pmip/dmcompare/internal/stats"
)

// Delta is a past-minus-control anomaly and its sampling spread.
type Delta struct {
	Mean float64 `json:"delta_mean"`
	Std  float64 `json:"delta_std"`
}

// ModelResult holds a model's anomaly over every model grid point of the
// region and over the reconstruction points only.
type ModelResult struct {
	AllModelPts   Delta `json:"allmodelpts"`
	ModelOnRecPts Delta `json:"modelonrecpts"`
}

// Entry is the result of one period, variable, region and dataset
// combination.
type Entry struct {
	Mask           grid.Mask              `json:"mask"`
	NPoints        int                    `json:"nbpts"`
	Reconstruction stats.Estimate         `json:"reconstructions"`
	Models         map[string]ModelResult `json:"models"`
}

// Key addresses an Entry.
type Key struct {
	Period   string
	Variable string
	Region   string
	Dataset  string
}

// String joins the key parts with slashes.
func (k Key) String() string {
	return strings.Join([]string{k.Period, k.Variable, k.Region, k.Dataset}, "/")
}

// ParseKey splits a slash-joined key.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("invalid result key %q", s)
	}
	for _, p := range parts {
		if p == "" {
			return Key{}, fmt.Errorf("invalid result key %q", s)
		}
	}
	return Key{Period: parts[0], Variable: parts[1], Region: parts[2], Dataset: parts[3]}, nil
}

// Tree stores entries by key. It is safe for concurrent use.
type Tree struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
}

// NewTree returns an empty tree.
func NewTree() *Tree { return &Tree{entries: make(map[Key]*Entry)} }

// Put stores e under k, replacing any previous entry.
func (t *Tree) Put(k Key, e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Models == nil {
		e.Models = make(map[string]ModelResult)
	}
	t.entries[k] = e
}

// SetModel records the result of one model under an existing entry.
func (t *Tree) SetModel(k Key, model string, r ModelResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[k]
	if !ok {
		return fmt.Errorf("no entry %s", k)
	}
	e.Models[model] = r
	return nil
}

// Get returns the entry stored under k.
func (t *Tree) Get(k Key) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[k]
	return e, ok
}

// Model returns the result of model under k.
func (t *Tree) Model(k Key, model string) (ModelResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[k]
	if !ok {
		return ModelResult{}, false
	}
	r, ok := e.Models[model]
	return r, ok
}

// Keys returns every key in lexical order.
func (t *Tree) Keys() []Key {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
