package phrasetable

import (
	"strings"
	"sync"

	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// MemTable is an in-memory Table implementation, the fixture backend used
// throughout this module's tests and suitable for small corpora.
type MemTable struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	vocab   map[int]string
}

// NewMemTable returns an empty in-memory phrase table.
func NewMemTable() *MemTable {
	return &MemTable{entries: make(map[string][]Entry), vocab: make(map[int]string)}
}

func key(source phrase.Words) string {
	return strings.Join(source, " ")
}

// Add registers one translation entry for the given source span.
func (m *MemTable) Add(source phrase.Words, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key(source)] = append(m.entries[key(source)], e)
}

// SetVocab installs the id->word mapping returned by Vocab.
func (m *MemTable) SetVocab(v map[int]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vocab = v
}

func (m *MemTable) Query(source phrase.Words) ([]Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key(source)]
	return e, ok
}

func (m *MemTable) Vocab() map[int]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vocab
}

func (m *MemTable) Close() error { return nil }
