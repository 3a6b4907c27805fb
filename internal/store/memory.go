package store

import (
	"context"
	"sync"

	"github.com/a3tai/mcp-form-agent/internal/document"
)

// DefaultCapacity is the memory store capacity when none is given
const DefaultCapacity = 100

// Stats describes memory store usage
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"` // percent
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Evictions int64   `json:"evictions"`
}

// Memory is a thread-safe least recently used document store
type Memory struct {
	mutex     sync.Mutex
	capacity  int
	items     map[string]*node
	byPath    map[string]string // path -> id
	head      *node             // most recently used
	tail      *node             // least recently used
	hits      int64
	misses    int64
	evictions int64
}

type node struct {
	doc  *document.Document
	prev *node
	next *node
}

// NewMemory creates a memory store holding at most capacity documents
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memory{
		capacity: capacity,
		items:    make(map[string]*node),
		byPath:   make(map[string]string),
		head:     &node{},
		tail:     &node{},
	}
	m.head.next = m.tail
	m.tail.prev = m.head
	return m
}

// Put implements Store
func (m *Memory) Put(_ context.Context, doc *document.Document) error {
	if _, err := encode(doc); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if oldID, ok := m.byPath[doc.Path]; ok && oldID != doc.ID {
		m.removeLocked(oldID)
	}
	if n, ok := m.items[doc.ID]; ok {
		if n.doc.Path != doc.Path {
			delete(m.byPath, n.doc.Path)
		}
		n.doc = doc
		m.byPath[doc.Path] = doc.ID
		m.moveToFront(n)
		return nil
	}

	n := &node{doc: doc}
	m.addToFront(n)
	m.items[doc.ID] = n
	m.byPath[doc.Path] = doc.ID

	if len(m.items) > m.capacity {
		lru := m.tail.prev
		m.removeLocked(lru.doc.ID)
		m.evictions++
	}
	return nil
}

// Get implements Store and marks the document as recently used
func (m *Memory) Get(_ context.Context, id string) (*document.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.getLocked(id)
}

// GetByPath implements Store
func (m *Memory) GetByPath(_ context.Context, path string) (*document.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id, ok := m.byPath[path]
	if !ok {
		m.misses++
		return nil, ErrNotFound
	}
	return m.getLocked(id)
}

func (m *Memory) getLocked(id string) (*document.Document, error) {
	n, ok := m.items[id]
	if !ok {
		m.misses++
		return nil, ErrNotFound
	}
	m.moveToFront(n)
	m.hits++
	return n.doc, nil
}

// List implements Store
func (m *Memory) List(context.Context) ([]*document.Document, error) {
	m.mutex.Lock()
	out := make([]*document.Document, 0, len(m.items))
	for n := m.head.next; n != m.tail; n = n.next {
		out = append(out, n.doc)
	}
	m.mutex.Unlock()

	sortByProcessed(out)
	return out, nil
}

// Delete implements Store
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.removeLocked(id) {
		return ErrNotFound
	}
	return nil
}

// Close implements Store
func (m *Memory) Close() error {
	return nil
}

// Stats returns usage statistics
func (m *Memory) Stats() Stats {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hitRate := 0.0
	if total := m.hits + m.misses; total > 0 {
		hitRate = float64(m.hits) / float64(total) * 100
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		HitRate:   hitRate,
		Size:      len(m.items),
		Capacity:  m.capacity,
		Evictions: m.evictions,
	}
}

func (m *Memory) removeLocked(id string) bool {
	n, ok := m.items[id]
	if !ok {
		return false
	}
	m.unlink(n)
	delete(m.items, id)
	if m.byPath[n.doc.Path] == id {
		delete(m.byPath, n.doc.Path)
	}
	return true
}

func (m *Memory) addToFront(n *node) {
	n.prev = m.head
	n.next = m.head.next
	m.head.next.prev = n
	m.head.next = n
}

func (m *Memory) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (m *Memory) moveToFront(n *node) {
	m.unlink(n)
	m.addToFront(n)
}
