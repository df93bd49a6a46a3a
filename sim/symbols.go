package sim

import (
	"log"
	"sync"
)

// A SymbolTable interns node names and owns the mapping between names and
// NodeIDs. It is an explicit, injected service rather than a process-wide
// static, so kernels under test never share name state.
type SymbolTable struct {
	mu    sync.Mutex
	names []string
	index map[string]NodeID
}

// NewSymbolTable creates an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		index: make(map[string]NodeID),
	}
}

// Intern registers a name and returns its NodeID. Interning the same name
// twice is a configuration error.
func (t *SymbolTable) Intern(name string) NodeID {
	NameMustBeValid(name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.index[name]; ok {
		log.Panicf("name %s already interned", name)
	}

	id := NodeID(len(t.names))
	t.names = append(t.names, name)
	t.index[name] = id

	return id
}

// Lookup returns the NodeID for a name.
func (t *SymbolTable) Lookup(name string) (NodeID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.index[name]
	return id, ok
}

// NameOf returns the name interned for an ID.
func (t *SymbolTable) NameOf(id NodeID) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || int(id) >= len(t.names) {
		log.Panicf("no name interned for node %d", id)
	}

	return t.names[id]
}

// Len returns the number of interned names.
func (t *SymbolTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.names)
}
