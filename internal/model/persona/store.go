package persona

// Store exposes persona retrieval for HTTP handlers and the chat service.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Default() Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier. An empty id resolves to the default.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	if id == "" {
		if len(s.items) == 0 {
			return Persona{}, false
		}
		return s.Default(), true
	}
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Default returns the first persona, or the built-in assistant when the store is empty.
func (s *MemoryStore) Default() Persona {
	if len(s.items) == 0 {
		return Seed()[0]
	}
	return s.items[0]
}
