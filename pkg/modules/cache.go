package modules

import (
	"slices"

	"stackjs/pkg/stack"
)

// The script-visible cache object (require.cache) decides whether an id is
// cached; scripts may delete entries to force a reload. The host map only
// tracks state and timings of the records it has seen.

// hit reports whether id is served from the cache, updating the counters.
func (s *state) hit(id string) bool {
	if !s.cache.Has(id) {
		s.mu.Lock()
		s.stats.Misses++
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.stats.Hits++
	m := s.modules[id]
	s.mu.Unlock()

	if m != nil && m.State == ModuleFailed {
		log.Warningf("serving failed module %s from cache", id)
	}
	return true
}

// register adds m to both caches, replacing an earlier record of its id.
// A superseded record keeps its Ref: hosts may still hold it.
func (s *state) register(m *Module) {
	_ = s.cache.Put(m.ID, m.obj)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.modules[m.ID]; exists {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == m.ID })
	}
	s.modules[m.ID] = m
	s.order = append(s.order, m.ID)
}

// forget removes id from both caches. The record itself stays usable.
func (s *state) forget(id string) bool {
	_ = s.cache.Delete(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.modules[id]
	if !exists {
		return false
	}
	delete(s.modules, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	if s.main == m {
		s.main = nil
	}
	return true
}

// Stats returns the cache statistics of c. A Context without require
// installed reports zeros.
func Stats(c *stack.Context) CacheStats {
	s, err := stateFor(c)
	if err != nil {
		return CacheStats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	for _, m := range s.modules {
		switch m.State {
		case ModuleLoading:
			stats.Loading++
		case ModuleLoaded:
			stats.Loaded++
		case ModuleFailed:
			stats.Failed++
		}
		if m.Builtin {
			stats.Builtins++
		}
		stats.Bytes += m.Size
	}
	return stats
}

// Lookup returns the record of id, if c has one.
func Lookup(c *stack.Context, id string) (*Module, bool) {
	s, err := stateFor(c)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[id]
	return m, ok
}

// Modules returns the records of c in registration order.
func Modules(c *stack.Context) []*Module {
	s, err := stateFor(c)
	if err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Module, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.modules[id])
	}
	return out
}

// Main returns the main module of c, if one was run.
func Main(c *stack.Context) *Module {
	s, err := stateFor(c)
	if err != nil {
		return nil
	}
	return s.main
}

// Forget drops id from the cache of c so the next require reloads it.
func Forget(c *stack.Context, id string) bool {
	s, err := stateFor(c)
	if err != nil {
		return false
	}
	return s.forget(id)
}
