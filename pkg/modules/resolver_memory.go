package modules

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"stackjs/pkg/errors"
)

// MemoryResolver resolves mem:// modules from an in-memory store
type MemoryResolver struct {
	modules map[string]*MemoryModule // Map of absolute module path -> module
	mutex   sync.RWMutex             // Protects concurrent access
}

// MemoryModule represents a module stored in memory
type MemoryModule struct {
	Path     string    // Absolute module path
	Content  []byte    // Module source content
	Created  time.Time // When the module was created
	Modified time.Time // When the module was last modified
}

// NewMemoryResolver creates a new memory-based module resolver
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		modules: make(map[string]*MemoryModule),
	}
}

func cleanModulePath(p string) string {
	return path.Clean("/" + p)
}

// AddModule adds a module to the memory store. Relative paths are taken
// from the root.
func (r *MemoryResolver) AddModule(p string, content string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p = cleanModulePath(p)
	now := time.Now()
	r.modules[p] = &MemoryModule{
		Path:     p,
		Content:  []byte(content),
		Created:  now,
		Modified: now,
	}
}

// UpdateModule updates an existing module's content
func (r *MemoryResolver) UpdateModule(p string, content string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	module, exists := r.modules[cleanModulePath(p)]
	if !exists {
		return errors.NewResolveError(p, "module not found")
	}

	module.Content = []byte(content)
	module.Modified = time.Now()
	return nil
}

// RemoveModule removes a module from the memory store
func (r *MemoryResolver) RemoveModule(p string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.modules, cleanModulePath(p))
}

// ListModules returns all module paths in the store, sorted
func (r *MemoryResolver) ListModules() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	paths := make([]string, 0, len(r.modules))
	for p := range r.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clear removes all modules from the store
func (r *MemoryResolver) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.modules = make(map[string]*MemoryModule)
}

// GetModule returns a module by path (for testing/debugging)
func (r *MemoryResolver) GetModule(p string) *MemoryModule {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.modules[cleanModulePath(p)]
}

// stat treats every proper prefix of a stored path as a directory.
func (r *MemoryResolver) stat(p string) (entryKind, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, ok := r.modules[p]; ok {
		return entryFile, nil
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	for key := range r.modules {
		if strings.HasPrefix(key, prefix) {
			return entryDir, nil
		}
	}
	return entryMissing, nil
}

// Resolve implements Resolver. Top-level relative specifiers start at "/".
func (r *MemoryResolver) Resolve(specifier string, parent string, extensions []string) (string, error) {
	return resolveWith(specifier, parent, "/", extensions, r.stat)
}

// Read implements Resolver
func (r *MemoryResolver) Read(p string) ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	module, exists := r.modules[p]
	if !exists {
		return nil, errors.NewLoadError(p, "module not found")
	}
	out := make([]byte, len(module.Content))
	copy(out, module.Content)
	return out, nil
}
