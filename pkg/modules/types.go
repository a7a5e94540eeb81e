package modules

import (
	"time"

	"stackjs/pkg/refs"
	"stackjs/pkg/stack"
)

// ModuleState represents where a module record is in its lifecycle
type ModuleState int

const (
	ModuleLoading ModuleState = iota // Registered, content executing
	ModuleLoaded                     // Content executed successfully
	ModuleFailed                     // Loader or script failed
)

func (s ModuleState) String() string {
	switch s {
	case ModuleLoading:
		return "loading"
	case ModuleLoaded:
		return "loaded"
	case ModuleFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Module is the host side of a module record. The script-visible record
// (fileName, dirName, id, loaded, require, exports) lives in the VM and is
// reachable through Object.
type Module struct {
	ID       string // Canonical id: builtin name, absolute path or scheme://path
	FileName string // Empty for builtins
	DirName  string // Empty for builtins
	Scheme   string // Resolver scheme; empty for builtins
	Builtin  bool
	Main     bool

	State ModuleState
	Err   error // Set when State is ModuleFailed

	Size         int           // Bytes of content loaded
	LoadTime     time.Time     // When loading started
	LoadDuration time.Duration // Time spent in the loader

	ctx  *stack.Context
	obj  *refs.Object
	path string // Resolver-level path passed to Read
}

// Context returns the Context the module was loaded into.
func (m *Module) Context() *stack.Context { return m.ctx }

// Object returns the script-visible module record.
func (m *Module) Object() *refs.Object { return m.obj }

// Exports returns a new Ref to module.exports. The caller owns it.
func (m *Module) Exports() (*refs.Ref, error) {
	return m.obj.Get("exports")
}

// SetExports replaces module.exports.
func (m *Module) SetExports(v any) error {
	return m.obj.Put("exports", v)
}

// CacheStats summarises one Context's module cache
type CacheStats struct {
	Hits     int // require calls served from the cache
	Misses   int // require calls that created a record
	Loading  int // Records currently loading (cycles in flight)
	Loaded   int
	Failed   int
	Builtins int // Builtin records among the above
	Bytes    int // Total content bytes loaded
}
