package modules

import (
	"io/fs"
)

// ModuleFS extends Go's standard io/fs interfaces for module loading
type ModuleFS interface {
	fs.FS
	fs.ReadFileFS // Required for reading module content
}

// Resolver maps specifiers of one URI scheme to resolved paths and reads
// their content. One Resolver is registered per scheme.
type Resolver interface {
	// Resolve turns specifier into an absolute slash path. parent is the
	// resolved path of the requiring module, or "" when there is none;
	// extensions are the registered loader extensions in probing order.
	// Failures are *errors.ResolveError.
	Resolve(specifier string, parent string, extensions []string) (string, error)

	// Read returns the raw content of a path returned by Resolve.
	Read(path string) ([]byte, error)
}

// Loader executes module content and populates the module's exports. One
// Loader is registered per file extension.
type Loader interface {
	Load(m *Module, content []byte) error
}

// LoaderFunc adapts a function into a Loader
type LoaderFunc func(m *Module, content []byte) error

func (f LoaderFunc) Load(m *Module, content []byte) error { return f(m, content) }
