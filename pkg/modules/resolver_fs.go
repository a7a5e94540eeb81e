package modules

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"stackjs/pkg/errors"
)

// FileResolver resolves file:// modules from a file system rooted at "/"
type FileResolver struct {
	fs  ModuleFS // File system to resolve from; names are paths without the leading "/"
	cwd string   // Absolute slash path used when a module has no parent
}

// NewFileResolver creates a resolver over filesystem, whose root stands for
// "/". cwd is the directory top-level relative requires start from.
func NewFileResolver(filesystem fs.FS, cwd string) *FileResolver {
	var moduleFS ModuleFS

	// Wrap the fs.FS to implement ModuleFS if needed
	if mfs, ok := filesystem.(ModuleFS); ok {
		moduleFS = mfs
	} else {
		moduleFS = &fsWrapper{filesystem}
	}

	if cwd == "" {
		cwd = "/"
	}
	return &FileResolver{fs: moduleFS, cwd: filepath.ToSlash(cwd)}
}

// NewOSFileResolver creates a resolver over the OS file system. An empty
// cwd means the process working directory.
func NewOSFileResolver(cwd string) *FileResolver {
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}
	if abs, err := filepath.Abs(cwd); err == nil {
		cwd = abs
	}
	return &FileResolver{fs: &osFS{baseDir: string(filepath.Separator)}, cwd: filepath.ToSlash(cwd)}
}

// Cwd returns the directory top-level relative requires start from.
func (r *FileResolver) Cwd() string { return r.cwd }

// fsName maps an absolute slash path onto an fs.FS name.
func fsName(p string) string {
	name := strings.TrimPrefix(p, "/")
	if name == "" {
		return "."
	}
	return name
}

func (r *FileResolver) stat(p string) (entryKind, error) {
	info, err := fs.Stat(r.fs, fsName(p))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrInvalid) {
			return entryMissing, nil
		}
		return entryMissing, err
	}
	switch {
	case info.IsDir():
		return entryDir, nil
	case info.Mode().IsRegular():
		return entryFile, nil
	}
	return entryMissing, nil
}

// Resolve implements Resolver
func (r *FileResolver) Resolve(specifier string, parent string, extensions []string) (string, error) {
	resolved, err := resolveWith(specifier, parent, r.cwd, extensions, r.stat)
	if err != nil {
		return "", err
	}
	log.Debugf("resolved %s to %s", specifier, resolved)
	return resolved, nil
}

// Read implements Resolver
func (r *FileResolver) Read(p string) ([]byte, error) {
	data, err := r.fs.ReadFile(fsName(p))
	if err != nil {
		return nil, (&errors.LoadError{ID: p, Msg: err.Error()}).CausedBy(err)
	}
	return data, nil
}

// fsWrapper wraps a generic fs.FS to implement ModuleFS
type fsWrapper struct {
	fs.FS
}

func (w *fsWrapper) ReadFile(name string) ([]byte, error) {
	if rfs, ok := w.FS.(fs.ReadFileFS); ok {
		return rfs.ReadFile(name)
	}

	// Fallback implementation
	file, err := w.FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// osFS implements ModuleFS using the OS file system
type osFS struct {
	baseDir string
}

func (osfs *osFS) full(name string) string {
	return filepath.Join(osfs.baseDir, filepath.FromSlash(name))
}

func (osfs *osFS) Open(name string) (fs.File, error) {
	return os.Open(osfs.full(name))
}

func (osfs *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(osfs.full(name))
}

func (osfs *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(osfs.full(name))
}
