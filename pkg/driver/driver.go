// Package driver wires a complete script runtime: one engine Context with
// its handle table, the CommonJS require engine with the file, mem and db
// resolvers, the process and path builtins and a console global.
package driver

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/tliron/commonlog"

	"stackjs/pkg/config"
	"stackjs/pkg/errors"
	"stackjs/pkg/modules"
	"stackjs/pkg/refs"
	"stackjs/pkg/stack"
)

var log = commonlog.GetLogger("stackjs.driver")

// Runtime is a persistent script session. State defined by one evaluation
// is visible to the next.
type Runtime struct {
	ctx *stack.Context
	cj  *modules.CommonJS
	cfg *config.Config

	files *modules.FileResolver
	mem   *modules.MemoryResolver
	db    *modules.SQLResolver

	// Module file system; nil means the OS
	fsys   fs.FS
	stdout io.Writer
	stderr io.Writer
	color  bool
	argv   []string

	natives []nativeModule
}

type nativeModule struct {
	name string
	fn   stack.Callable
}

// Option configures a Runtime
type Option func(*Runtime)

// WithOutput sets where console and process output goes
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithArgs sets process.argv
func WithArgs(argv ...string) Option {
	return func(r *Runtime) { r.argv = argv }
}

// WithFS resolves file modules from fsys, whose root stands for "/",
// instead of the OS file system. The configured cwd is read as a slash
// path inside fsys.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) { r.fsys = fsys }
}

// WithColor enables ANSI colours in DisplayResult
func WithColor(color bool) Option {
	return func(r *Runtime) { r.color = color }
}

// DeclareModule registers a native builtin module. Declared modules take
// precedence over the runtime's own builtins of the same name.
func DeclareModule(name string, build func(m *ModuleBuilder)) Option {
	return func(r *Runtime) {
		r.natives = append(r.natives, nativeModule{name: name, fn: NativeModule(build)})
	}
}

// New creates a Runtime from cfg; nil means config.Default().
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Runtime{
		cfg:    cfg,
		stdout: os.Stdout,
		stderr: os.Stderr,
		mem:    modules.NewMemoryResolver(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ctx = stack.New()

	b := modules.NewBuilder()
	if cfg.Modules.Data {
		b.DataLoaders()
	}
	if unknown := b.Order(cfg.Modules.Extensions...); len(unknown) > 0 {
		log.Warningf("no loader for configured extensions %v", unknown)
	}

	if r.fsys != nil {
		r.files = modules.NewFileResolver(r.fsys, filepath.ToSlash(cfg.Modules.Cwd))
	} else {
		r.files = modules.NewOSFileResolver(cfg.Modules.Cwd)
	}
	b.Resolver("file", r.files)

	for p, src := range cfg.Memory {
		r.mem.AddModule(p, src)
	}
	b.Resolver("mem", r.mem)

	if cfg.SQLite.Path != "" {
		db, err := modules.OpenSQLResolver(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("module database: %w", err)
		}
		r.db = db
		b.Resolver("db", db)
	}

	for _, nm := range r.natives {
		b.Module(nm.name, nm.fn)
	}
	b.Module("process", NativeModule(r.processModule))
	b.Module("path", NativeModule(r.pathModule))

	r.cj = b.Build()
	if err := r.cj.Install(r.ctx); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.installConsole(); err != nil {
		r.Close()
		return nil, err
	}

	log.Infof("runtime %s ready: cwd %s, schemes %v, extensions %v",
		r.ctx.ID(), r.files.Cwd(), r.cj.Schemes(), r.cj.Extensions())
	return r, nil
}

// Context returns the engine Context of the runtime
func (r *Runtime) Context() *stack.Context { return r.ctx }

// Modules returns the require engine configuration
func (r *Runtime) Modules() *modules.CommonJS { return r.cj }

// Memory returns the store behind mem:// requires
func (r *Runtime) Memory() *modules.MemoryResolver { return r.mem }

// Database returns the store behind db:// requires, or nil when no
// database is configured.
func (r *Runtime) Database() *modules.SQLResolver { return r.db }

// Color reports whether error output is colorized
func (r *Runtime) Color() bool { return r.color }

// Close releases the module database, if any
func (r *Runtime) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RunFile runs filename as the main module. Relative names are taken from
// the configured cwd.
func (r *Runtime) RunFile(filename string) (*modules.Module, error) {
	var p string
	if r.fsys != nil {
		p = filepath.ToSlash(filename)
		if !path.IsAbs(p) {
			p = path.Join(r.files.Cwd(), p)
		}
	} else {
		p = filename
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.cfg.Modules.Cwd, p)
		}
		p = filepath.ToSlash(p)
	}
	log.Debugf("running %s", p)
	return modules.RunMain(r.ctx, p)
}

// RunString evaluates src as a top-level script and returns its completion
// value. The caller owns the returned Ref.
func (r *Runtime) RunString(src string) (*refs.Ref, error) {
	if err := r.ctx.EvalNamed("<eval>", src); err != nil {
		return nil, err
	}
	return refs.Top(r.ctx), nil
}

// Require loads specifier as a top-level require would. The caller owns
// the returned Ref.
func (r *Runtime) Require(specifier string) (*refs.Ref, error) {
	return modules.Require(r.ctx, specifier)
}

// DisplayResult prints err, or value unless it is undefined, to w.
// Returns true if there was no error.
func (r *Runtime) DisplayResult(w io.Writer, value *refs.Ref, err error) bool {
	if err != nil {
		errors.DisplayError(w, err, r.color)
		return false
	}
	if value == nil || value.IsUndefined() {
		return true
	}

	c := r.ctx
	top := c.Top()
	defer c.SetTop(top)
	value.Push()
	fmt.Fprintln(w, formatValue(c, -1))
	return true
}
