// Package modules implements a synchronous CommonJS require engine on top
// of the stack and refs packages.
//
// A require call classifies its specifier (builtin name, bare path or
// scheme://path), resolves it to a canonical id through the Resolver of its
// scheme, and serves the module from the per-Context cache or creates the
// module record, registers it and runs the Loader of its extension. The
// record is cached before its content runs, so circular requires observe
// the partially populated exports instead of looping.
package modules

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tliron/commonlog"

	"stackjs/pkg/errors"
	"stackjs/pkg/refs"
	"stackjs/pkg/stack"
)

var log = commonlog.GetLogger("stackjs.modules")

const (
	stashKey    = "commonjs"
	moduleIDKey = "moduleId"
)

// CommonJS is a frozen require configuration. One value can be installed
// into any number of Contexts; each gets its own cache.
type CommonJS struct {
	resolvers  map[string]Resolver
	schemes    []string
	loaders    map[string]Loader
	extensions []string
	builtins   map[string]stack.Callable
	names      []string
}

// Extensions returns the loader extensions in probing order.
func (cj *CommonJS) Extensions() []string { return slices.Clone(cj.extensions) }

// Schemes returns the registered resolver schemes.
func (cj *CommonJS) Schemes() []string { return slices.Clone(cj.schemes) }

// Builtins returns the builtin module names.
func (cj *CommonJS) Builtins() []string { return slices.Clone(cj.names) }

type stateKey struct{}

// state is the per-Context side of the engine.
type state struct {
	cj    *CommonJS
	ctx   *stack.Context
	root  *refs.Object // stash.commonjs
	cache *refs.Object // stash.commonjs.cache, id -> module object

	mu      sync.RWMutex // guards modules and stats for readers of Stats
	modules map[string]*Module
	order   []string
	stats   CacheStats
	main    *Module
}

// Install roots the module cache of c and defines the global require.
// Installing twice is a no-op.
func (cj *CommonJS) Install(c *stack.Context) error {
	if _, ok := c.Data(stateKey{}); ok {
		return nil
	}

	top := c.Top()
	defer c.SetTop(top)

	c.PushBareObject()
	cache, err := refs.Top(c).Object()
	if err != nil {
		return err
	}
	root := refs.NewObject(c)
	if err := root.Set("cache", cache).Set("main", nil).Err(); err != nil {
		return err
	}

	c.PushGlobalStash()
	root.Push()
	if err := c.PutPropString(-2, stashKey); err != nil {
		return err
	}

	s := &state{
		cj:      cj,
		ctx:     c,
		root:    root,
		cache:   cache,
		modules: make(map[string]*Module),
	}
	c.SetData(stateKey{}, s)

	require, err := s.bindRequire("")
	if err != nil {
		return err
	}
	defer require.Drop()
	require.Push()
	if err := c.PutGlobalString("require"); err != nil {
		return err
	}

	log.Debugf("installed require into %s (schemes %v, extensions %v, builtins %v)",
		c.ID(), cj.schemes, cj.extensions, cj.names)
	return nil
}

func stateFor(c *stack.Context) (*state, error) {
	if s, ok := c.Data(stateKey{}); ok {
		return s.(*state), nil
	}
	return nil, errors.NewReferenceError("require is not installed in this context")
}

// bindRequire creates a require function whose resolution parent is id.
func (s *state) bindRequire(id string) (*refs.Function, error) {
	c := s.ctx
	c.PushFunction(stack.NamedFunc("require", 1, s.call))
	c.PushString(id)
	if err := c.PutPropHidden(-2, moduleIDKey); err != nil {
		c.Pop()
		return nil, err
	}
	fn, err := refs.Top(c).Function()
	if err != nil {
		return nil, err
	}

	var main any
	if s.main != nil {
		main = s.main.obj
	}
	obj, _ := fn.Object()
	if err := obj.Set("cache", s.cache).Set("main", main).Err(); err != nil {
		fn.Drop()
		return nil, err
	}
	return fn, nil
}

// call is the native body of every require function.
func (s *state) call(c *stack.Context) (int, error) {
	if !c.IsString(0) {
		return 0, errors.NewTypeError("require: string expected, got %s", c.GetType(0))
	}
	specifier, _ := c.GetString(0)

	parent := ""
	c.PushCurrentFunction()
	if c.HasPropHidden(-1, moduleIDKey) {
		if err := c.GetPropHidden(-1, moduleIDKey); err == nil && c.IsString(-1) {
			parent, _ = c.GetString(-1)
		}
	}
	c.SetTop(1)

	id, err := s.require(specifier, parent, false)
	if err != nil {
		return 0, err
	}
	exports, err := s.exports(id)
	if err != nil {
		return 0, err
	}
	defer exports.Drop()
	exports.Push()
	return 1, nil
}

// require runs the require state machine and returns the canonical id of
// the module, which is in the cache on return even when loading failed.
func (s *state) require(specifier, parentID string, main bool) (string, error) {
	if fn, ok := s.cj.builtins[specifier]; ok {
		return specifier, s.loadBuiltin(specifier, fn)
	}

	parentScheme, parentPath := splitID(parentID)
	spec, err := parseSpecifier(specifier, parentScheme)
	if err != nil {
		return "", err
	}
	resolver, ok := s.cj.resolvers[spec.scheme]
	if !ok {
		return "", errors.NewResolveError(specifier, "could not find resolver for scheme %q", spec.scheme)
	}

	parent := ""
	if parentScheme == spec.scheme {
		parent = parentPath
	}
	resolved, err := resolver.Resolve(spec.path, parent, s.cj.extensions)
	if err != nil {
		return "", asResolveError(specifier, err)
	}

	id := canonicalID(spec.scheme, resolved)
	if s.hit(id) {
		return id, nil
	}

	ext := extensionOf(resolved)
	loader, ok := s.cj.loaders[ext]
	if !ok {
		if ext == "" {
			return "", errors.NewLoadError(id, "could not infer extension")
		}
		return "", errors.NewLoadError(id, "no loader for extension %q", ext)
	}

	m, err := s.newModule(id, spec.scheme, resolved, false)
	if err != nil {
		return "", err
	}
	if main {
		s.setMain(m)
	}
	s.register(m)

	content, err := resolver.Read(resolved)
	if err != nil {
		return id, s.fail(m, asLoadError(id, err))
	}
	return id, s.run(m, loader, content)
}

func (s *state) loadBuiltin(name string, fn stack.Callable) error {
	if s.hit(name) {
		return nil
	}
	m, err := s.newModule(name, "", "", true)
	if err != nil {
		return err
	}
	s.register(m)

	c := s.ctx
	top := c.Top()
	defer c.SetTop(top)

	start := time.Now()
	m.obj.Push()
	pushed, err := c.CallNative(fn, 1)
	m.LoadDuration = time.Since(start)
	if err != nil {
		return s.fail(m, err)
	}
	if pushed {
		m.obj.Push()
		c.Swap(-1, -2)
		if err := c.PutPropString(-2, "exports"); err != nil {
			return s.fail(m, err)
		}
	}
	return s.finish(m)
}

// newModule creates the script-visible record of a module.
func (s *state) newModule(id, scheme, resolved string, builtin bool) (*Module, error) {
	c := s.ctx
	m := &Module{
		ID:       id,
		Scheme:   scheme,
		Builtin:  builtin,
		State:    ModuleLoading,
		LoadTime: time.Now(),
		ctx:      c,
		path:     resolved,
	}
	if !builtin {
		m.FileName = id
		m.DirName = canonicalID(scheme, path.Dir(resolved))
	}

	require, err := s.bindRequire(id)
	if err != nil {
		return nil, err
	}
	defer require.Drop()
	exports := refs.NewObject(c)
	defer exports.Drop()

	obj := refs.NewObject(c)
	obj.Set("fileName", m.FileName).
		Set("dirName", m.DirName).
		Set("id", id).
		Set("loaded", false).
		Set("require", require).
		Set("exports", exports)
	if err := obj.Err(); err != nil {
		obj.Drop()
		return nil, err
	}
	m.obj = obj
	return m, nil
}

// run executes content through loader and settles the module state.
func (s *state) run(m *Module, loader Loader, content []byte) error {
	c := s.ctx
	top := c.Top()
	defer c.SetTop(top)

	m.Size = len(content)
	log.Debugf("loading %s (%s)", m.ID, humanize.Bytes(uint64(m.Size)))

	start := time.Now()
	err := loader.Load(m, content)
	m.LoadDuration = time.Since(start)
	if err != nil {
		return s.fail(m, asLoadError(m.ID, err))
	}
	return s.finish(m)
}

func (s *state) finish(m *Module) error {
	if err := m.obj.Put("loaded", true); err != nil {
		return s.fail(m, err)
	}
	s.mu.Lock()
	m.State = ModuleLoaded
	s.mu.Unlock()
	log.Debugf("loaded %s in %s", m.ID, m.LoadDuration)
	return nil
}

// fail marks m as failed. The record stays cached as far as it got.
func (s *state) fail(m *Module, err error) error {
	s.mu.Lock()
	m.State = ModuleFailed
	m.Err = err
	s.mu.Unlock()
	log.Warningf("module %s failed: %s", m.ID, err)
	return err
}

// setMain makes m the main module, visible as require.main.
func (s *state) setMain(m *Module) {
	m.Main = true
	s.main = m
	_ = s.root.Put("main", m.obj)

	c := s.ctx
	top := c.Top()
	defer c.SetTop(top)
	if c.GetGlobalString("require") && c.IsFunction(-1) {
		m.obj.Push()
		_ = c.PutPropString(-2, "main")
	}
	if req, err := m.obj.Get("require"); err == nil {
		if fn, err := req.Object(); err == nil {
			_ = fn.Put("main", m.obj)
		}
		req.Drop()
	}
}

// exports returns a new Ref to the exports of the cached module id.
func (s *state) exports(id string) (*refs.Ref, error) {
	mod, err := s.cache.Get(id)
	if err != nil {
		return nil, err
	}
	defer mod.Drop()

	if mod.IsUndefined() {
		// The script removed the entry while it was loading.
		s.mu.RLock()
		m := s.modules[id]
		s.mu.RUnlock()
		if m == nil {
			return nil, errors.NewReferenceError("module %s is not in the cache", id)
		}
		return m.obj.Get("exports")
	}

	obj, err := mod.Object()
	if err != nil {
		return nil, errors.NewTypeError("cache entry of %s is not a module", id)
	}
	if !obj.Has("exports") {
		return nil, errors.NewTypeError("module %s does not have an exports field", id)
	}
	return obj.Get("exports")
}

func asResolveError(specifier string, err error) error {
	if errors.KindOf(err) != "" {
		return err
	}
	return (&errors.ResolveError{Specifier: specifier, Msg: err.Error()}).CausedBy(err)
}

func asLoadError(id string, err error) error {
	if errors.KindOf(err) != "" {
		return err
	}
	return (&errors.LoadError{ID: id, Msg: err.Error()}).CausedBy(err)
}

func extensionOf(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

// --- Host entry points ---

// Require loads specifier as if required by a top-level script and returns
// its exports. The caller owns the returned Ref.
func Require(c *stack.Context, specifier string) (*refs.Ref, error) {
	s, err := stateFor(c)
	if err != nil {
		return nil, err
	}
	id, err := s.require(specifier, "", false)
	if err != nil {
		return nil, err
	}
	return s.exports(id)
}

// RunMain loads specifier as the main module.
func RunMain(c *stack.Context, specifier string) (*Module, error) {
	s, err := stateFor(c)
	if err != nil {
		return nil, err
	}
	id, err := s.require(specifier, "", true)
	s.mu.RLock()
	m := s.modules[id]
	s.mu.RUnlock()
	return m, err
}

// EvalMainScript runs src as the main module stored at filename. Relative
// filenames are taken from the file resolver's working directory; a
// filename without extension is treated as JavaScript.
func EvalMainScript(c *stack.Context, filename string, src []byte) (*Module, error) {
	s, err := stateFor(c)
	if err != nil {
		return nil, err
	}

	p := filepath.ToSlash(filename)
	if !path.IsAbs(p) {
		p = path.Join(s.cwd(), p)
	}
	ext := extensionOf(p)
	if ext == "" {
		ext = "js"
	}
	loader, ok := s.cj.loaders[ext]
	if !ok {
		return nil, errors.NewLoadError(p, "no loader for extension %q", ext)
	}

	m, err := s.newModule(canonicalID(fileScheme, p), fileScheme, p, false)
	if err != nil {
		return nil, err
	}
	s.setMain(m)
	s.register(m)
	return m, s.run(m, loader, src)
}

// cwd is the working directory top-level file requires resolve against.
func (s *state) cwd() string {
	if r, ok := s.cj.resolvers[fileScheme].(interface{ Cwd() string }); ok {
		return r.Cwd()
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.ToSlash(wd)
	}
	return "/"
}
