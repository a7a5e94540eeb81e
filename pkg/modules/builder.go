package modules

import (
	"slices"
	"strings"

	"stackjs/pkg/stack"
)

// Builder collects the resolvers, loaders and builtin modules of a require
// engine. Registration happens once at startup; Build freezes the result.
type Builder struct {
	resolvers  map[string]Resolver
	schemes    []string
	loaders    map[string]Loader
	extensions []string
	builtins   map[string]stack.Callable
	names      []string
}

// NewBuilder returns a Builder with the js and json loaders registered, in
// that order, and no resolvers.
func NewBuilder() *Builder {
	b := &Builder{
		resolvers: make(map[string]Resolver),
		loaders:   make(map[string]Loader),
		builtins:  make(map[string]stack.Callable),
	}
	b.Loader("js", JavaScriptLoader())
	b.Loader("json", JSONLoader())
	return b
}

// Resolver registers r for scheme, replacing any earlier registration.
func (b *Builder) Resolver(scheme string, r Resolver) *Builder {
	scheme = strings.ToLower(scheme)
	if _, exists := b.resolvers[scheme]; !exists {
		b.schemes = append(b.schemes, scheme)
	}
	b.resolvers[scheme] = r
	return b
}

// Loader registers l for extension (with or without the leading dot).
// Registration order is the extension probing order; re-registering an
// extension keeps its original position.
func (b *Builder) Loader(extension string, l Loader) *Builder {
	extension = strings.TrimPrefix(extension, ".")
	if _, exists := b.loaders[extension]; !exists {
		b.extensions = append(b.extensions, extension)
	}
	b.loaders[extension] = l
	return b
}

// Order moves the given registered extensions to the front of the probing
// order, in the order given. It reports the extensions that have no loader.
func (b *Builder) Order(extensions ...string) (unknown []string) {
	front := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(ext, ".")
		if _, ok := b.loaders[ext]; !ok {
			unknown = append(unknown, ext)
			continue
		}
		if !slices.Contains(front, ext) {
			front = append(front, ext)
		}
	}
	rest := slices.DeleteFunc(slices.Clone(b.extensions), func(ext string) bool {
		return slices.Contains(front, ext)
	})
	b.extensions = append(front, rest...)
	return unknown
}

// DataLoaders registers the declarative loaders: yaml, yml, toml, cbor and
// cue.
func (b *Builder) DataLoaders() *Builder {
	b.Loader("yaml", YAMLLoader())
	b.Loader("yml", YAMLLoader())
	b.Loader("toml", TOMLLoader())
	b.Loader("cbor", CBORLoader())
	b.Loader("cue", CUELoader())
	return b
}

// Module registers a builtin module. The first registration of a name wins.
func (b *Builder) Module(name string, fn stack.Callable) *Builder {
	if _, exists := b.builtins[name]; exists {
		return b
	}
	b.builtins[name] = fn
	b.names = append(b.names, name)
	return b
}

// Build returns the immutable engine configuration.
func (b *Builder) Build() *CommonJS {
	cj := &CommonJS{
		resolvers:  make(map[string]Resolver, len(b.resolvers)),
		schemes:    slices.Clone(b.schemes),
		loaders:    make(map[string]Loader, len(b.loaders)),
		extensions: slices.Clone(b.extensions),
		builtins:   make(map[string]stack.Callable, len(b.builtins)),
		names:      slices.Clone(b.names),
	}
	for k, v := range b.resolvers {
		cj.resolvers[k] = v
	}
	for k, v := range b.loaders {
		cj.loaders[k] = v
	}
	for k, v := range b.builtins {
		cj.builtins[k] = v
	}
	return cj
}
