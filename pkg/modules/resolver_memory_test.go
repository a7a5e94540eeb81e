package modules

import (
	"path/filepath"
	"slices"
	"testing"

	"stackjs/pkg/errors"
)

func TestMemoryResolverAddModule(t *testing.T) {
	resolver := NewMemoryResolver()

	content := `module.exports = function greet(name) { return "Hello, " + name + "!"; };`
	resolver.AddModule("greet.js", content)

	modules := resolver.ListModules()
	if len(modules) != 1 {
		t.Fatalf("Expected 1 module, got %d", len(modules))
	}
	if modules[0] != "/greet.js" {
		t.Errorf("Expected module '/greet.js', got '%s'", modules[0])
	}

	module := resolver.GetModule("/greet.js")
	if module == nil {
		t.Fatal("Expected to find module, got nil")
	}
	if string(module.Content) != content {
		t.Errorf("Expected content to match, got different content")
	}
	if module.Created.IsZero() || module.Modified.IsZero() {
		t.Errorf("Expected timestamps to be set")
	}
}

func TestMemoryResolverResolve(t *testing.T) {
	resolver := NewMemoryResolver()
	resolver.AddModule("/test.js", "exports.test = true;")
	resolver.AddModule("/utils/index.js", "module.exports = require('./helper');")
	resolver.AddModule("/utils/helper.js", "exports.help = function() {};")
	resolver.AddModule("/data/values.json", `[1, 2, 3]`)

	tests := []struct {
		specifier string
		parent    string
		expected  string
	}{
		{"/test", "", "/test.js"},
		{"./test.js", "", "/test.js"},
		{"./utils", "", "/utils/index.js"},
		{"./helper", "/utils/index.js", "/utils/helper.js"},
		{"../data/values", "/utils/index.js", "/data/values.json"},
	}

	for _, test := range tests {
		resolved, err := resolver.Resolve(test.specifier, test.parent, defaultExtensions)
		if err != nil {
			t.Errorf("Resolve(%q, %q): unexpected error: %v", test.specifier, test.parent, err)
			continue
		}
		if resolved != test.expected {
			t.Errorf("Resolve(%q, %q): expected %s, got %s", test.specifier, test.parent, test.expected, resolved)
		}
	}

	if _, err := resolver.Resolve("./nope", "", defaultExtensions); err == nil {
		t.Errorf("Expected an error for a missing module")
	} else if errors.KindOf(err) != "Resolve" {
		t.Errorf("Expected a Resolve error, got %v", err)
	}
}

func TestMemoryResolverUpdateAndRemove(t *testing.T) {
	resolver := NewMemoryResolver()
	resolver.AddModule("/a.js", "exports.v = 1;")

	if err := resolver.UpdateModule("/a.js", "exports.v = 2;"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data, err := resolver.Read("/a.js")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != "exports.v = 2;" {
		t.Errorf("Expected updated content, got %s", data)
	}

	// Read hands out a copy.
	data[0] = 'X'
	if again, _ := resolver.Read("/a.js"); again[0] != 'e' {
		t.Errorf("Read must not expose the stored content")
	}

	if err := resolver.UpdateModule("/b.js", ""); err == nil {
		t.Errorf("Expected an error updating a missing module")
	}

	resolver.RemoveModule("/a.js")
	if _, err := resolver.Read("/a.js"); errors.KindOf(err) != "Load" {
		t.Errorf("Expected a Load error after removal, got %v", err)
	}

	resolver.AddModule("/x.js", "")
	resolver.AddModule("/y.js", "")
	resolver.Clear()
	if n := len(resolver.ListModules()); n != 0 {
		t.Errorf("Expected an empty store after Clear, got %d modules", n)
	}
}

func TestSQLResolver(t *testing.T) {
	resolver, err := OpenSQLResolver(filepath.Join(t.TempDir(), "modules.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer resolver.Close()

	files := map[string]string{
		"/lib/index.js": "module.exports = require('./impl');",
		"/lib/impl.js":  "exports.impl = true;",
		"/lib2/x.js":    "",
		"/conf.json":    `{"db": true}`,
	}
	for p, src := range files {
		if err := resolver.Put(p, []byte(src)); err != nil {
			t.Fatalf("Put(%s): %v", p, err)
		}
	}

	paths, err := resolver.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	expected := []string{"/conf.json", "/lib/impl.js", "/lib/index.js", "/lib2/x.js"}
	if !slices.Equal(paths, expected) {
		t.Errorf("Expected %v, got %v", expected, paths)
	}

	tests := []struct {
		specifier string
		parent    string
		expected  string
	}{
		{"/lib", "", "/lib/index.js"},
		{"./impl", "/lib/index.js", "/lib/impl.js"},
		{"/conf", "", "/conf.json"},
		{"../lib2/x", "/lib/index.js", "/lib2/x.js"},
	}
	for _, test := range tests {
		resolved, err := resolver.Resolve(test.specifier, test.parent, defaultExtensions)
		if err != nil {
			t.Errorf("Resolve(%q, %q): unexpected error: %v", test.specifier, test.parent, err)
			continue
		}
		if resolved != test.expected {
			t.Errorf("Resolve(%q, %q): expected %s, got %s", test.specifier, test.parent, test.expected, resolved)
		}
	}

	// "/li" is a prefix of stored paths but not a directory.
	if _, err := resolver.Resolve("/li", "", defaultExtensions); err == nil {
		t.Errorf("Expected /li not to resolve")
	}

	if err := resolver.Put("/lib/impl.js", []byte("exports.impl = 2;")); err != nil {
		t.Fatal(err)
	}
	data, err := resolver.Read("/lib/impl.js")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "exports.impl = 2;" {
		t.Errorf("Expected the upserted source, got %s", data)
	}

	if err := resolver.Delete("/lib/impl.js"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolver.Read("/lib/impl.js"); errors.KindOf(err) != "Load" {
		t.Errorf("Expected a Load error after Delete, got %v", err)
	}
}
