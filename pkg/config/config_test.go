package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[modules]
cwd = "src"
extensions = [".js", "json", "yaml"]
data = true

[memory]
"/greet.js" = "module.exports = 'hi';"

[sqlite]
path = "modules.db"

[log]
verbosity = 2
file = "stackjs.log"
`
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Dir != dir {
		t.Errorf("dir = %q, want %q", c.Dir, dir)
	}
	if c.Modules.Cwd != filepath.Join(dir, "src") {
		t.Errorf("modules cwd = %q, want %q", c.Modules.Cwd, filepath.Join(dir, "src"))
	}
	if len(c.Modules.Extensions) != 3 || c.Modules.Extensions[0] != "js" {
		t.Errorf("modules extensions = %v, want [js json yaml]", c.Modules.Extensions)
	}
	if !c.Modules.Data {
		t.Error("modules data = false, want true")
	}
	if c.Memory["/greet.js"] != "module.exports = 'hi';" {
		t.Errorf("memory module = %q", c.Memory["/greet.js"])
	}
	if c.SQLite.Path != filepath.Join(dir, "modules.db") {
		t.Errorf("sqlite path = %q, want %q", c.SQLite.Path, filepath.Join(dir, "modules.db"))
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", c.Log.Verbosity)
	}
	if c.Log.File != filepath.Join(dir, "stackjs.log") {
		t.Errorf("log file = %q", c.Log.File)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(`
[sqlite]
path = ":memory:"
`), "/project")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Modules.Cwd != "/project" {
		t.Errorf("modules cwd = %q, want /project", c.Modules.Cwd)
	}
	if len(c.Modules.Extensions) != 2 || c.Modules.Extensions[0] != "js" || c.Modules.Extensions[1] != "json" {
		t.Errorf("modules extensions = %v, want [js json]", c.Modules.Extensions)
	}
	if c.SQLite.Path != ":memory:" {
		t.Errorf("sqlite path = %q, want :memory:", c.SQLite.Path)
	}
	if c.Memory == nil {
		t.Error("memory map should not be nil")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `[modules`},
		{"unknown key", "[modules]\nroots = [\"x\"]\n"},
		{"wrong type", "[log]\nverbosity = \"loud\"\n"},
	}

	for _, test := range tests {
		if _, err := Parse([]byte(test.content), "/"); err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", FileName), []byte("[log]\nverbosity = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Log.Verbosity != 1 {
		t.Errorf("log verbosity = %d, want 1", c.Log.Verbosity)
	}
	if c.Dir != filepath.Join(root, "a") {
		t.Errorf("dir = %q, want %q", c.Dir, filepath.Join(root, "a"))
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	// Temp dirs normally have no stackjs.toml above them.
	dir := t.TempDir()
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, FileName)); err == nil {
			t.Skipf("found %s above the temp dir", FileName)
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if len(c.Modules.Extensions) != 2 {
		t.Errorf("expected default extensions, got %v", c.Modules.Extensions)
	}
}
