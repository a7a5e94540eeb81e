package driver

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// processModule declares the Node.js-compatible process builtin
func (r *Runtime) processModule(m *ModuleBuilder) {
	argv := make([]any, len(r.argv))
	for i, arg := range r.argv {
		argv[i] = arg
	}

	env := make(map[string]any)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok && key != "" {
			env[key] = value
		}
	}

	m.Const("argv", argv)
	m.Const("env", env)
	m.Const("platform", runtime.GOOS)
	m.Const("arch", runtime.GOARCH)
	m.Const("pid", os.Getpid())
	m.Const("instance", r.ctx.ID())

	m.Function("cwd", func() string {
		return r.cfg.Modules.Cwd
	})

	m.Namespace("stdout", func(ns *ModuleBuilder) {
		ns.Function("write", func(s string) bool {
			fmt.Fprint(r.stdout, s)
			return true
		})
	})
	m.Namespace("stderr", func(ns *ModuleBuilder) {
		ns.Function("write", func(s string) bool {
			fmt.Fprint(r.stderr, s)
			return true
		})
	})

	m.Function("memoryUsage", func() map[string]any {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return map[string]any{
			"heapUsed":  float64(ms.HeapAlloc),
			"heapTotal": float64(ms.HeapSys),
			"rss":       float64(ms.Sys),
		}
	})
}
