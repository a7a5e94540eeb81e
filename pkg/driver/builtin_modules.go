package driver

import (
	"path"
	"strings"

	"stackjs/pkg/stack"
)

// pathModule defines the path builtin over slash-separated module paths,
// the form every resolver works with.
func (r *Runtime) pathModule(m *ModuleBuilder) {
	m.Const("sep", "/")
	m.Const("delimiter", ":")

	m.Function("join", stack.CallableFunc(func(c *stack.Context) (int, error) {
		parts := make([]string, c.Top())
		for i := range parts {
			s, err := c.GetString(i)
			if err != nil {
				return 0, err
			}
			parts[i] = s
		}
		joined := path.Join(parts...)
		if joined == "" {
			joined = "."
		}
		c.PushString(joined)
		return 1, nil
	}))
	m.Function("resolve", stack.CallableFunc(func(c *stack.Context) (int, error) {
		resolved := r.cfg.Modules.Cwd
		for i := 0; i < c.Top(); i++ {
			s, err := c.GetString(i)
			if err != nil {
				return 0, err
			}
			if path.IsAbs(s) {
				resolved = s
			} else {
				resolved = path.Join(resolved, s)
			}
		}
		c.PushString(path.Clean(resolved))
		return 1, nil
	}))

	m.Function("normalize", path.Clean)
	m.Function("dirname", path.Dir)
	m.Function("extname", path.Ext)
	m.Function("isAbsolute", path.IsAbs)
	m.Function("basename", func(p string, ext string) string {
		base := path.Base(p)
		if ext != "" && base != ext {
			base = strings.TrimSuffix(base, ext)
		}
		return base
	})
}
