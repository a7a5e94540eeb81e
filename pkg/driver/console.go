package driver

import (
	"fmt"
	"io"
	"strings"

	"stackjs/pkg/stack"
)

// installConsole defines the console global. log and info write to stdout,
// warn and error to stderr, debug to the driver log.
func (r *Runtime) installConsole() error {
	c := r.ctx
	top := c.Top()
	defer c.SetTop(top)

	printer := func(name string, w io.Writer) stack.Callable {
		return stack.NamedFunc(name, -1, func(c *stack.Context) (int, error) {
			fmt.Fprintln(w, formatArgs(c))
			return 0, nil
		})
	}

	c.PushObject()
	members := []struct {
		name string
		fn   stack.Callable
	}{
		{"log", printer("log", r.stdout)},
		{"info", printer("info", r.stdout)},
		{"warn", printer("warn", r.stderr)},
		{"error", printer("error", r.stderr)},
		{"debug", stack.NamedFunc("debug", -1, func(c *stack.Context) (int, error) {
			log.Debugf("console: %s", formatArgs(c))
			return 0, nil
		})},
	}
	for _, member := range members {
		c.PushFunction(member.fn)
		if err := c.PutPropString(-2, member.name); err != nil {
			return err
		}
	}
	return c.PutGlobalString("console")
}

// formatArgs renders every value of the current frame, space separated.
func formatArgs(c *stack.Context) string {
	parts := make([]string, c.Top())
	for i := range parts {
		parts[i] = formatValue(c, i)
	}
	return strings.Join(parts, " ")
}

// formatValue renders objects and arrays as JSON and anything else by its
// string conversion.
func formatValue(c *stack.Context, idx int) string {
	idx = c.NormalizeIndex(idx)
	switch c.GetType(idx) {
	case stack.TypeObject, stack.TypeArray:
		top := c.Top()
		defer c.SetTop(top)
		c.GetGlobalString("JSON")
		c.PushString("stringify")
		c.Dup(idx)
		if err := c.CallProp(-3, 1); err == nil && c.IsString(-1) {
			s, _ := c.GetString(-1)
			return s
		}
	}
	s, err := c.ToString(idx)
	if err != nil {
		return "[" + c.GetType(idx).String() + "]"
	}
	return s
}
