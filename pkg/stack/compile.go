package stack

import (
	"strings"

	"github.com/dop251/goja"

	"stackjs/pkg/errors"
)

// CompileFlags select how Compile treats its source.
type CompileFlags int

const (
	// CompileEval compiles a program; the result is a function that runs it
	// and returns its completion value.
	CompileEval CompileFlags = 0
	// CompileFunction compiles a single function expression; the result is
	// that function.
	CompileFunction CompileFlags = 1 << iota
	// CompileStrict compiles in strict mode.
	CompileStrict
)

// Compile compiles source code into a function.
//
//	[... source filename] -> [... function]
//
// Source and filename are consumed on every path; on a syntax error nothing
// is pushed.
func (c *Context) Compile(flags CompileFlags) error {
	filename := safeString(c.pop())
	source := safeString(c.pop())

	strict := flags&CompileStrict != 0
	if flags&CompileFunction != 0 {
		source = "(" + source + "\n)"
	}
	prog, err := goja.Compile(filename, source, strict)
	if err != nil {
		return compileError(filename, err)
	}

	if flags&CompileFunction != 0 {
		v, err := c.rt.RunProgram(prog)
		if err != nil {
			return c.hostError(err)
		}
		if typeOf(v) != TypeFunction {
			return errors.NewTypeError("%s does not evaluate to a function", filename)
		}
		c.push(v)
		return nil
	}

	c.push(c.newFunction(NamedFunc(filename, 0, func(c *Context) (int, error) {
		v, err := c.rt.RunProgram(prog)
		if err != nil {
			return 0, c.hostError(err)
		}
		c.push(v)
		return 1, nil
	})))
	return nil
}

func compileError(filename string, err error) error {
	return &errors.EvalError{Name: "SyntaxError", Msg: err.Error(), Stack: "    at " + filename, Cause: err}
}

// EvalString runs src as a program and pushes its completion value. On
// error nothing is pushed.
func (c *Context) EvalString(src string) error {
	return c.EvalNamed("eval", src)
}

// EvalNamed is EvalString with a filename for stack traces.
func (c *Context) EvalNamed(filename, src string) error {
	prog, err := goja.Compile(filename, src, false)
	if err != nil {
		return compileError(filename, err)
	}
	v, err := c.rt.RunProgram(prog)
	if err != nil {
		return c.hostError(err)
	}
	c.push(v)
	return nil
}

// Concat replaces the top n values with their string concatenation.
func (c *Context) Concat(n int) error {
	args := c.takeArgs(n)
	var sb strings.Builder
	for _, a := range args {
		var s string
		if err := c.try(func() { s = a.String() }); err != nil {
			return err
		}
		sb.WriteString(s)
	}
	c.push(c.rt.ToValue(sb.String()))
	return nil
}
