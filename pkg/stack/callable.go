package stack

import (
	"fmt"

	"github.com/dop251/goja"
)

// Callable is a host function the VM can invoke.
//
// Call runs in a fresh frame: index 0 is the first argument. Argc fixes the
// number of arguments (missing ones are undefined, extra ones dropped); -1
// accepts any number. Call returns how many results it left on the stack;
// when it is > 0 the top value becomes the call result. A returned error is
// thrown into the calling script.
type Callable interface {
	Argc() int
	Call(c *Context) (int, error)
}

// Named is implemented by callables that want a function name visible to
// scripts and in stack traces.
type Named interface {
	Name() string
}

// CallableFunc adapts a plain function into a variadic Callable.
type CallableFunc func(c *Context) (int, error)

func (f CallableFunc) Argc() int                    { return -1 }
func (f CallableFunc) Call(c *Context) (int, error) { return f(c) }

type fixedFunc struct {
	argc int
	name string
	fn   func(c *Context) (int, error)
}

func (f *fixedFunc) Argc() int                    { return f.argc }
func (f *fixedFunc) Call(c *Context) (int, error) { return f.fn(c) }
func (f *fixedFunc) Name() string                 { return f.name }

// Func returns a Callable taking exactly argc arguments.
func Func(argc int, fn func(c *Context) (int, error)) Callable {
	return &fixedFunc{argc: argc, fn: fn}
}

// NamedFunc is Func with a script-visible name.
func NamedFunc(name string, argc int, fn func(c *Context) (int, error)) Callable {
	return &fixedFunc{argc: argc, name: name, fn: fn}
}

// newFunction wraps fn in a script function object bound to this Context.
func (c *Context) newFunction(fn Callable) *goja.Object {
	var self *goja.Object
	self = c.rt.ToValue(func(call goja.FunctionCall) goja.Value {
		return c.invoke(self, fn, call)
	}).(*goja.Object)
	if n, ok := fn.(Named); ok && n.Name() != "" {
		setFunctionName(c.rt, self, n.Name())
	}
	return self
}

// invoke runs fn in a new frame holding the call arguments. The frame is
// discarded on every path, including a panic unwinding through it.
func (c *Context) invoke(self *goja.Object, fn Callable, call goja.FunctionCall) goja.Value {
	base := len(c.stack)
	for _, a := range call.Arguments {
		c.push(a)
	}
	this := call.This
	if this == nil {
		this = goja.Undefined()
	}
	c.frames = append(c.frames, frame{base: base, fn: self, this: this})
	defer func() {
		c.frames = c.frames[:len(c.frames)-1]
		c.truncate(base)
	}()

	if argc := fn.Argc(); argc >= 0 {
		c.SetTop(argc)
	}
	n, err := fn.Call(c)
	if err != nil {
		panic(c.throwable(err))
	}
	if n > 0 && c.Top() > 0 {
		return c.stack[len(c.stack)-1]
	}
	return goja.Undefined()
}

// SetFunctionName renames the function at idx.
func (c *Context) SetFunctionName(idx int, name string) error {
	o, ok := c.get(idx).(*goja.Object)
	if !ok || typeOf(o) != TypeFunction {
		return errorNotFunction(c.get(idx))
	}
	setFunctionName(c.rt, o, name)
	return nil
}

func setFunctionName(rt *goja.Runtime, o *goja.Object, name string) {
	_ = o.DefineDataProperty("name", rt.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

// CallNative runs fn directly, without going through the VM, in a new frame
// holding the top nargs values. The values are consumed. When fn reports a
// result, or leaves more values than it started with, its top value is
// pushed and CallNative returns true.
func (c *Context) CallNative(fn Callable, nargs int) (pushed bool, err error) {
	if nargs < 0 || nargs > c.Top() {
		panic(fmt.Sprintf("stack: %d arguments requested from frame of %d", nargs, c.Top()))
	}
	base := len(c.stack) - nargs
	c.frames = append(c.frames, frame{base: base, this: goja.Undefined()})

	var result goja.Value
	func() {
		defer func() {
			c.frames = c.frames[:len(c.frames)-1]
			c.truncate(base)
		}()
		if argc := fn.Argc(); argc >= 0 {
			c.SetTop(argc)
		}
		start := c.Top()
		var n int
		n, err = fn.Call(c)
		if err == nil && (n > 0 || c.Top() > start) && c.Top() > 0 {
			result = c.stack[len(c.stack)-1]
		}
	}()

	if err != nil || result == nil {
		return false, err
	}
	c.push(result)
	return true, nil
}
