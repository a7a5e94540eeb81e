package stack

import (
	"github.com/dop251/goja"
)

func (c *Context) PushUndefined() *Context {
	c.push(goja.Undefined())
	return c
}

func (c *Context) PushNull() *Context {
	c.push(goja.Null())
	return c
}

func (c *Context) PushBoolean(b bool) *Context {
	c.push(c.rt.ToValue(b))
	return c
}

func (c *Context) PushInt(n int) *Context {
	c.push(c.rt.ToValue(n))
	return c
}

func (c *Context) PushUint(n uint32) *Context {
	c.push(c.rt.ToValue(n))
	return c
}

func (c *Context) PushNumber(f float64) *Context {
	c.push(c.rt.ToValue(f))
	return c
}

func (c *Context) PushString(s string) *Context {
	c.push(c.rt.ToValue(s))
	return c
}

// PushBytes pushes a copy of b as an ArrayBuffer.
func (c *Context) PushBytes(b []byte) *Context {
	buf := make([]byte, len(b))
	copy(buf, b)
	c.push(c.rt.ToValue(c.rt.NewArrayBuffer(buf)))
	return c
}

// PushObject pushes a new empty object.
func (c *Context) PushObject() *Context {
	c.push(c.rt.NewObject())
	return c
}

// PushArray pushes a new empty array.
func (c *Context) PushArray() *Context {
	c.push(c.rt.NewArray())
	return c
}

func (c *Context) PushGlobalObject() *Context {
	c.push(c.rt.GlobalObject())
	return c
}

// PushGlobalStash pushes the host-only stash object.
func (c *Context) PushGlobalStash() *Context {
	c.push(c.stash)
	return c
}

// PushThis pushes the this binding of the running native call, or
// undefined outside one.
func (c *Context) PushThis() *Context {
	c.push(c.cur().this)
	return c
}

// PushCurrentFunction pushes the function object of the running native
// call, or undefined outside one.
func (c *Context) PushCurrentFunction() *Context {
	if fn := c.cur().fn; fn != nil {
		c.push(fn)
	} else {
		c.push(goja.Undefined())
	}
	return c
}

// PushFunction pushes a new function object backed by fn.
func (c *Context) PushFunction(fn Callable) *Context {
	c.push(c.newFunction(fn))
	return c
}

// GetGlobalString pushes the global variable name and reports whether it
// exists. A missing global pushes undefined.
func (c *Context) GetGlobalString(name string) bool {
	v := c.rt.GlobalObject().Get(name)
	c.push(v)
	return v != nil
}

// PutGlobalString pops a value and stores it as global variable name.
func (c *Context) PutGlobalString(name string) error {
	v := c.pop()
	if err := c.rt.GlobalObject().Set(name, v); err != nil {
		return c.hostError(err)
	}
	return nil
}

// PushBareObject pushes a new object without a prototype, suitable as a
// map keyed by arbitrary strings.
func (c *Context) PushBareObject() *Context {
	o := c.rt.NewObject()
	_ = o.SetPrototype(nil)
	c.push(o)
	return c
}
