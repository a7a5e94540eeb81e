package stack

import (
	"fmt"

	"github.com/dop251/goja"

	"stackjs/pkg/errors"
)

func errorNotFunction(v goja.Value) error {
	return errors.NewTypeError("%s is not a function", typeOf(v))
}

// takeArgs removes the top n values and returns them in push order.
func (c *Context) takeArgs(n int) []goja.Value {
	if n < 0 || n > c.Top() {
		panic(fmt.Sprintf("stack: %d arguments requested from frame of %d", n, c.Top()))
	}
	start := len(c.stack) - n
	args := make([]goja.Value, n)
	copy(args, c.stack[start:])
	c.truncate(start)
	return args
}

func (c *Context) callValue(fn, this goja.Value, args []goja.Value) error {
	f, ok := goja.AssertFunction(fn)
	if !ok {
		return errorNotFunction(fn)
	}
	res, err := f(this, args...)
	if err != nil {
		return c.hostError(err)
	}
	c.push(res)
	return nil
}

// Call invokes a function with this = undefined.
//
//	[... fn arg1 ... argN] -> [... result]
//
// The function and its arguments are consumed on every path; the result is
// pushed only on success.
func (c *Context) Call(nargs int) error {
	args := c.takeArgs(nargs)
	fn := c.pop()
	return c.callValue(fn, goja.Undefined(), args)
}

// CallMethod invokes a function with an explicit this binding.
//
//	[... fn this arg1 ... argN] -> [... result]
func (c *Context) CallMethod(nargs int) error {
	args := c.takeArgs(nargs)
	this := c.pop()
	fn := c.pop()
	return c.callValue(fn, this, args)
}

// CallProp invokes a method of the object at objIdx.
//
//	[... obj ... key arg1 ... argN] -> [... obj ... result]
//
// A missing method is a ReferenceError, a non-callable one a TypeError.
func (c *Context) CallProp(objIdx int, nargs int) error {
	oi := c.abs(objIdx)
	args := c.takeArgs(nargs)
	key := c.pop()
	if oi >= len(c.stack) {
		panic(fmt.Sprintf("stack: object index %d consumed by call", objIdx))
	}
	this := c.stack[oi]
	o, err := c.objectAt(oi)
	if err != nil {
		return err
	}
	name := safeString(key)
	var fn goja.Value
	if err := c.try(func() { fn = o.Get(name) }); err != nil {
		return err
	}
	if fn == nil {
		return errors.NewReferenceError("%s is not defined on %s", name, typeOf(this))
	}
	return c.callValue(fn, this, args)
}

// New constructs an object with the new protocol.
//
//	[... ctor arg1 ... argN] -> [... instance]
func (c *Context) New(nargs int) error {
	args := c.takeArgs(nargs)
	ctor := c.pop()
	if typeOf(ctor) != TypeFunction {
		return errors.NewTypeError("%s is not a constructor", typeOf(ctor))
	}
	o, err := c.rt.New(ctor, args...)
	if err != nil {
		return c.hostError(err)
	}
	c.push(o)
	return nil
}
