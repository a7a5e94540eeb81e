package stack

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dop251/goja"
)

// Pusher is implemented by host values that know how to place themselves
// on the stack. PushTo must push exactly one value on success and nothing
// on error.
type Pusher interface {
	PushTo(c *Context) error
}

// Push converts a Go value and pushes it. Maps and slices of plain data
// become script objects and arrays, []byte an ArrayBuffer, a Callable a
// native function; anything else goes through the engine's reflection
// bridge.
func (c *Context) Push(v any) error {
	val, err := c.toValue(v)
	if err != nil {
		return err
	}
	c.push(val)
	return nil
}

func (c *Context) toValue(v any) (goja.Value, error) {
	switch v := v.(type) {
	case nil:
		return goja.Undefined(), nil
	case goja.Value:
		return v, nil
	case Pusher:
		top := len(c.stack)
		if err := v.PushTo(c); err != nil {
			c.truncate(top)
			return nil, err
		}
		if len(c.stack) == top {
			return goja.Undefined(), nil
		}
		val := c.stack[len(c.stack)-1]
		c.truncate(top)
		return val, nil
	case Callable:
		return c.newFunction(v), nil
	case []byte:
		buf := make([]byte, len(v))
		copy(buf, v)
		return c.rt.ToValue(c.rt.NewArrayBuffer(buf)), nil
	case map[string]any:
		obj := c.rt.NewObject()
		for _, k := range slices.Sorted(maps.Keys(v)) {
			ev, err := c.toValue(v[k])
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, ev); err != nil {
				return nil, c.hostError(err)
			}
		}
		return obj, nil
	case map[any]any:
		plain := make(map[string]any, len(v))
		for k, e := range v {
			plain[fmt.Sprint(k)] = e
		}
		return c.toValue(plain)
	case []any:
		items := make([]any, len(v))
		for i, e := range v {
			ev, err := c.toValue(e)
			if err != nil {
				return nil, err
			}
			items[i] = ev
		}
		return c.rt.NewArray(items...), nil
	}
	return c.rt.ToValue(v), nil
}
