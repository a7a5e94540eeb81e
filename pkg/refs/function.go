package refs

import (
	"stackjs/pkg/stack"
)

// Function is a view over a Ref holding a callable value.
type Function struct {
	*Ref
}

// NewFunction wraps a host callable in a script function.
func NewFunction(c *stack.Context, fn stack.Callable) *Function {
	c.PushFunction(fn)
	return &Function{Ref: Top(c)}
}

// Call invokes the function with this = undefined.
func (f *Function) Call(args ...any) (*Ref, error) {
	return f.CallWith(nil, args...)
}

// CallWith invokes the function with an explicit this; nil means undefined.
func (f *Function) CallWith(this any, args ...any) (*Ref, error) {
	var r *Ref
	err := f.with(func(c *stack.Context) error {
		if err := c.Push(this); err != nil {
			return err
		}
		n, err := pushArgs(c, args)
		if err != nil {
			return err
		}
		if err := c.CallMethod(n); err != nil {
			return err
		}
		r = Top(c)
		return nil
	})
	return r, err
}

// Construct calls the function with the new protocol.
func (f *Function) Construct(args ...any) (*Object, error) {
	var obj *Object
	err := f.with(func(c *stack.Context) error {
		n, err := pushArgs(c, args)
		if err != nil {
			return err
		}
		if err := c.New(n); err != nil {
			return err
		}
		obj = &Object{Ref: Top(c)}
		return nil
	})
	return obj, err
}

// Name returns the function's name property.
func (f *Function) Name() string {
	var name string
	_ = f.with(func(c *stack.Context) error {
		if err := c.GetPropString(-1, "name"); err != nil {
			return err
		}
		name, _ = c.ToString(-1)
		return nil
	})
	return name
}

func (f *Function) SetName(name string) error {
	return f.with(func(c *stack.Context) error {
		return c.SetFunctionName(-1, name)
	})
}
