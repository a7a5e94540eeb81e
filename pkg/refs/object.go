package refs

import (
	"stackjs/pkg/errors"
	"stackjs/pkg/stack"
)

// Object is a view over a Ref holding an object. Every operation leaves the
// stack as deep as it found it, on error too.
type Object struct {
	*Ref
	err error
}

// NewObject creates an empty script object.
func NewObject(c *stack.Context) *Object {
	c.PushObject()
	return &Object{Ref: Top(c)}
}

// Get returns a new Ref to property name. A missing property yields an
// undefined Ref.
func (o *Object) Get(name string) (*Ref, error) {
	var r *Ref
	err := o.with(func(c *stack.Context) error {
		if err := c.GetPropString(-1, name); err != nil {
			return err
		}
		r = Top(c)
		return nil
	})
	return r, err
}

// Put assigns v to property name.
func (o *Object) Put(name string, v any) error {
	return o.with(func(c *stack.Context) error {
		if err := c.Push(v); err != nil {
			return err
		}
		return c.PutPropString(-2, name)
	})
}

// Set is the chaining form of Put. The first failure sticks and is
// reported by Err; later calls do nothing.
func (o *Object) Set(name string, v any) *Object {
	if o.err == nil {
		o.err = o.Put(name, v)
	}
	return o
}

// Err returns the first error recorded by Set.
func (o *Object) Err() error { return o.err }

func (o *Object) Has(name string) bool {
	var ok bool
	_ = o.with(func(c *stack.Context) error {
		ok = c.HasPropString(-1, name)
		return nil
	})
	return ok
}

func (o *Object) Delete(name string) error {
	return o.with(func(c *stack.Context) error {
		return c.DelPropString(-1, name)
	})
}

// Keys returns the own enumerable property names.
func (o *Object) Keys() ([]string, error) {
	var keys []string
	err := o.with(func(c *stack.Context) error {
		var err error
		keys, err = c.Keys(-1)
		return err
	})
	return keys, err
}

// pushArgs pushes args in order and returns how many were pushed.
func pushArgs(c *stack.Context, args []any) (int, error) {
	for i, a := range args {
		if err := c.Push(a); err != nil {
			return i, err
		}
	}
	return len(args), nil
}

// Call invokes method name with this set to the object.
func (o *Object) Call(name string, args ...any) (*Ref, error) {
	var r *Ref
	err := o.with(func(c *stack.Context) error {
		self := c.NormalizeIndex(-1)
		c.PushString(name)
		n, err := pushArgs(c, args)
		if err != nil {
			return err
		}
		if err := c.CallProp(self, n); err != nil {
			return err
		}
		r = Top(c)
		return nil
	})
	return r, err
}

// Construct calls property name as a constructor.
func (o *Object) Construct(name string, args ...any) (*Object, error) {
	var obj *Object
	err := o.with(func(c *stack.Context) error {
		if err := c.GetPropString(-1, name); err != nil {
			return err
		}
		if c.IsUndefined(-1) {
			return errors.NewReferenceError("%s is not defined", name)
		}
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

// Get decodes property name of o into a T.
func Get[T any](o *Object, name string) (T, error) {
	var out T
	err := o.with(func(c *stack.Context) error {
		if err := c.GetPropString(-1, name); err != nil {
			return err
		}
		if c.IsUndefined(-1) {
			return errors.NewReferenceError("%s is not defined", name)
		}
		return c.Decode(-1, &out)
	})
	return out, err
}
