package refs

import (
	"stackjs/pkg/stack"
)

// Array is a view over a Ref holding an array.
type Array struct {
	*Ref
}

// NewArray creates an array holding items.
func NewArray(c *stack.Context, items ...any) (*Array, error) {
	c.PushArray()
	for i, it := range items {
		if err := c.Push(it); err != nil {
			c.Pop()
			return nil, err
		}
		if err := c.PutPropIndex(-2, uint32(i)); err != nil {
			c.Pop()
			return nil, err
		}
	}
	return &Array{Ref: Top(c)}, nil
}

func (a *Array) Len() int {
	var n int
	_ = a.with(func(c *stack.Context) error {
		n = c.GetLength(-1)
		return nil
	})
	return n
}

// Get returns a new Ref to element i.
func (a *Array) Get(i uint32) (*Ref, error) {
	var r *Ref
	err := a.with(func(c *stack.Context) error {
		if err := c.GetPropIndex(-1, i); err != nil {
			return err
		}
		r = Top(c)
		return nil
	})
	return r, err
}

// Set stores v as element i.
func (a *Array) Set(i uint32, v any) error {
	return a.with(func(c *stack.Context) error {
		if err := c.Push(v); err != nil {
			return err
		}
		return c.PutPropIndex(-2, i)
	})
}

// Append adds v after the last element.
func (a *Array) Append(v any) error {
	return a.with(func(c *stack.Context) error {
		n := c.GetLength(-1)
		if err := c.Push(v); err != nil {
			return err
		}
		return c.PutPropIndex(-2, uint32(n))
	})
}

// Refs returns one new Ref per element. The caller owns them all.
func (a *Array) Refs() ([]*Ref, error) {
	var out []*Ref
	err := a.with(func(c *stack.Context) error {
		n := c.GetLength(-1)
		out = make([]*Ref, 0, n)
		for i := 0; i < n; i++ {
			if err := c.GetPropIndex(-1, uint32(i)); err != nil {
				return err
			}
			out = append(out, Top(c))
		}
		return nil
	})
	if err != nil {
		for _, r := range out {
			r.Drop()
		}
		return nil, err
	}
	return out, nil
}
