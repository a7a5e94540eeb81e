package refs

import (
	"stackjs/pkg/errors"
	"stackjs/pkg/stack"
)

// Ref is an owned handle to one script value. It stays valid across stack
// frames until Drop. Refs are not safe for concurrent use and belong to the
// Context that created them.
type Ref struct {
	t       *Table
	id      uint32
	gen     uint32
	dropped bool
}

// Top pops the top value of c into a new Ref.
func Top(c *stack.Context) *Ref {
	t := TableFor(c)
	id := t.make()
	return &Ref{t: t, id: id, gen: t.gens[id]}
}

// New pushes v (see stack.Context.Push) and wraps it in a new Ref.
func New(c *stack.Context, v any) (*Ref, error) {
	if err := c.Push(v); err != nil {
		return nil, err
	}
	return Top(c), nil
}

// Undefined returns a Ref to undefined. It holds no slot.
func Undefined(c *stack.Context) *Ref {
	return &Ref{t: TableFor(c)}
}

func (r *Ref) check() {
	if r.dropped || r.t.gens[r.id] != r.gen {
		panic(ErrStaleRef)
	}
}

// Context returns the Context r belongs to.
func (r *Ref) Context() *stack.Context { return r.t.ctx }

// ID returns the slot id; 0 for undefined.
func (r *Ref) ID() uint32 { return r.id }

// Push pushes the referenced value.
func (r *Ref) Push() {
	r.check()
	r.t.push(r.id)
}

// PushTo implements stack.Pusher so Refs can be passed wherever plain Go
// values are accepted.
func (r *Ref) PushTo(c *stack.Context) error {
	if c != r.t.ctx {
		return errors.NewTypeError("reference belongs to another context")
	}
	r.Push()
	return nil
}

// Clone returns a new Ref to the same value in a slot of its own.
func (r *Ref) Clone() *Ref {
	r.Push()
	return Top(r.t.ctx)
}

// Drop releases the slot. Dropping twice is a no-op.
func (r *Ref) Drop() {
	if r.dropped {
		return
	}
	r.check()
	r.t.release(r.id)
	r.dropped = true
}

// with pushes the value, runs f and restores the stack depth.
func (r *Ref) with(f func(c *stack.Context) error) error {
	c := r.t.ctx
	top := c.Top()
	defer c.SetTop(top)
	r.Push()
	return f(c)
}

func (r *Ref) Type() stack.Type {
	var t stack.Type
	_ = r.with(func(c *stack.Context) error {
		t = c.GetType(-1)
		return nil
	})
	return t
}

func (r *Ref) Is(t stack.Type) bool { return r.Type() == t }
func (r *Ref) IsUndefined() bool    { return r.id == 0 }

// Export converts the value into plain Go data.
func (r *Ref) Export() any {
	var v any
	_ = r.with(func(c *stack.Context) error {
		v = c.Export(-1)
		return nil
	})
	return v
}

// Decode exports the value into out.
func (r *Ref) Decode(out any) error {
	return r.with(func(c *stack.Context) error {
		return c.Decode(-1, out)
	})
}

// String coerces the value to a string; errors yield "".
func (r *Ref) String() string {
	var s string
	_ = r.with(func(c *stack.Context) error {
		var err error
		s, err = c.ToString(-1)
		return err
	})
	return s
}

// SameAs reports whether r and other refer to the same value: the same
// object identity for objects, equal content for primitives.
func (r *Ref) SameAs(other *Ref) bool {
	var same bool
	_ = r.with(func(c *stack.Context) error {
		other.Push()
		same = c.SameValue(-1, -2)
		return nil
	})
	return same
}

// Object narrows r to an object view sharing the same slot.
func (r *Ref) Object() (*Object, error) {
	if t := r.Type(); !t.IsObject() {
		return nil, errors.NewTypeError("object expected, got %s", t)
	}
	return &Object{Ref: r}, nil
}

// Array narrows r to an array view sharing the same slot.
func (r *Ref) Array() (*Array, error) {
	if t := r.Type(); t != stack.TypeArray {
		return nil, errors.NewTypeError("array expected, got %s", t)
	}
	return &Array{Ref: r}, nil
}

// Function narrows r to a function view sharing the same slot.
func (r *Ref) Function() (*Function, error) {
	if t := r.Type(); t != stack.TypeFunction {
		return nil, errors.NewTypeError("function expected, got %s", t)
	}
	return &Function{Ref: r}, nil
}
