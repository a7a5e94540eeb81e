// Package stack exposes an embedded JavaScript engine through an
// index-addressed operand stack. Host code never holds engine values
// directly: it pushes them, operates on them by stack position and pops
// them again. Durable references are built on top of this by pkg/refs.
//
// A Context is bound to one engine instance and is not safe for concurrent
// use. Re-entrancy is supported: a native callable invoked by a script may
// push values and call back into the engine.
package stack

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// frame is one activation record on the value stack. Indices >= 0 are
// relative to base; fn and this describe the native call that opened it.
type frame struct {
	base int
	fn   *goja.Object
	this goja.Value
}

// Context is the StackContext: one engine instance plus its value stack.
type Context struct {
	rt     *goja.Runtime
	id     string
	stack  []goja.Value
	frames []frame

	// stash is reachable from the host only; everything stored in it stays
	// alive for as long as the Context does.
	stash  *goja.Object
	hidden map[string]*goja.Symbol
	data   map[any]any
}

// New creates a Context over a fresh engine instance.
func New() *Context {
	rt := goja.New()
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	c := &Context{
		rt:     rt,
		id:     uuid.NewString(),
		stack:  make([]goja.Value, 0, 64),
		stash:  rt.NewObject(),
		hidden: make(map[string]*goja.Symbol),
		data:   make(map[any]any),
	}
	c.frames = []frame{{base: 0, this: goja.Undefined()}}
	return c
}

// Runtime returns the underlying engine. Values obtained from it bypass the
// stack discipline; prefer the stack API.
func (c *Context) Runtime() *goja.Runtime { return c.rt }

// ID returns the instance id of this Context.
func (c *Context) ID() string { return c.id }

// Data returns the host value stored under key.
func (c *Context) Data(key any) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// SetData stores a host value under key for the lifetime of the Context.
// Subsystems use unexported key types to avoid collisions.
func (c *Context) SetData(key, value any) {
	if value == nil {
		delete(c.data, key)
		return
	}
	c.data[key] = value
}

func (c *Context) cur() *frame { return &c.frames[len(c.frames)-1] }

// Top returns the number of values in the current frame.
func (c *Context) Top() int { return len(c.stack) - c.cur().base }

// IsValidIndex reports whether idx addresses a value in the current frame.
func (c *Context) IsValidIndex(idx int) bool {
	top := c.Top()
	if idx < 0 {
		idx += top
	}
	return idx >= 0 && idx < top
}

// NormalizeIndex converts idx into its non-negative, frame-relative form.
func (c *Context) NormalizeIndex(idx int) int {
	return c.abs(idx) - c.cur().base
}

// abs maps a frame-relative index to a position in c.stack.
func (c *Context) abs(idx int) int {
	top := c.Top()
	n := idx
	if n < 0 {
		n += top
	}
	if n < 0 || n >= top {
		panic(fmt.Sprintf("stack: invalid index %d (top %d)", idx, top))
	}
	return c.cur().base + n
}

func (c *Context) get(idx int) goja.Value { return c.stack[c.abs(idx)] }

func (c *Context) push(v goja.Value) {
	if v == nil {
		v = goja.Undefined()
	}
	c.stack = append(c.stack, v)
}

func (c *Context) pop() goja.Value {
	if c.Top() == 0 {
		panic("stack: pop from empty frame")
	}
	n := len(c.stack) - 1
	v := c.stack[n]
	c.stack[n] = nil
	c.stack = c.stack[:n]
	return v
}

// truncate drops everything at or above absolute position n.
func (c *Context) truncate(n int) {
	if n >= len(c.stack) {
		return
	}
	clear(c.stack[n:])
	c.stack = c.stack[:n]
}

// Value returns the engine value at idx without removing it.
func (c *Context) Value(idx int) goja.Value { return c.get(idx) }

// PushValue pushes a raw engine value.
func (c *Context) PushValue(v goja.Value) *Context {
	c.push(v)
	return c
}

// Pop removes the top value.
func (c *Context) Pop() *Context {
	c.pop()
	return c
}

// PopN removes the top n values.
func (c *Context) PopN(n int) *Context {
	if n > c.Top() {
		panic(fmt.Sprintf("stack: pop %d from frame of %d", n, c.Top()))
	}
	c.truncate(len(c.stack) - n)
	return c
}

// SetTop shrinks the frame to n values, or grows it with undefined.
func (c *Context) SetTop(n int) *Context {
	if n < 0 {
		panic(fmt.Sprintf("stack: negative top %d", n))
	}
	base := c.cur().base
	if base+n <= len(c.stack) {
		c.truncate(base + n)
		return c
	}
	for len(c.stack) < base+n {
		c.push(goja.Undefined())
	}
	return c
}

// Dup pushes a copy of the value at idx.
func (c *Context) Dup(idx int) *Context {
	c.push(c.get(idx))
	return c
}

// Remove deletes the value at idx, shifting the values above it down.
func (c *Context) Remove(idx int) *Context {
	i := c.abs(idx)
	copy(c.stack[i:], c.stack[i+1:])
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]
	return c
}

// Insert moves the top value to idx, shifting the values above idx up.
func (c *Context) Insert(idx int) *Context {
	i := c.abs(idx)
	v := c.stack[len(c.stack)-1]
	copy(c.stack[i+1:], c.stack[i:len(c.stack)-1])
	c.stack[i] = v
	return c
}

// Replace pops the top value and stores it at idx.
func (c *Context) Replace(idx int) *Context {
	i := c.abs(idx)
	v := c.pop()
	if i < len(c.stack) {
		c.stack[i] = v
	}
	return c
}

// Swap exchanges the values at a and b.
func (c *Context) Swap(a, b int) *Context {
	i, j := c.abs(a), c.abs(b)
	c.stack[i], c.stack[j] = c.stack[j], c.stack[i]
	return c
}

// Dump renders the current frame for debugging.
func (c *Context) Dump() string {
	var sb strings.Builder
	base := c.cur().base
	sb.WriteString("[")
	for i, v := range c.stack[base:] {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(typeOf(v).String())
	}
	sb.WriteString("]")
	return sb.String()
}
