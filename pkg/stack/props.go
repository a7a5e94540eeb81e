package stack

import (
	"strconv"

	"github.com/dop251/goja"

	"stackjs/pkg/errors"
)

// hiddenKey returns the symbol standing in for a hidden property name.
// Symbol-keyed properties never show up in enumeration, JSON or string
// lookups, so scripts cannot observe them by accident.
func (c *Context) hiddenKey(name string) *goja.Symbol {
	sym, ok := c.hidden[name]
	if !ok {
		sym = goja.NewSymbol(name)
		c.hidden[name] = sym
	}
	return sym
}

// objectAt coerces the value at absolute position i to an object.
func (c *Context) objectAt(i int) (*goja.Object, error) {
	v := c.stack[i]
	if o, ok := v.(*goja.Object); ok {
		return o, nil
	}
	if !isSet(v) {
		return nil, errors.NewTypeError("cannot access property of %s", typeOf(v))
	}
	var o *goja.Object
	if err := c.try(func() { o = v.ToObject(c.rt) }); err != nil {
		return nil, err
	}
	return o, nil
}

// GetPropString pushes the property name of the value at idx. A missing
// property pushes undefined. On error nothing is pushed.
func (c *Context) GetPropString(idx int, name string) error {
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return err
	}
	var v goja.Value
	if err := c.try(func() { v = o.Get(name) }); err != nil {
		return err
	}
	c.push(v)
	return nil
}

// PutPropString pops a value and assigns it to property name of the value
// at idx. idx is resolved before the pop. The value is consumed on error too.
func (c *Context) PutPropString(idx int, name string) error {
	i := c.abs(idx)
	v := c.pop()
	o, err := c.objectAt(i)
	if err != nil {
		return err
	}
	if err := o.Set(name, v); err != nil {
		return c.hostError(err)
	}
	return nil
}

// HasPropString reports whether the value at idx has property name, own or
// inherited.
func (c *Context) HasPropString(idx int, name string) bool {
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return false
	}
	var v goja.Value
	if c.try(func() { v = o.Get(name) }) != nil {
		return false
	}
	return v != nil
}

// DelPropString deletes property name of the value at idx.
func (c *Context) DelPropString(idx int, name string) error {
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return err
	}
	if err := o.Delete(name); err != nil {
		return c.hostError(err)
	}
	return nil
}

// GetPropIndex pushes element i of the value at idx.
func (c *Context) GetPropIndex(idx int, i uint32) error {
	return c.GetPropString(idx, strconv.FormatUint(uint64(i), 10))
}

// PutPropIndex pops a value and stores it as element i of the value at idx.
func (c *Context) PutPropIndex(idx int, i uint32) error {
	return c.PutPropString(idx, strconv.FormatUint(uint64(i), 10))
}

// HasPropIndex reports whether element i of the value at idx exists.
func (c *Context) HasPropIndex(idx int, i uint32) bool {
	return c.HasPropString(idx, strconv.FormatUint(uint64(i), 10))
}

// DelPropIndex deletes element i of the value at idx.
func (c *Context) DelPropIndex(idx int, i uint32) error {
	return c.DelPropString(idx, strconv.FormatUint(uint64(i), 10))
}

// GetPropHidden pushes the hidden property key of the object at idx.
func (c *Context) GetPropHidden(idx int, key string) error {
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return err
	}
	c.push(o.GetSymbol(c.hiddenKey(key)))
	return nil
}

// PutPropHidden pops a value and stores it under the hidden key of the
// object at idx.
func (c *Context) PutPropHidden(idx int, key string) error {
	i := c.abs(idx)
	v := c.pop()
	o, err := c.objectAt(i)
	if err != nil {
		return err
	}
	if err := o.SetSymbol(c.hiddenKey(key), v); err != nil {
		return c.hostError(err)
	}
	return nil
}

// HasPropHidden reports whether the object at idx carries the hidden key.
func (c *Context) HasPropHidden(idx int, key string) bool {
	o, ok := c.get(idx).(*goja.Object)
	if !ok {
		return false
	}
	return o.GetSymbol(c.hiddenKey(key)) != nil
}

// Keys returns the own enumerable property names of the object at idx.
func (c *Context) Keys(idx int) ([]string, error) {
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return nil, err
	}
	return o.Keys(), nil
}

// GetLength returns the length property of the value at idx, or 0 when it
// has none.
func (c *Context) GetLength(idx int) int {
	v := c.get(idx)
	if !isSet(v) {
		return 0
	}
	o, err := c.objectAt(c.abs(idx))
	if err != nil {
		return 0
	}
	var n int64
	if c.try(func() {
		if l := o.Get("length"); isSet(l) {
			n = l.ToInteger()
		}
	}) != nil {
		return 0
	}
	return int(n)
}
