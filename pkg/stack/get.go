package stack

import (
	"github.com/dop251/goja"

	"stackjs/pkg/errors"
)

func (c *Context) expect(idx int, t Type) (goja.Value, error) {
	v := c.get(idx)
	if got := typeOf(v); got != t {
		return nil, errors.NewTypeError("%s expected, got %s", t, got)
	}
	return v, nil
}

func (c *Context) GetNumber(idx int) (float64, error) {
	v, err := c.expect(idx, TypeNumber)
	if err != nil {
		return 0, err
	}
	return v.ToFloat(), nil
}

func (c *Context) GetInt(idx int) (int, error) {
	v, err := c.expect(idx, TypeNumber)
	if err != nil {
		return 0, err
	}
	return int(v.ToInteger()), nil
}

func (c *Context) GetUint(idx int) (uint32, error) {
	v, err := c.expect(idx, TypeNumber)
	if err != nil {
		return 0, err
	}
	n := v.ToInteger()
	if n < 0 {
		return 0, errors.NewTypeError("unsigned number expected, got %d", n)
	}
	return uint32(n), nil
}

func (c *Context) GetBoolean(idx int) (bool, error) {
	v, err := c.expect(idx, TypeBoolean)
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

func (c *Context) GetString(idx int) (string, error) {
	v, err := c.expect(idx, TypeString)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// GetBytes returns the contents of the buffer at idx. Strings are accepted
// and returned as their UTF-8 encoding.
func (c *Context) GetBytes(idx int) ([]byte, error) {
	v := c.get(idx)
	switch typeOf(v) {
	case TypeBuffer:
		if ab, ok := v.Export().(goja.ArrayBuffer); ok {
			return ab.Bytes(), nil
		}
	case TypeString:
		return []byte(v.String()), nil
	}
	return nil, errors.NewTypeError("buffer expected, got %s", typeOf(v))
}

// ToString coerces the value at idx to a string the way String(v) would.
func (c *Context) ToString(idx int) (string, error) {
	v := c.get(idx)
	var s string
	if err := c.try(func() { s = v.String() }); err != nil {
		return "", err
	}
	return s, nil
}

// Export converts the value at idx into a plain Go value: objects become
// map[string]any, arrays []any, numbers int64 or float64.
func (c *Context) Export(idx int) any {
	return c.get(idx).Export()
}

// Decode exports the value at idx into out, which must be a pointer.
func (c *Context) Decode(idx int, out any) error {
	if err := c.rt.ExportTo(c.get(idx), out); err != nil {
		return (&errors.TypeError{Msg: err.Error()}).CausedBy(err)
	}
	return nil
}

// SameValue reports whether the values at a and b are identical: the same
// object for reference types, strictly equal for primitives.
func (c *Context) SameValue(a, b int) bool {
	return c.get(a).SameAs(c.get(b))
}
