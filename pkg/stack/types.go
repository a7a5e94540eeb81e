package stack

import (
	"reflect"

	"github.com/dop251/goja"
)

// Type is the VM type tag of a stack value.
type Type int

const (
	TypeNone Type = iota // Invalid index
	TypeUndefined
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeObject
	TypeArray
	TypeFunction
	TypeBuffer
	TypeSymbol
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeFunction:
		return "function"
	case TypeBuffer:
		return "buffer"
	case TypeSymbol:
		return "symbol"
	default:
		return "invalid"
	}
}

// IsObject reports whether values of type t are objects (arrays, functions
// and buffers included).
func (t Type) IsObject() bool {
	switch t {
	case TypeObject, TypeArray, TypeFunction, TypeBuffer:
		return true
	}
	return false
}

var arrayBufferType = reflect.TypeOf(goja.ArrayBuffer{})

func typeOf(v goja.Value) Type {
	if v == nil || goja.IsUndefined(v) {
		return TypeUndefined
	}
	if goja.IsNull(v) {
		return TypeNull
	}
	switch o := v.(type) {
	case *goja.Object:
		if _, ok := goja.AssertFunction(o); ok {
			return TypeFunction
		}
		// ArrayBuffers report class "Object"; only the export type tells.
		if o.ExportType() == arrayBufferType {
			return TypeBuffer
		}
		if o.ClassName() == "Array" {
			return TypeArray
		}
		return TypeObject
	case *goja.Symbol:
		return TypeSymbol
	}
	et := v.ExportType()
	if et == nil {
		return TypeNone
	}
	switch et.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int64, reflect.Float64:
		return TypeNumber
	case reflect.String:
		return TypeString
	}
	return TypeNone
}

// TypeOf returns the type tag of a raw engine value.
func TypeOf(v goja.Value) Type { return typeOf(v) }

// GetType returns the type of the value at idx, or TypeNone when idx is
// not a valid index.
func (c *Context) GetType(idx int) Type {
	if !c.IsValidIndex(idx) {
		return TypeNone
	}
	return typeOf(c.get(idx))
}

// Is reports whether the value at idx has type t.
func (c *Context) Is(t Type, idx int) bool { return c.GetType(idx) == t }

func (c *Context) IsUndefined(idx int) bool { return c.Is(TypeUndefined, idx) }
func (c *Context) IsNull(idx int) bool      { return c.Is(TypeNull, idx) }
func (c *Context) IsBoolean(idx int) bool   { return c.Is(TypeBoolean, idx) }
func (c *Context) IsNumber(idx int) bool    { return c.Is(TypeNumber, idx) }
func (c *Context) IsString(idx int) bool    { return c.Is(TypeString, idx) }
func (c *Context) IsArray(idx int) bool     { return c.Is(TypeArray, idx) }
func (c *Context) IsFunction(idx int) bool  { return c.Is(TypeFunction, idx) }
func (c *Context) IsBuffer(idx int) bool    { return c.Is(TypeBuffer, idx) }

// IsObject reports whether the value at idx is any kind of object.
func (c *Context) IsObject(idx int) bool { return c.GetType(idx).IsObject() }
