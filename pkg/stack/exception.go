package stack

import (
	stderrors "errors"

	"github.com/dop251/goja"

	"stackjs/pkg/errors"
)

// hostErrorKey names the hidden property under which a thrown script error
// carries the host error it was created from.
const hostErrorKey = "hostError"

// try runs f and converts an engine exception raised inside it into a host
// error. Other panics propagate.
func (c *Context) try(f func()) (err error) {
	defer func() {
		if x := recover(); x != nil {
			switch x := x.(type) {
			case *goja.Exception:
				err = c.hostError(x)
			case goja.Value:
				err = c.errorFromValue(x, "")
			default:
				panic(x)
			}
		}
	}()
	f()
	return nil
}

// hostError converts an error returned by the engine into a typed host error.
func (c *Context) hostError(err error) error {
	if err == nil {
		return nil
	}
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		return c.errorFromValue(ex.Value(), ex.String())
	}
	return &errors.EvalError{Name: "Error", Msg: err.Error(), Cause: err}
}

// errorFromValue extracts name/message/stack from a thrown value. Values
// thrown by throwable hand back the original host error.
func (c *Context) errorFromValue(v goja.Value, stack string) error {
	o, ok := v.(*goja.Object)
	if !ok {
		return &errors.EvalError{Name: "Error", Msg: safeString(v), Value: v, Stack: stack}
	}
	if h := o.GetSymbol(c.hiddenKey(hostErrorKey)); h != nil {
		if herr, ok := h.Export().(error); ok {
			return herr
		}
	}
	ev := &errors.EvalError{Name: "Error", Value: v, Stack: stack}
	if n := o.Get("name"); isSet(n) {
		ev.Name = safeString(n)
	}
	if m := o.Get("message"); isSet(m) {
		ev.Msg = safeString(m)
	}
	if s := o.Get("stack"); isSet(s) {
		ev.Stack = safeString(s)
	}
	if ev.Msg == "" && ev.Name == "Error" {
		ev.Msg = o.ClassName()
	}
	return ev
}

// throwable turns a host error into a value the engine can throw. An
// EvalError that still carries its thrown value is rethrown unchanged.
func (c *Context) throwable(err error) goja.Value {
	var ev *errors.EvalError
	if errors.As(err, &ev) && ev.Value != nil {
		if v, ok := ev.Value.(goja.Value); ok {
			return v
		}
	}

	msg := err.Error()
	var se errors.StackError
	if errors.As(err, &se) {
		msg = se.Message()
	}

	var obj *goja.Object
	switch errors.KindOf(err) {
	case "Type":
		obj = c.rt.NewTypeError("%s", msg)
	case "Reference":
		obj = c.newError("ReferenceError", msg)
	case "Resolve":
		obj = c.newError("Error", msg)
		_ = obj.Set("name", "ResolveError")
	case "Load":
		obj = c.newError("Error", msg)
		_ = obj.Set("name", "LoadError")
	default:
		obj = c.newError("Error", msg)
	}
	_ = obj.SetSymbol(c.hiddenKey(hostErrorKey), err)
	return obj
}

func (c *Context) newError(ctor, msg string) *goja.Object {
	o, err := c.rt.New(c.rt.Get(ctor), c.rt.ToValue(msg))
	if err != nil {
		return c.rt.NewGoError(stderrors.New(msg))
	}
	return o
}

// Throw converts err into a script error and panics with it. It must only
// be called from code running inside a native callable; returning the error
// from Callable.Call is equivalent and preferred.
func (c *Context) Throw(err error) {
	panic(c.throwable(err))
}

func isSet(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// safeString stringifies v without letting a throwing toString escape.
func safeString(v goja.Value) (s string) {
	if v == nil {
		return "undefined"
	}
	defer func() {
		if recover() != nil {
			s = "[object]"
		}
	}()
	return v.String()
}
