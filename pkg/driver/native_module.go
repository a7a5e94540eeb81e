package driver

import (
	"fmt"
	"reflect"

	"stackjs/pkg/stack"
)

// ModuleBuilder provides the declarative API for building native modules.
// Members become properties of the module's exports in declaration order.
type ModuleBuilder struct {
	names  []string
	values map[string]any

	def        any
	hasDefault bool
}

func newModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{values: make(map[string]any)}
}

func (m *ModuleBuilder) set(name string, value any) *ModuleBuilder {
	if _, exists := m.values[name]; !exists {
		m.names = append(m.names, name)
	}
	m.values[name] = value
	return m
}

// Const adds a constant to the module
func (m *ModuleBuilder) Const(name string, value any) *ModuleBuilder {
	return m.set(name, value)
}

// Function adds a function to the module. fn is a stack.Callable or a plain
// Go func whose arguments and results the engine converts by reflection.
func (m *ModuleBuilder) Function(name string, fn any) *ModuleBuilder {
	switch f := fn.(type) {
	case stack.Callable:
		if n, ok := f.(stack.Named); !ok || n.Name() == "" {
			fn = stack.NamedFunc(name, f.Argc(), f.Call)
		}
	default:
		if reflect.TypeOf(fn).Kind() != reflect.Func {
			panic(fmt.Sprintf("native module function %s: %T is not a func", name, fn))
		}
	}
	return m.set(name, fn)
}

// Namespace creates a nested object within the module
func (m *ModuleBuilder) Namespace(name string, build func(ns *ModuleBuilder)) *ModuleBuilder {
	ns := newModuleBuilder()
	build(ns)
	return m.set(name, ns)
}

// Default makes value the whole exports of the module. Other members are
// ignored.
func (m *ModuleBuilder) Default(value any) *ModuleBuilder {
	m.def = value
	m.hasDefault = true
	return m
}

// PushTo implements stack.Pusher: a builder pushes as a plain object
// holding its members.
func (m *ModuleBuilder) PushTo(c *stack.Context) error {
	c.PushObject()
	if err := m.populate(c, -1); err != nil {
		c.Pop()
		return err
	}
	return nil
}

// populate stores every member on the object at idx.
func (m *ModuleBuilder) populate(c *stack.Context, idx int) error {
	idx = c.NormalizeIndex(idx)
	for _, name := range m.names {
		if err := c.Push(m.values[name]); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		if err := c.PutPropString(idx, name); err != nil {
			return err
		}
	}
	return nil
}

// NativeModule returns a builtin module whose exports are declared by
// build. build runs once per Context that requires the module.
func NativeModule(build func(m *ModuleBuilder)) stack.Callable {
	return stack.Func(1, func(c *stack.Context) (int, error) {
		m := newModuleBuilder()
		build(m)

		if m.hasDefault {
			if err := c.Push(m.def); err != nil {
				return 0, err
			}
			return 1, nil
		}

		if err := c.GetPropString(0, "exports"); err != nil {
			return 0, err
		}
		if err := m.populate(c, -1); err != nil {
			return 0, err
		}
		c.Pop()
		return 0, nil
	})
}
