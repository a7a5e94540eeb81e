package refs

import (
	"testing"

	"stackjs/pkg/errors"
	"stackjs/pkg/stack"
)

func TestRoundTrip(t *testing.T) {
	c := stack.New()

	tests := []struct {
		name string
		push func()
		want stack.Type
	}{
		{"number", func() { c.PushNumber(1.5) }, stack.TypeNumber},
		{"string", func() { c.PushString("hello") }, stack.TypeString},
		{"boolean", func() { c.PushBoolean(true) }, stack.TypeBoolean},
		{"null", func() { c.PushNull() }, stack.TypeNull},
		{"object", func() { c.PushObject() }, stack.TypeObject},
		{"array", func() { c.PushArray() }, stack.TypeArray},
	}

	for _, test := range tests {
		test.push()
		c.Dup(-1)
		r := Top(c)
		if c.Top() != 1 {
			t.Fatalf("%s: making a ref should consume one value, top %d", test.name, c.Top())
		}
		r.Push()
		if c.GetType(-1) != test.want {
			t.Errorf("%s: expected type %s, got %s", test.name, test.want, c.GetType(-1))
		}
		if !c.SameValue(-1, -2) {
			t.Errorf("%s: pushed value differs from the original", test.name)
		}
		c.SetTop(0)
		r.Drop()
	}
}

func TestUndefinedUsesSentinel(t *testing.T) {
	c := stack.New()
	c.PushUndefined()
	r := Top(c)
	if r.ID() != 0 || !r.IsUndefined() {
		t.Errorf("Expected sentinel id 0, got %d", r.ID())
	}
	if s := TableFor(c).Stats(); s.Live != 0 {
		t.Errorf("Undefined must not take a slot, live %d", s.Live)
	}
	r.Push()
	if !c.IsUndefined(-1) {
		t.Errorf("Expected undefined to be pushed")
	}
	r.Drop()
	r.Drop()
}

func TestFreeListReuse(t *testing.T) {
	c := stack.New()
	mk := func(s string) *Ref {
		c.PushString(s)
		return Top(c)
	}

	a, b, d := mk("a"), mk("b"), mk("c")
	if a.ID() != 1 || b.ID() != 2 || d.ID() != 3 {
		t.Fatalf("Expected ids 1,2,3, got %d,%d,%d", a.ID(), b.ID(), d.ID())
	}

	freed := b.ID()
	b.Drop()
	if fl := TableFor(c).FreeList(); len(fl) != 1 || fl[0] != freed {
		t.Errorf("Expected free list [%d], got %v", freed, fl)
	}

	e := mk("e")
	if e.ID() != freed {
		t.Errorf("Expected reuse of slot %d, got %d", freed, e.ID())
	}
	if e.String() != "e" {
		t.Errorf("Expected reused slot to hold e, got %q", e.String())
	}

	f := mk("f")
	if f.ID() != 4 {
		t.Errorf("Expected the table to grow to slot 4, got %d", f.ID())
	}

	a.Drop()
	d.Drop()
	if fl := TableFor(c).FreeList(); len(fl) != 2 || fl[0] != 3 || fl[1] != 1 {
		t.Errorf("Expected free list [3 1], got %v", fl)
	}
	stats := TableFor(c).Stats()
	if stats.Live != 2 || stats.Slots != 4 || stats.Peak != 4 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if c.Top() != 0 {
		t.Errorf("Table operations must be stack neutral, got %s", c.Dump())
	}
}

func TestStaleRefPanics(t *testing.T) {
	c := stack.New()
	c.PushString("old")
	old := Top(c)
	stale := *old
	old.Drop()

	c.PushString("new")
	fresh := Top(c)
	if fresh.ID() != old.ID() {
		t.Fatalf("Expected slot reuse")
	}

	defer func() {
		if x := recover(); x != ErrStaleRef {
			t.Errorf("Expected ErrStaleRef panic, got %v", x)
		}
		if c.Top() != 0 {
			t.Errorf("Stale access must not push, got %s", c.Dump())
		}
	}()
	stale.Push()
}

func TestCloneIsIndependent(t *testing.T) {
	c := stack.New()
	obj := NewObject(c)
	clone := obj.Clone()

	if clone.ID() == obj.ID() {
		t.Errorf("Clone must use its own slot")
	}
	if !clone.SameAs(obj.Ref) {
		t.Errorf("Clone must alias the same object")
	}
	obj.Drop()
	if clone.Type() != stack.TypeObject {
		t.Errorf("Clone must survive dropping the original")
	}
}

func TestConversions(t *testing.T) {
	c := stack.New()
	if err := c.EvalString("[1, 2, 3]"); err != nil {
		t.Fatal(err)
	}
	r := Top(c)

	if _, err := r.Function(); err == nil {
		t.Errorf("Array narrowed to Function")
	} else {
		var te *errors.TypeError
		if !errors.As(err, &te) {
			t.Errorf("Expected TypeError, got %T", err)
		}
	}
	if _, err := r.Object(); err != nil {
		t.Errorf("Array should narrow to Object: %v", err)
	}
	arr, err := r.Array()
	if err != nil {
		t.Fatal(err)
	}
	if arr.Len() != 3 {
		t.Errorf("Expected length 3, got %d", arr.Len())
	}

	c.PushString("text")
	s := Top(c)
	if _, err := s.Object(); err == nil {
		t.Errorf("String narrowed to Object")
	}
}

func TestObjectView(t *testing.T) {
	c := stack.New()
	obj := NewObject(c)

	obj.Set("name", "widget").Set("count", 3).Set("tags", []any{"a", "b"})
	if err := obj.Err(); err != nil {
		t.Fatal(err)
	}
	if !obj.Has("count") || obj.Has("missing") {
		t.Errorf("Has gave wrong answers")
	}

	name, err := Get[string](obj, "name")
	if err != nil || name != "widget" {
		t.Errorf("Get[string] = %q, %v", name, err)
	}
	count, err := Get[int](obj, "count")
	if err != nil || count != 3 {
		t.Errorf("Get[int] = %d, %v", count, err)
	}
	if _, err := Get[int](obj, "missing"); err == nil {
		t.Errorf("Expected an error for a missing property")
	}

	tags, err := obj.Get("tags")
	if err != nil {
		t.Fatal(err)
	}
	if !tags.Is(stack.TypeArray) {
		t.Errorf("Expected tags to be an array, got %s", tags.Type())
	}

	if err := obj.Delete("count"); err != nil {
		t.Fatal(err)
	}
	keys, _ := obj.Keys()
	if len(keys) != 2 {
		t.Errorf("Expected 2 keys after delete, got %v", keys)
	}

	other := stack.New()
	foreign, _ := New(other, "x")
	obj.Set("bad", foreign).Set("after", 1)
	if obj.Err() == nil {
		t.Errorf("Expected a sticky error from a foreign ref")
	}
	if obj.Has("after") {
		t.Errorf("Set must do nothing after an error")
	}
	if c.Top() != 0 {
		t.Errorf("Object view must be stack neutral, got %s", c.Dump())
	}
}

func TestViewStackBalance(t *testing.T) {
	c := stack.New()
	if err := c.EvalString(`({
		add: function (a, b) { return a + b },
		boom: function () { throw new Error("boom") },
		Point: function (x) { this.x = x },
		value: 1
	})`); err != nil {
		t.Fatal(err)
	}
	obj, err := Top(c).Object()
	if err != nil {
		t.Fatal(err)
	}

	c.PushString("sentinel")
	before := c.Top()
	check := func(op string) {
		t.Helper()
		if c.Top() != before {
			t.Errorf("%s: expected top %d, got %d (%s)", op, before, c.Top(), c.Dump())
		}
	}

	sum, err := obj.Call("add", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	check("call")
	if n, _ := sum.Export().(int64); n != 5 {
		t.Errorf("Expected 5, got %v", sum.Export())
	}

	_, err = obj.Call("boom")
	var ev *errors.EvalError
	if !errors.As(err, &ev) || ev.Msg != "boom" {
		t.Errorf("Expected EvalError boom, got %v", err)
	}
	check("call throwing")

	_, err = obj.Call("missing")
	var re *errors.ReferenceError
	if !errors.As(err, &re) {
		t.Errorf("Expected ReferenceError, got %v", err)
	}
	check("call missing")

	_, err = obj.Call("value")
	var te *errors.TypeError
	if !errors.As(err, &te) {
		t.Errorf("Expected TypeError, got %v", err)
	}
	check("call non-function")

	p, err := obj.Construct("Point", 7)
	if err != nil {
		t.Fatal(err)
	}
	check("construct")
	if x, _ := Get[int](p, "x"); x != 7 {
		t.Errorf("Expected x = 7, got %d", x)
	}

	if _, err := obj.Construct("nothing"); err == nil {
		t.Errorf("Expected an error constructing a missing property")
	}
	check("construct missing")

	_, _ = obj.Get("value")
	check("get")
	_ = obj.Put("value", 2)
	check("put")
	_ = obj.Put("bad", stack.CallableFunc(nil))
	check("put function")
}

func TestArrayView(t *testing.T) {
	c := stack.New()
	arr, err := NewArray(c, "a", 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Len() != 3 {
		t.Fatalf("Expected 3 elements, got %d", arr.Len())
	}
	if err := arr.Append("d"); err != nil {
		t.Fatal(err)
	}
	if err := arr.Set(0, "z"); err != nil {
		t.Fatal(err)
	}
	first, _ := arr.Get(0)
	if first.String() != "z" {
		t.Errorf("Expected z, got %q", first.String())
	}

	elems, err := arr.Refs()
	if err != nil {
		t.Fatal(err)
	}
	if len(elems) != 4 || elems[3].String() != "d" {
		t.Errorf("Unexpected elements")
	}
	for _, e := range elems {
		e.Drop()
	}
	if c.Top() != 0 {
		t.Errorf("Array view must be stack neutral, got %s", c.Dump())
	}
}

func TestFunctionView(t *testing.T) {
	c := stack.New()
	calls := 0
	fn := NewFunction(c, stack.NamedFunc("twice", 1, func(c *stack.Context) (int, error) {
		calls++
		n, err := c.GetNumber(0)
		if err != nil {
			return 0, err
		}
		c.PushNumber(n * 2)
		return 1, nil
	}))

	if fn.Name() != "twice" {
		t.Errorf("Expected name twice, got %q", fn.Name())
	}
	r, err := fn.Call(21)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Export().(int64); n != 42 {
		t.Errorf("Expected 42, got %v", r.Export())
	}

	_, err = fn.Call("not a number")
	var te *errors.TypeError
	if !errors.As(err, &te) {
		t.Errorf("Expected the host TypeError back, got %T: %v", err, err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}

	if err := fn.SetName("double"); err != nil {
		t.Fatal(err)
	}
	if fn.Name() != "double" {
		t.Errorf("Expected renamed function, got %q", fn.Name())
	}

	if err := c.EvalString(`(function () { return this.k })`); err != nil {
		t.Fatal(err)
	}
	getK, err := Top(c).Function()
	if err != nil {
		t.Fatal(err)
	}
	this := NewObject(c).Set("k", "v")
	r, err = getK.CallWith(this)
	if err != nil {
		t.Fatal(err)
	}
	if r.String() != "v" {
		t.Errorf("Expected this.k = v, got %q", r.String())
	}

	if err := c.EvalString(`(function Box(v) { this.v = v })`); err != nil {
		t.Fatal(err)
	}
	box, _ := Top(c).Function()
	inst, err := box.Construct("x")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := Get[string](inst, "v"); v != "x" {
		t.Errorf("Expected v = x, got %q", v)
	}
	if c.Top() != 0 {
		t.Errorf("Function view must be stack neutral, got %s", c.Dump())
	}
}
