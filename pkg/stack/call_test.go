package stack

import (
	"testing"

	"stackjs/pkg/errors"
)

func addFunc() Callable {
	return NamedFunc("add", 2, func(c *Context) (int, error) {
		a, err := c.GetNumber(0)
		if err != nil {
			return 0, err
		}
		b, err := c.GetNumber(1)
		if err != nil {
			return 0, err
		}
		c.PushNumber(a + b)
		return 1, nil
	})
}

func evalInt(t *testing.T, c *Context, src string) int {
	t.Helper()
	top := c.Top()
	if err := c.EvalString(src); err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	n, err := c.GetInt(-1)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	c.SetTop(top)
	return n
}

func TestCallFromHost(t *testing.T) {
	c := New()
	c.PushFunction(addFunc())
	c.PushInt(2).PushInt(3)
	if err := c.Call(2); err != nil {
		t.Fatal(err)
	}
	if c.Top() != 1 {
		t.Fatalf("Expected the call to leave one value, top %d", c.Top())
	}
	if n, _ := c.GetInt(-1); n != 5 {
		t.Errorf("Expected 5, got %d", n)
	}
}

func TestCallFromScript(t *testing.T) {
	c := New()
	c.PushFunction(addFunc())
	_ = c.PutGlobalString("add")

	if n := evalInt(t, c, "add(20, 22)"); n != 42 {
		t.Errorf("Expected 42, got %d", n)
	}
	if n := evalInt(t, c, "add(1, 2, 100)"); n != 3 {
		t.Errorf("Extra arguments should be dropped, got %d", n)
	}
	if err := c.EvalString(`add.name`); err != nil {
		t.Fatal(err)
	}
	if s, _ := c.GetString(-1); s != "add" {
		t.Errorf("Expected function name add, got %q", s)
	}
}

func TestFrames(t *testing.T) {
	c := New()
	c.PushString("outer")

	var tops []int
	c.PushFunction(Func(2, func(c *Context) (int, error) {
		tops = append(tops, c.Top())
		c.PushString("junk")
		return 0, nil
	}))
	_ = c.PutGlobalString("fixed")

	var variadic int
	c.PushFunction(CallableFunc(func(c *Context) (int, error) {
		variadic = c.Top()
		return 0, nil
	}))
	_ = c.PutGlobalString("variadic")

	if err := c.EvalString("fixed(); fixed(1, 2, 3); variadic(1, 2, 3, 4)"); err != nil {
		t.Fatal(err)
	}
	if len(tops) != 2 || tops[0] != 2 || tops[1] != 2 {
		t.Errorf("Fixed-arity frames should hold exactly 2 values, got %v", tops)
	}
	if variadic != 4 {
		t.Errorf("Variadic frame should hold 4 values, got %d", variadic)
	}
	if !c.IsUndefined(-1) || c.Top() != 2 {
		t.Errorf("Expected [outer undefined], got %s", c.Dump())
	}
	if s, _ := c.GetString(0); s != "outer" {
		t.Errorf("Outer frame was disturbed: %s", c.Dump())
	}
}

func TestThisAndCurrentFunction(t *testing.T) {
	c := New()
	c.PushFunction(Func(0, func(c *Context) (int, error) {
		c.PushThis()
		if err := c.GetPropString(-1, "x"); err != nil {
			return 0, err
		}
		return 1, nil
	}))
	_ = c.PutGlobalString("getX")
	if n := evalInt(t, c, "({ x: 7, m: getX }).m()"); n != 7 {
		t.Errorf("Expected this.x = 7, got %d", n)
	}

	c.PushFunction(Func(0, func(c *Context) (int, error) {
		c.PushCurrentFunction()
		return 1, c.GetPropString(-1, "tag")
	}))
	_ = c.PutGlobalString("self")
	if n := evalInt(t, c, "self.tag = 9; self()"); n != 9 {
		t.Errorf("Expected current function tag 9, got %d", n)
	}
}

func TestReentrantCall(t *testing.T) {
	c := New()
	c.PushFunction(Func(1, func(c *Context) (int, error) {
		c.Dup(0)
		c.PushInt(41)
		if err := c.Call(1); err != nil {
			return 0, err
		}
		return 1, nil
	}))
	_ = c.PutGlobalString("apply41")

	if n := evalInt(t, c, "apply41(function (x) { return apply41(function (y) { return y }) + x - 40 })"); n != 42 {
		t.Errorf("Expected 42, got %d", n)
	}
	if c.Top() != 0 {
		t.Errorf("Expected empty stack, got %s", c.Dump())
	}
}

func TestHostErrorsReachScripts(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.NewTypeError("bad type"), "TypeError:bad type:true"},
		{errors.NewReferenceError("missing"), "ReferenceError:missing:false"},
		{errors.NewResolveError("x", "cannot resolve"), "ResolveError:cannot resolve:false"},
		{errors.NewLoadError("/a.js", "cannot load"), "LoadError:cannot load:false"},
	}

	for _, test := range tests {
		c := New()
		err := test.err
		c.PushFunction(CallableFunc(func(c *Context) (int, error) { return 0, err }))
		_ = c.PutGlobalString("fail")
		if err := c.EvalString(`try { fail() } catch (e) { e.name + ":" + e.message + ":" + (e instanceof TypeError) }`); err != nil {
			t.Fatal(err)
		}
		if s, _ := c.GetString(-1); s != test.want {
			t.Errorf("Expected %q, got %q", test.want, s)
		}
	}
}

func TestHostErrorRoundTrip(t *testing.T) {
	c := New()
	c.PushFunction(CallableFunc(func(c *Context) (int, error) {
		return 0, errors.NewResolveError("./nowhere", "no such module")
	}))
	_ = c.PutGlobalString("fail")

	err := c.EvalString("(function () { fail() })()")
	var re *errors.ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("Expected *errors.ResolveError, got %T: %v", err, err)
	}
	if re.Specifier != "./nowhere" {
		t.Errorf("Expected specifier ./nowhere, got %q", re.Specifier)
	}
	if c.Top() != 0 {
		t.Errorf("Failed eval must not push, got %s", c.Dump())
	}
}

func TestScriptErrors(t *testing.T) {
	c := New()

	err := c.EvalString(`throw new RangeError("out of range")`)
	var ev *errors.EvalError
	if !errors.As(err, &ev) {
		t.Fatalf("Expected *errors.EvalError, got %T", err)
	}
	if ev.Name != "RangeError" || ev.Msg != "out of range" {
		t.Errorf("Expected RangeError: out of range, got %s: %s", ev.Name, ev.Msg)
	}

	err = c.EvalString(`throw 42`)
	if !errors.As(err, &ev) || ev.Msg != "42" {
		t.Errorf("Expected thrown primitive to become message 42, got %v", err)
	}

	err = c.EvalString(`function (`)
	if !errors.As(err, &ev) || ev.Name != "SyntaxError" {
		t.Errorf("Expected SyntaxError, got %v", err)
	}
}

func TestScriptErrorRethrownUnchanged(t *testing.T) {
	c := New()
	c.PushFunction(Func(1, func(c *Context) (int, error) {
		c.Dup(0)
		return 0, c.Call(0)
	}))
	_ = c.PutGlobalString("run")

	src := `try { run(function () { throw new RangeError("inner") }) } catch (e) { (e instanceof RangeError) + ":" + e.message }`
	if err := c.EvalString(src); err != nil {
		t.Fatal(err)
	}
	if s, _ := c.GetString(-1); s != "true:inner" {
		t.Errorf("Expected the original RangeError, got %q", s)
	}
}

func TestCallProp(t *testing.T) {
	c := New()
	if err := c.EvalString(`({ base: 10, add: function (a, b) { return this.base + a + b }, notfn: 1 })`); err != nil {
		t.Fatal(err)
	}

	c.PushString("add").PushInt(1).PushInt(2)
	if err := c.CallProp(0, 2); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.GetInt(-1); n != 13 || c.Top() != 2 {
		t.Errorf("Expected [obj 13], got %s", c.Dump())
	}
	c.Pop()

	c.PushString("nope")
	err := c.CallProp(0, 0)
	var ref *errors.ReferenceError
	if !errors.As(err, &ref) {
		t.Errorf("Expected ReferenceError for missing method, got %v", err)
	}

	c.PushString("notfn")
	err = c.CallProp(0, 0)
	var te *errors.TypeError
	if !errors.As(err, &te) {
		t.Errorf("Expected TypeError for non-callable, got %v", err)
	}
	if c.Top() != 1 {
		t.Errorf("Failed calls must leave only the object, got %s", c.Dump())
	}
}

func TestCallMethodAndNew(t *testing.T) {
	c := New()
	if err := c.EvalString(`(function (a) { return this.k * a })`); err != nil {
		t.Fatal(err)
	}
	if err := c.EvalString(`({ k: 3 })`); err != nil {
		t.Fatal(err)
	}
	c.PushInt(5)
	if err := c.CallMethod(1); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.GetInt(-1); n != 15 {
		t.Errorf("Expected 15, got %d", n)
	}
	c.Pop()

	c.GetGlobalString("Array")
	c.PushInt(3)
	if err := c.New(1); err != nil {
		t.Fatal(err)
	}
	if !c.IsArray(-1) || c.GetLength(-1) != 3 {
		t.Errorf("Expected new Array(3), got %s", c.Dump())
	}
	c.Pop()

	c.PushInt(1)
	if err := c.New(0); err == nil {
		t.Errorf("Constructing a number should fail")
	}
	if c.Top() != 0 {
		t.Errorf("Expected empty stack, got %s", c.Dump())
	}
}

func TestCompile(t *testing.T) {
	c := New()

	c.PushString("var compiled = 40; compiled + 2").PushString("prog.js")
	if err := c.Compile(CompileEval); err != nil {
		t.Fatal(err)
	}
	if !c.IsFunction(-1) {
		t.Fatalf("Expected a function, got %s", c.Dump())
	}
	if err := c.Call(0); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.GetInt(-1); n != 42 {
		t.Errorf("Expected completion value 42, got %d", n)
	}
	c.Pop()

	c.PushString("function (a) { return a * 2 }").PushString("double.js")
	if err := c.Compile(CompileFunction); err != nil {
		t.Fatal(err)
	}
	c.PushInt(4)
	if err := c.Call(1); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.GetInt(-1); n != 8 {
		t.Errorf("Expected 8, got %d", n)
	}
	c.Pop()

	c.PushString("this is not javascript").PushString("bad.js")
	if err := c.Compile(CompileEval); err == nil {
		t.Errorf("Expected a syntax error")
	}
	if c.Top() != 0 {
		t.Errorf("Failed compile must not push, got %s", c.Dump())
	}
}
