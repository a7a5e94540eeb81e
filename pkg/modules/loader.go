package modules

import (
	"strings"

	"stackjs/pkg/errors"
	"stackjs/pkg/refs"
	"stackjs/pkg/stack"
)

const (
	wrapperPrefix = "(function(exports,require,module,__filename,__dirname) {"
	wrapperSuffix = "\n})"
)

// JavaScriptLoader runs CommonJS source. The content is wrapped in a
// function taking exports, require, module, __filename and __dirname, which
// is called with this set to the exports object.
func JavaScriptLoader() Loader {
	return LoaderFunc(loadJavaScript)
}

func loadJavaScript(m *Module, content []byte) error {
	c := m.ctx
	top := c.Top()
	defer c.SetTop(top)

	c.PushString(wrapperPrefix)
	c.PushString(scriptSource(content))
	c.PushString(wrapperSuffix)
	if err := c.Concat(3); err != nil {
		return err
	}
	c.PushString(m.FileName)
	if err := c.Compile(stack.CompileEval); err != nil {
		return err
	}
	if err := c.Call(0); err != nil {
		return err
	}
	wrapper, err := refs.Top(c).Function()
	if err != nil {
		return errors.NewLoadError(m.ID, "module wrapper did not evaluate to a function")
	}
	defer wrapper.Drop()

	exports, err := m.Exports()
	if err != nil {
		return err
	}
	defer exports.Drop()
	require, err := m.obj.Get("require")
	if err != nil {
		return err
	}
	defer require.Drop()

	result, err := wrapper.CallWith(exports, exports, require, m.obj, m.FileName, m.DirName)
	if err != nil {
		return err
	}
	result.Drop()
	return nil
}

// scriptSource drops a byte order mark and turns a leading #! line into a
// comment, keeping line numbers intact.
func scriptSource(content []byte) string {
	src := strings.TrimPrefix(string(content), "\uFEFF")
	if strings.HasPrefix(src, "#!") {
		src = "//" + src[2:]
	}
	return src
}

// JSONLoader parses the content with the VM's JSON.parse and uses the
// result as exports.
func JSONLoader() Loader {
	return LoaderFunc(loadJSON)
}

func loadJSON(m *Module, content []byte) error {
	c := m.ctx
	top := c.Top()
	defer c.SetTop(top)

	c.GetGlobalString("JSON")
	json, err := refs.Top(c).Object()
	if err != nil {
		return errors.NewLoadError(m.ID, "JSON is not available")
	}
	defer json.Drop()

	v, err := json.Call("parse", scriptSource(content))
	if err != nil {
		return (&errors.LoadError{ID: m.ID, Msg: "invalid JSON: " + errorMessage(err)}).CausedBy(err)
	}
	defer v.Drop()
	return m.SetExports(v)
}

func errorMessage(err error) string {
	var se errors.StackError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}
