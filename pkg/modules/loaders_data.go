package modules

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"stackjs/pkg/errors"
)

// Declarative loaders decode their content into plain Go data and export
// the result. Nothing in them runs script code.

// decodeFunc turns module content into plain Go data
type decodeFunc func(id string, content []byte) (any, error)

func dataLoader(format string, decode decodeFunc) Loader {
	return LoaderFunc(func(m *Module, content []byte) error {
		data, err := decode(m.ID, content)
		if err != nil {
			return (&errors.LoadError{ID: m.ID, Msg: fmt.Sprintf("invalid %s: %v", format, err)}).CausedBy(err)
		}
		return m.SetExports(normalize(data))
	})
}

// YAMLLoader exports the YAML document in the content.
func YAMLLoader() Loader {
	return dataLoader("YAML", func(_ string, content []byte) (any, error) {
		var data any
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// TOMLLoader exports the TOML document as an object.
func TOMLLoader() Loader {
	return dataLoader("TOML", func(_ string, content []byte) (any, error) {
		var data map[string]any
		if _, err := toml.Decode(string(content), &data); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// CBORLoader exports the single CBOR data item in the content.
func CBORLoader() Loader {
	return dataLoader("CBOR", func(_ string, content []byte) (any, error) {
		var data any
		if err := cbor.Unmarshal(content, &data); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// CUELoader evaluates the content as CUE and exports the concrete value.
func CUELoader() Loader {
	return dataLoader("CUE", func(id string, content []byte) (any, error) {
		v := cuecontext.New().CompileBytes(content, cue.Filename(id))
		if err := v.Err(); err != nil {
			return nil, err
		}
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, err
		}
		var data any
		if err := v.Decode(&data); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// normalize rewrites decoder output into shapes the VM bridge maps onto
// plain objects and arrays.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return v
}
