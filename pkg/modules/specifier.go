package modules

import (
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"stackjs/pkg/errors"
)

const fileScheme = "file"

var (
	// A bare relative or absolute path: "/x", "./x", "../x/y".
	filePattern = regexp2.MustCompile(`^(?:/|\.\.?/)(?:[^/\\\x00]+/)*[^/\\\x00]*$`, regexp2.None)
	// "scheme://path"
	schemePattern = regexp2.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)://([^\x00]+)$`, regexp2.None)
)

// specifier is a classified require argument
type specifier struct {
	raw    string
	scheme string
	path   string
}

func (s specifier) relative() bool {
	return strings.HasPrefix(s.path, "./") || strings.HasPrefix(s.path, "../")
}

// parseSpecifier classifies a non-builtin require argument. Bare paths
// become file specifiers, except relative ones required from a module of
// another scheme, which stay inside that scheme.
func parseSpecifier(raw, parentScheme string) (specifier, error) {
	if ok, _ := filePattern.MatchString(raw); ok {
		s := specifier{raw: raw, scheme: fileScheme, path: raw}
		if parentScheme != "" && s.relative() {
			s.scheme = parentScheme
		}
		return s, nil
	}

	m, err := schemePattern.FindStringMatch(raw)
	if err != nil || m == nil {
		return specifier{}, errors.NewResolveError(raw, "invalid require id")
	}
	return specifier{
		raw:    raw,
		scheme: strings.ToLower(m.GroupByNumber(1).String()),
		path:   m.GroupByNumber(2).String(),
	}, nil
}

// canonicalID builds the cache key of a resolved path.
func canonicalID(scheme, resolved string) string {
	id := resolved
	if scheme != fileScheme {
		id = scheme + "://" + resolved
	}
	return norm.NFC.String(id)
}

// splitID undoes canonicalID, returning the scheme and resolver path of a
// module id. Builtin names yield an empty scheme.
func splitID(id string) (scheme, p string) {
	if strings.HasPrefix(id, "/") {
		return fileScheme, id
	}
	if m, err := schemePattern.FindStringMatch(id); err == nil && m != nil {
		return strings.ToLower(m.GroupByNumber(1).String()), m.GroupByNumber(2).String()
	}
	return "", ""
}
