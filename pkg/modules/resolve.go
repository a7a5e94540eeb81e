package modules

import (
	"path"
	"strings"

	"stackjs/pkg/errors"
)

type entryKind int

const (
	entryMissing entryKind = iota
	entryFile
	entryDir
)

// statFunc reports what lives at an absolute slash path
type statFunc func(p string) (entryKind, error)

// joinTarget makes specifier absolute against the parent's directory, or
// cwd when there is no parent. Climbing above the root fails.
func joinTarget(spec, parent, cwd string) (string, error) {
	if strings.HasPrefix(spec, "/") {
		return path.Clean(spec), nil
	}
	base := cwd
	if parent != "" {
		base = path.Dir(parent)
	}
	if base == "" {
		base = "/"
	}

	depth := 0
	for _, seg := range strings.Split(strings.Trim(base, "/"), "/") {
		if seg != "" {
			depth++
		}
	}
	for _, seg := range strings.Split(spec, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", errors.NewResolveError(spec, "path escapes the root of %s", base)
			}
		default:
			depth++
		}
	}
	return path.Join(base, spec), nil
}

// probe locates the module file for target: target itself, then target
// with each extension when it has none, then <dir>/index.<ext> when target
// is a directory. Only regular files qualify.
func probe(spec, target string, extensions []string, stat statFunc) (string, error) {
	kind, err := stat(target)
	if err != nil {
		return "", (&errors.ResolveError{Specifier: spec, Msg: err.Error()}).CausedBy(err)
	}

	switch kind {
	case entryFile:
		return target, nil
	case entryDir:
		return probeExtensions(spec, path.Join(target, "index"), extensions, stat)
	}
	if path.Ext(target) != "" {
		return "", errors.NewResolveError(spec, "cannot find module %s", target)
	}
	return probeExtensions(spec, target, extensions, stat)
}

func probeExtensions(spec, base string, extensions []string, stat statFunc) (string, error) {
	for _, ext := range extensions {
		candidate := base + "." + ext
		kind, err := stat(candidate)
		if err != nil {
			return "", (&errors.ResolveError{Specifier: spec, Msg: err.Error()}).CausedBy(err)
		}
		if kind == entryFile {
			return candidate, nil
		}
	}
	return "", errors.NewResolveError(spec, "cannot find module %s (tried extensions %s)", base, strings.Join(extensions, ", "))
}

// resolveWith runs the shared resolution algorithm over stat.
func resolveWith(spec, parent, cwd string, extensions []string, stat statFunc) (string, error) {
	target, err := joinTarget(spec, parent, cwd)
	if err != nil {
		return "", err
	}
	return probe(spec, target, extensions, stat)
}
