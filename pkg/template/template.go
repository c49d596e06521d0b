// Package template provides token interpolation for task titles and
// descriptions. Tokens have the form {dot.path} and resolve against a nested
// context map; unresolved tokens are left verbatim so rendering never fails.
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a dot path against nested maps. It returns the value and
// whether every path segment resolved. Intermediate non-map values stop the
// walk.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = data

	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Interpolate replaces every {path} token in input with the stringified
// value looked up in data. Tokens whose path does not resolve are left
// verbatim.
func Interpolate(input string, data map[string]any) string {
	var out strings.Builder

	rest := input

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			out.WriteString(rest)

			return out.String()
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			out.WriteString(rest)

			return out.String()
		}

		end += start
		token := rest[start+1 : end]

		out.WriteString(rest[:start])

		if value, ok := Lookup(data, token); ok {
			out.WriteString(Stringify(value))
		} else {
			out.WriteString(rest[start : end+1])
		}

		rest = rest[end+1:]
	}
}

// Stringify renders a looked-up value the way it reads in a task title.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		// Whole floats come out of JSON decoding; render them as integers.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
