package shopgraph

import "strings"

// FieldList is an ordered, duplicate-free selection of GraphQL field names.
type FieldList []string

// NewFieldList appends extra to defaults. Every name must be a GraphQL name
// ([_A-Za-z][_0-9A-Za-z]*); repeated names keep their first position.
func NewFieldList(defaults []string, extra ...string) (FieldList, error) {
	out := make(FieldList, 0, len(defaults)+len(extra))
	seen := make(map[string]struct{}, len(defaults)+len(extra))
	for _, list := range [][]string{defaults, extra} {
		for _, name := range list {
			if !isName(name) {
				return nil, invalidArgument("invalid field name %q", name)
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out, nil
}

// Selection renders the fields as the body of a selection set.
func (f FieldList) Selection() string {
	return strings.Join(f, " ")
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
