// Package document inspects GraphQL documents without validating them
// against a schema.
package document

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Unknown labels a document that could not be parsed.
const Unknown = "unknown"

// Operation describes the first operation of a document.
type Operation struct {
	Kind      string // query, mutation or subscription
	Name      string // declared operation name, may be empty
	RootField string // first top-level field selected
}

// Label returns a short, low-cardinality name for metrics and logs.
func (o Operation) Label() string {
	switch {
	case o.RootField != "":
		return o.RootField
	case o.Name != "":
		return o.Name
	default:
		return Unknown
	}
}

// Inspect parses query and describes its first operation. Parse failures
// are not errors here; the server is the authority on document validity.
func Inspect(query string) Operation {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil || doc == nil || len(doc.Operations) == 0 {
		return Operation{Kind: Unknown}
	}
	op := doc.Operations[0]
	out := Operation{Kind: string(op.Operation), Name: op.Name}
	for _, sel := range op.SelectionSet {
		if f, ok := sel.(*ast.Field); ok {
			out.RootField = f.Name
			break
		}
	}
	return out
}

// Parse reports whether query is syntactically valid GraphQL.
func Parse(query string) error {
	_, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return err
	}
	return nil
}
