package language

import "github.com/vektah/gqlparser/v2/ast"

type (
	Directive           = ast.Directive
	DirectiveList       = ast.DirectiveList
	Argument            = ast.Argument
	ArgumentList        = ast.ArgumentList
	Value               = ast.Value
	Field               = ast.Field
	OperationDefinition = ast.OperationDefinition
	Position            = ast.Position
	Path                = ast.Path
	PathElement         = ast.PathElement
	PathName            = ast.PathName
	PathIndex           = ast.PathIndex
)

type Operation = ast.Operation

const (
	Query        Operation = ast.Query
	Mutation     Operation = ast.Mutation
	Subscription Operation = ast.Subscription
)

// Operations lists the root operation kinds in schema order.
var Operations = []Operation{Query, Mutation, Subscription}

// ParseOperation maps "query", "mutation" or "subscription" to its Operation.
func ParseOperation(s string) (Operation, bool) {
	for _, op := range Operations {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// RootTypeName returns the conventional root type name for an operation kind.
func RootTypeName(op Operation) string {
	switch op {
	case Query:
		return "Query"
	case Mutation:
		return "Mutation"
	case Subscription:
		return "Subscription"
	}
	return ""
}
