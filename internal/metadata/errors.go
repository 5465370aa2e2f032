package metadata

import (
	"errors"
	"fmt"
)

// ErrAlreadyBuilt is returned by Build when the storage was built before
// and not cleared since.
var ErrAlreadyBuilt = errors.New("metadata: storage already built, call Clear first")

// NoExplicitTypeError reports an external field resolver that neither
// declares a type nor matches an existing field of the served type.
type NoExplicitTypeError struct {
	TypeName  string
	FieldName string
}

func (e *NoExplicitTypeError) Error() string {
	return fmt.Sprintf("ambiguous field type for %s.%s: provide an explicit type for the field resolver", e.TypeName, e.FieldName)
}

type Violation struct {
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

// ValidationError aggregates linking problems that do not abort linking
// immediately.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Target != "" {
			line += " (" + v.Target + ")"
		}
		msg += line + "\n"
	}
	return msg
}

func violationMissingResolverClass(target Target, method string) *Violation {
	return &Violation{
		Message: fmt.Sprintf("field resolver %s has no resolver class declaring the type it serves", method),
		Target:  typeName(target),
	}
}

func violationMissingObjectType(target, object Target, method string) *Violation {
	return &Violation{
		Message: fmt.Sprintf("field resolver %s serves %s which is not a registered object type", method, typeName(object)),
		Target:  typeName(target),
	}
}

func typeName(t Target) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
