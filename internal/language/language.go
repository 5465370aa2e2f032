package language

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// directiveHost is a throwaway definition the parser can attach a directive
// usage to; only its directive list is read back.
const directiveHost = "scalar DirectiveHost "

// ParseDirective parses a single directive usage such as `@key(fields: "id")`.
func ParseDirective(sdl string) (*Directive, error) {
	src := strings.TrimSpace(sdl)
	if !strings.HasPrefix(src, "@") {
		return nil, fmt.Errorf("directive %q must start with '@'", sdl)
	}
	doc, err := parser.ParseSchema(&ast.Source{Name: "directive", Input: directiveHost + src})
	if err != nil {
		return nil, err
	}
	if len(doc.Definitions) != 1 || len(doc.Definitions[0].Directives) != 1 {
		return nil, fmt.Errorf("expected exactly one directive in %q", sdl)
	}
	return doc.Definitions[0].Directives[0], nil
}

// DirectiveArguments evaluates the constant arguments of a parsed directive.
func DirectiveArguments(d *Directive) (map[string]any, error) {
	out := make(map[string]any, len(d.Arguments))
	for _, arg := range d.Arguments {
		v, err := arg.Value.Value(nil)
		if err != nil {
			return nil, fmt.Errorf("directive @%s argument %q: %w", d.Name, arg.Name, err)
		}
		out[arg.Name] = v
	}
	return out, nil
}
