package metadata

import language "github.com/hanpama/routegraph/internal/language"

// ParseDirective builds a Directive from SDL such as `@key(fields: "id")`.
func ParseDirective(sdl string) (Directive, error) {
	d, err := language.ParseDirective(sdl)
	if err != nil {
		return Directive{}, err
	}
	args, err := language.DirectiveArguments(d)
	if err != nil {
		return Directive{}, err
	}
	return Directive{Name: d.Name, Args: args}, nil
}

// MustDirective is ParseDirective for static declarations; it panics on
// malformed SDL.
func MustDirective(sdl string) Directive {
	d, err := ParseDirective(sdl)
	if err != nil {
		panic(err)
	}
	return d
}
