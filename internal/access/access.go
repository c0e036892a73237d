// Package access models the capabilities a hosting application grants to a
// user and gates rendering on them.
package access

import (
	"context"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Capability names a permitted action.
type Capability string

const (
	Create Capability = "create"
	Update Capability = "update"
	Delete Capability = "delete"
)

// Set is a read-only collection of granted capabilities.
// The zero value grants nothing.
type Set map[Capability]struct{}

// New builds a set from capabilities.
func New(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Default grants create, update and delete.
func Default() Set {
	return New(Create, Update, Delete)
}

// Parse reads a comma-separated list such as "create, update".
// Tokens are lowercased; empty tokens are ignored. Unknown tokens are kept
// so hosts can extend the vocabulary.
func Parse(list string) Set {
	s := make(Set)
	for _, tok := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == '|' }) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			s[Capability(tok)] = struct{}{}
		}
	}
	return s
}

// FromStrings builds a set from raw tokens.
func FromStrings(tokens []string) Set {
	return Parse(strings.Join(tokens, ","))
}

// Has reports whether c is granted.
func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAny reports whether at least one of caps is granted.
func (s Set) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Intersect returns the capabilities present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for c := range s {
		if other.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Strings returns the granted tokens sorted alphabetically.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// String implements fmt.Stringer.
func (s Set) String() string {
	return strings.Join(s.Strings(), ",")
}

// Gate returns child when required is granted and an empty component
// otherwise. It never fails: an unknown capability simply yields no access.
func Gate(s Set, required Capability, child templ.Component) templ.Component {
	if s.Has(required) {
		return child
	}
	return templ.NopComponent
}

type ctxKey struct{}

// WithSet stores the request's granted capabilities in ctx.
func WithSet(ctx context.Context, s Set) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the capabilities stored by WithSet.
func FromContext(ctx context.Context) (Set, bool) {
	s, ok := ctx.Value(ctxKey{}).(Set)
	return s, ok
}
