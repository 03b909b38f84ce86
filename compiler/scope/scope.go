package scope

import (
	"tlog.app/go/loc"
)

// Scope is a lexical binding environment.
// Children point to their parent, never the other way round.
type Scope[T any] struct {
	parent *Scope[T]
	defs   map[string]T

	depth int
	from  loc.PC
}

func Root[T any]() *Scope[T] {
	return &Scope[T]{
		defs: make(map[string]T),
		from: loc.Caller(1),
	}
}

// Child opens a nested scope.
func (s *Scope[T]) Child() *Scope[T] {
	return &Scope[T]{
		parent: s,
		defs:   make(map[string]T),
		depth:  s.depth + 1,
		from:   loc.Caller(1),
	}
}

// Define binds name in s, shadowing outer bindings.
func (s *Scope[T]) Define(name string, v T) {
	s.defs[name] = v
}

// Lookup finds the innermost binding of name.
func (s *Scope[T]) Lookup(name string) (v T, ok bool) {
	for q := s; q != nil; q = q.parent {
		if v, ok = q.defs[name]; ok {
			return v, true
		}
	}

	return v, false
}

func (s *Scope[T]) Parent() *Scope[T] { return s.parent }

func (s *Scope[T]) Depth() int { return s.depth }

// From is where s was opened.
func (s *Scope[T]) From() loc.PC { return s.from }

// Local reports whether name is bound directly in s.
func (s *Scope[T]) Local(name string) bool {
	_, ok := s.defs[name]
	return ok
}

func (s *Scope[T]) Len() int { return len(s.defs) }
