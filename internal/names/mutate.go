package names

import "sort"

// Scheme identifies one username format.
type Scheme string

const (
	SchemeInitialLast Scheme = "flast"
	SchemeInitialDot  Scheme = "f.last"
	SchemeLastInitial Scheme = "lastf"
	SchemeFirstDot    Scheme = "first.last"
	SchemeFirstInit   Scheme = "firstl"
	SchemeFirstOnly   Scheme = "first"
)

// Schemes lists every scheme in output order.
var Schemes = []Scheme{
	SchemeInitialLast,
	SchemeInitialDot,
	SchemeLastInitial,
	SchemeFirstDot,
	SchemeFirstInit,
	SchemeFirstOnly,
}

// Set is an unordered collection of usernames.
type Set map[string]struct{}

func newSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// initial is the first byte of s; Canonicalize only yields ASCII tokens.
// Hand-built names may leave a part empty, which gives "".
func initial(s string) string {
	if s == "" {
		return ""
	}
	return s[:1]
}

// InitialLast builds jsmith.
func InitialLast(n StructuredName) Set {
	s := newSet(initial(n.First) + n.Last)
	if n.Second != "" {
		s[initial(n.First)+n.Second] = struct{}{}
	}
	return s
}

// InitialDotLast builds j.smith.
func InitialDotLast(n StructuredName) Set {
	s := newSet(initial(n.First) + "." + n.Last)
	if n.Second != "" {
		s[initial(n.First)+"."+n.Second] = struct{}{}
	}
	return s
}

// LastInitial builds smithj.
func LastInitial(n StructuredName) Set {
	s := newSet(n.Last + initial(n.First))
	if n.Second != "" {
		s[n.Second+initial(n.First)] = struct{}{}
	}
	return s
}

// FirstDotLast builds john.smith.
func FirstDotLast(n StructuredName) Set {
	s := newSet(n.First + "." + n.Last)
	if n.Second != "" {
		s[n.First+"."+n.Second] = struct{}{}
	}
	return s
}

// FirstInitial builds johns.
func FirstInitial(n StructuredName) Set {
	s := newSet(n.First + initial(n.Last))
	if n.Second != "" {
		s[n.First+initial(n.Second)] = struct{}{}
	}
	return s
}

// FirstOnly builds john.
func FirstOnly(n StructuredName) Set {
	return newSet(n.First)
}

var mutators = map[Scheme]func(StructuredName) Set{
	SchemeInitialLast: InitialLast,
	SchemeInitialDot:  InitialDotLast,
	SchemeLastInitial: LastInitial,
	SchemeFirstDot:    FirstDotLast,
	SchemeFirstInit:   FirstInitial,
	SchemeFirstOnly:   FirstOnly,
}

// Mutate applies one scheme. ok is false for an unknown scheme.
func Mutate(scheme Scheme, n StructuredName) (Set, bool) {
	fn, ok := mutators[scheme]
	if !ok {
		return nil, false
	}
	return fn(n), true
}

// ParseScheme resolves a scheme by its name.
func ParseScheme(name string) (Scheme, bool) {
	s := Scheme(name)
	_, ok := mutators[s]
	return s, ok
}

// All applies every scheme.
func All(n StructuredName) map[Scheme]Set {
	out := make(map[Scheme]Set, len(mutators))
	for scheme, fn := range mutators {
		out[scheme] = fn(n)
	}
	return out
}

// FromDisplayNames canonicalizes each name and merges the usernames of one
// scheme across all of them. Names that cannot be structured contribute nothing.
func FromDisplayNames(scheme Scheme, displayNames []string) Set {
	merged := Set{}
	fn, ok := mutators[scheme]
	if !ok {
		return merged
	}
	for _, raw := range displayNames {
		n, ok := Canonicalize(raw)
		if !ok {
			continue
		}
		for v := range fn(n) {
			merged[v] = struct{}{}
		}
	}
	return merged
}
