// Package naming attributes search-engine matches back to the query text.
// AutoName stamps stable names onto the query nodes that become named
// engine queries; MatchingPropagator turns the list of matched names the
// engine returns into per-node match verdicts; HTMLMarker renders the
// original query with those verdicts highlighted.
package naming

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kyle-williams-1/esonic/ast"
)

// Path locates a node in a tree as the sequence of child indexes from the
// root. The root itself has the empty path.
type Path []int

// String encodes the path as dot-separated indexes, empty for the root.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

func (p Path) child(idx int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, idx)
}

// PathSet is a set of node paths.
type PathSet map[string]struct{}

// Add inserts a path into the set.
func (s PathSet) Add(p Path) { s[p.String()] = struct{}{} }

// Contains reports whether the path is in the set.
func (s PathSet) Contains(p Path) bool {
	_, ok := s[p.String()]
	return ok
}

// namable reports whether a node translates to a single named engine query:
// the term-like leaves and the boolean combinations. Wrapper nodes (fields,
// groups, boosts, unary modifiers) are skipped, as are the value-carrying
// children of ranges and approximations.
func namable(k ast.Kind) bool {
	switch k {
	case ast.KindWord, ast.KindPhrase, ast.KindRegex, ast.KindRange,
		ast.KindFuzzy, ast.KindProximity,
		ast.KindAnd, ast.KindOr, ast.KindUnknown:
		return true
	}
	return false
}

// carriesValues reports whether a node's children are plain value carriers
// rather than sub-queries, so naming and match propagation stop above them.
func carriesValues(k ast.Kind) bool {
	switch k {
	case ast.KindRange, ast.KindFuzzy, ast.KindProximity:
		return true
	}
	return false
}

// AutoName assigns a generated name to every namable node, in preorder:
// "a" through "z", then "aa", "ab" and so on. Names are stamped onto the
// nodes with SetQueryName and returned mapped to the nodes' paths.
func AutoName(tree ast.Node) map[string]Path {
	names := map[string]Path{}
	counter := 0
	var walk func(n ast.Node, path Path)
	walk = func(n ast.Node, path Path) {
		if namable(n.Kind()) {
			name := nameFor(counter)
			counter++
			n.SetQueryName(name)
			names[name] = path
		}
		if carriesValues(n.Kind()) {
			return
		}
		for i, child := range n.Children() {
			walk(child, path.child(i))
		}
	}
	walk(tree, Path{})
	return names
}

// nameFor converts a counter to a bijective base-26 name: 0 is "a", 25 is
// "z", 26 is "aa".
func nameFor(i int) string {
	var b []byte
	for i++; i > 0; i /= 26 {
		i--
		b = append([]byte{byte('a' + i%26)}, b...)
	}
	return string(b)
}

// MatchingFromNames splits the universe of named paths on the matched query
// names the engine reported: the paths whose names were reported, and the
// paths whose names were not. A reported name absent from the naming table is
// an error.
func MatchingFromNames(matched []string, names map[string]Path) (ok, ko PathSet, err error) {
	ok, ko = PathSet{}, PathSet{}
	for _, name := range matched {
		path, found := names[name]
		if !found {
			return nil, nil, fmt.Errorf("unknown query name %q", name)
		}
		ok.Add(path)
	}
	for _, path := range names {
		if !ok.Contains(path) {
			ko.Add(path)
		}
	}
	return ok, ko, nil
}

// ElementFromPath returns the node a path points at.
func ElementFromPath(tree ast.Node, path Path) (ast.Node, error) {
	n := tree
	for _, idx := range path {
		children := n.Children()
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("path %q does not exist in tree", path.String())
		}
		n = children[idx]
	}
	return n, nil
}

// ElementFromName returns the node a generated name was stamped onto.
func ElementFromName(tree ast.Node, name string, names map[string]Path) (ast.Node, error) {
	path, ok := names[name]
	if !ok {
		return nil, fmt.Errorf("unknown query name %q", name)
	}
	return ElementFromPath(tree, path)
}
