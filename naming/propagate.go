package naming

import (
	"fmt"

	"github.com/kyle-williams-1/esonic/ast"
)

// matchStatus is a three-valued match verdict. The engine only reports the
// names of clauses that matched, so a node is matched, not matched, or simply
// unaccounted for.
type matchStatus int

const (
	statusUnknown matchStatus = iota
	statusMatched
	statusUnmatched
)

func (s matchStatus) invert() matchStatus {
	switch s {
	case statusMatched:
		return statusUnmatched
	case statusUnmatched:
		return statusMatched
	}
	return statusUnknown
}

// MatchingPropagator extends the per-name match verdicts the engine reports
// to every node of the query: an AND matches when it and all its operands do,
// an OR when it or any operand does, a negation when its operand does not.
// Implicit operations combine per the configured default operation.
type MatchingPropagator struct {
	defaultOperation ast.Kind
}

// NewMatchingPropagator creates a propagator treating implicit operations as
// the given operation, ast.KindAnd or ast.KindOr.
func NewMatchingPropagator(defaultOperation ast.Kind) (*MatchingPropagator, error) {
	switch defaultOperation {
	case ast.KindAnd, ast.KindOr:
	default:
		return nil, fmt.Errorf("implicit operations cannot combine as %s", defaultOperation)
	}
	return &MatchingPropagator{defaultOperation: defaultOperation}, nil
}

// Propagate computes, from the matched and unmatched path sets of
// MatchingFromNames, the set of node paths that contribute to the match (ok)
// and the set that contradict it (ko). A node with no verdict of its own and
// none derivable from its descendants lands in neither set: no information is
// not a failure. Under an odd number of negations the verdict flips: a
// matched leaf inside a NOT works against the document, so it lands in ko.
// Value-carrying children such as range bounds get no verdict of their own.
func (m *MatchingPropagator) Propagate(tree ast.Node, matched, unmatched PathSet) (ok, ko PathSet) {
	ok, ko = PathSet{}, PathSet{}
	m.mark(tree, Path{}, matched, unmatched, false, ok, ko)
	return ok, ko
}

// own is a node's explicit verdict. A reported name always counts. Absence is
// definitive only for leaves: the engine had their names to report. An
// operation's own name may go unreported by engines that attribute only leaf
// clauses, so absence there is no information rather than a no.
func (m *MatchingPropagator) own(n ast.Node, path Path, matched, unmatched PathSet) matchStatus {
	if matched.Contains(path) {
		return statusMatched
	}
	if isLeaf(n.Kind()) && unmatched.Contains(path) {
		return statusUnmatched
	}
	return statusUnknown
}

func isLeaf(kind ast.Kind) bool {
	switch kind {
	case ast.KindWord, ast.KindPhrase, ast.KindRegex:
		return true
	}
	return carriesValues(kind)
}

// status computes a node's verdict bottom-up, folding the node's own explicit
// verdict into its operator semantics.
func (m *MatchingPropagator) status(n ast.Node, path Path, matched, unmatched PathSet) matchStatus {
	kind := n.Kind()
	switch {
	case isLeaf(kind):
		return m.own(n, path, matched, unmatched)
	case kind == ast.KindNot, kind == ast.KindProhibit:
		return m.status(n.Children()[0], path.child(0), matched, unmatched).invert()
	case kind == ast.KindAnd, kind == ast.KindOr, kind == ast.KindUnknown:
		statuses := []matchStatus{m.own(n, path, matched, unmatched)}
		for i, child := range n.Children() {
			statuses = append(statuses, m.status(child, path.child(i), matched, unmatched))
		}
		return combine(m.operationKind(kind), statuses)
	default:
		// Wrappers take their single child's verdict.
		return m.status(n.Children()[0], path.child(0), matched, unmatched)
	}
}

// combine folds verdicts per the operator: AND fails on any no and needs a
// yes to hold, OR holds on any yes and fails only on reported noes. Verdicts
// carrying no information are neutral, so a lone reported verdict is never
// outvoted by unreported ones.
func combine(kind ast.Kind, statuses []matchStatus) matchStatus {
	result := statusUnknown
	for _, s := range statuses {
		switch {
		case s == statusUnknown:
		case kind == ast.KindAnd && s == statusUnmatched,
			kind == ast.KindOr && s == statusMatched:
			return s
		default:
			result = s
		}
	}
	return result
}

func (m *MatchingPropagator) operationKind(kind ast.Kind) ast.Kind {
	if kind == ast.KindUnknown {
		return m.defaultOperation
	}
	return kind
}

func (m *MatchingPropagator) mark(n ast.Node, path Path, matched, unmatched PathSet, negated bool, ok, ko PathSet) {
	verdict := m.status(n, path, matched, unmatched)
	if negated {
		verdict = verdict.invert()
	}
	switch verdict {
	case statusMatched:
		ok.Add(path)
	case statusUnmatched:
		ko.Add(path)
	}
	if carriesValues(n.Kind()) {
		return
	}
	childNegated := negated
	switch n.Kind() {
	case ast.KindNot, ast.KindProhibit:
		childNegated = !negated
	}
	for i, child := range n.Children() {
		m.mark(child, path.child(i), matched, unmatched, childNegated, ok, ko)
	}
}
