package elastic

// M is the shape of every generated query fragment.
type M = map[string]any

// item is a query fragment under construction. Extras are the parameters a
// wrapping node adds to an already-built fragment: boost values and the
// _name markers used for match attribution.
type item interface {
	json() M
	addExtra(key string, value any)
}

// fieldItem is a single-field query such as term, match, match_phrase,
// range, wildcard, fuzzy or regexp: {method: {field: params}}.
type fieldItem struct {
	method string
	field  string
	params M
}

func (f *fieldItem) json() M                        { return M{f.method: M{f.field: f.params}} }
func (f *fieldItem) addExtra(key string, value any) { f.params[key] = value }

// flatItem is a query whose parameters sit directly under the method, such
// as exists or query_string: {method: params}.
type flatItem struct {
	method string
	params M
}

func (f *flatItem) json() M                        { return M{f.method: f.params} }
func (f *flatItem) addExtra(key string, value any) { f.params[key] = value }

// boolItem is a bool query holding must, should and must_not clause lists.
type boolItem struct {
	clauses map[string][]item
	extras  M
}

func newBoolItem() *boolItem {
	return &boolItem{clauses: map[string][]item{}}
}

// add appends a child under a clause, flattening where the combination stays
// equivalent: a child bool carrying only the same clause splices its items
// in, and a pure negation under must contributes to the parent's must_not.
// A child bool that carries extras is kept intact.
func (b *boolItem) add(clause string, child item) {
	sub, ok := child.(*boolItem)
	if !ok || len(sub.extras) > 0 {
		b.clauses[clause] = append(b.clauses[clause], child)
		return
	}
	if items, only := sub.only(clause); only && clause != "must_not" {
		b.clauses[clause] = append(b.clauses[clause], items...)
		return
	}
	if items, only := sub.only("must_not"); only && clause == "must" {
		b.clauses["must_not"] = append(b.clauses["must_not"], items...)
		return
	}
	b.clauses[clause] = append(b.clauses[clause], child)
}

// only returns the child items when the bool carries exactly one clause, the
// given one.
func (b *boolItem) only(clause string) ([]item, bool) {
	items, ok := b.clauses[clause]
	if !ok || len(b.clauses) != 1 {
		return nil, false
	}
	return items, true
}

func (b *boolItem) json() M {
	body := M{}
	for clause, items := range b.clauses {
		rendered := make([]any, len(items))
		for i, it := range items {
			rendered[i] = it.json()
		}
		body[clause] = rendered
	}
	for k, v := range b.extras {
		body[k] = v
	}
	return M{"bool": body}
}

func (b *boolItem) addExtra(key string, value any) {
	if b.extras == nil {
		b.extras = M{}
	}
	b.extras[key] = value
}

// nestedItem wraps a query in a nested query at the given path.
type nestedItem struct {
	path   string
	query  item
	extras M
}

func (n *nestedItem) json() M {
	body := M{"path": n.path, "query": n.query.json()}
	for k, v := range n.extras {
		body[k] = v
	}
	return M{"nested": body}
}

func (n *nestedItem) addExtra(key string, value any) {
	if n.extras == nil {
		n.extras = M{}
	}
	n.extras[key] = value
}

// boolClauses fixes clause iteration order so name lookups are deterministic.
var boolClauses = []string{"must", "should", "must_not"}

// firstName returns the first _name carried by a fragment or its children,
// depth-first.
func firstName(it item) string {
	switch v := it.(type) {
	case *fieldItem:
		name, _ := v.params["_name"].(string)
		return name
	case *flatItem:
		name, _ := v.params["_name"].(string)
		return name
	case *boolItem:
		if name, _ := v.extras["_name"].(string); name != "" {
			return name
		}
		for _, clause := range boolClauses {
			for _, child := range v.clauses[clause] {
				if name := firstName(child); name != "" {
					return name
				}
			}
		}
	case *nestedItem:
		if name, _ := v.extras["_name"].(string); name != "" {
			return name
		}
		return firstName(v.query)
	}
	return ""
}

// needsNesting reports whether the item still queries bare leaf fields, so a
// wrapping search field must put it under its nested path. Items already
// wrapped (and bools of wrapped items) must not be wrapped again.
func needsNesting(it item) bool {
	switch v := it.(type) {
	case *nestedItem:
		return false
	case *boolItem:
		for _, items := range v.clauses {
			for _, child := range items {
				if !needsNesting(child) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}
