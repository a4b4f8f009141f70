// Package filter implements spec.md §4.10's boolean combinator tree over
// field/value predicates. A Filter resolves against one FileIndex at a
// time into a bitmap over that index's entry-position universe; the
// query layer (internal/query) intersects the resolved bitmap with a
// file's entry_offsets to restrict the candidates a merge considers.
package filter

import (
	"sort"

	"github.com/netdata/go-journalfile/internal/bitmap"
	"github.com/netdata/go-journalfile/internal/indexer"
)

// Kind discriminates the variants of spec.md §4.10's Filter tree.
type Kind int

const (
	MatchFieldValue Kind = iota
	MatchFieldName
	And
	Or
	Not
)

// Filter is a node in the boolean combinator tree: a leaf predicate
// (MatchFieldValue, MatchFieldName) or a combinator (And, Or, Not) over
// child filters.
type Filter struct {
	Kind     Kind
	Field    string
	Value    string
	Children []*Filter
}

// Value builds a MatchFieldValue(FIELD=value) leaf.
func Value(field, value string) *Filter {
	return &Filter{Kind: MatchFieldValue, Field: field, Value: value}
}

// Name builds a MatchFieldName(FIELD) leaf.
func Name(field string) *Filter {
	return &Filter{Kind: MatchFieldName, Field: field}
}

// AndOf builds the conjunction of children. An empty conjunction is the
// identity bitmap (every entry matches), per spec.md §9's observation that
// the density wrapper's Full/Empty constructors serve exactly this role.
func AndOf(children ...*Filter) *Filter {
	return &Filter{Kind: And, Children: children}
}

// OrOf builds the disjunction of children. An empty disjunction matches
// nothing.
func OrOf(children ...*Filter) *Filter {
	return &Filter{Kind: Or, Children: children}
}

// NotOf builds the negation of a single child.
func NotOf(child *Filter) *Filter {
	return &Filter{Kind: Not, Children: []*Filter{child}}
}

// Evaluate resolves the filter tree against idx, returning a bitmap over
// idx's entry-position universe. Leaves resolve via the FST-routed bitmap
// catalog (internal/indexer's FileIndex, standing in for spec.md §4.9's
// split-FST routing: a field in the high-cardinality set would route to
// its own chunk, a low-cardinality field to the shared table — both are
// opaque behind FileIndex.BitmapForValue/BitmapsForField here).
func (f *Filter) Evaluate(idx *indexer.FileIndex) *bitmap.Bitmap {
	if f == nil {
		return bitmap.Full(idx.Universe())
	}

	switch f.Kind {
	case MatchFieldValue:
		if bm := idx.BitmapForValue(f.Field, f.Value); bm != nil {
			return bm
		}
		return bitmap.Empty(idx.Universe())

	case MatchFieldName:
		bms := idx.BitmapsForField(f.Field)
		if len(bms) == 0 {
			return bitmap.Empty(idx.Universe())
		}
		acc := bms[0]
		for _, bm := range bms[1:] {
			acc = bitmap.Or(acc, bm)
		}
		return acc

	case Not:
		if len(f.Children) != 1 {
			return bitmap.Empty(idx.Universe())
		}
		return f.Children[0].Evaluate(idx).Not()

	case Or:
		if len(f.Children) == 0 {
			return bitmap.Empty(idx.Universe())
		}
		acc := f.Children[0].Evaluate(idx)
		for _, child := range f.Children[1:] {
			acc = bitmap.Or(acc, child.Evaluate(idx))
		}
		return acc

	case And:
		if len(f.Children) == 0 {
			return bitmap.Full(idx.Universe())
		}
		// spec.md §4.10: "AND orders children by increasing |bitmap| when
		// available" — resolve every child first, then fold smallest-first
		// so each intersection step works against the smallest possible
		// accumulator.
		resolved := make([]*bitmap.Bitmap, len(f.Children))
		for i, child := range f.Children {
			resolved[i] = child.Evaluate(idx)
		}
		sort.Slice(resolved, func(i, j int) bool { return resolved[i].Len() < resolved[j].Len() })
		acc := resolved[0]
		for _, bm := range resolved[1:] {
			acc = bitmap.And(acc, bm)
		}
		return acc

	default:
		return bitmap.Empty(idx.Universe())
	}
}
