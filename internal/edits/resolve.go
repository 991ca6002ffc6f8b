package edits

import (
	"cmp"
	"slices"
)

// Resolve merges candidate edits into a non-overlapping set.
//
// Edits are grouped per document and each group is ordered by start ascending,
// end descending. Walking that order, an edit nested in (or equal to) the last
// kept edit is dropped, a disjoint edit is kept, and an edit that starts inside
// the last kept edit but ends past it fails with *ConflictError. Among exact
// duplicates the first one in input order survives.
//
// The result lists documents in ascending DocID order.
func Resolve(edits []Edit) ([]Edit, error) {
	groups, err := ResolveGroups(edits)
	if err != nil {
		return nil, err
	}

	out := make([]Edit, 0, len(edits))
	for _, g := range groups {
		out = append(out, g.Edits...)
	}
	return out, nil
}

// ResolveGroups is Resolve without the final concatenation.
func ResolveGroups(edits []Edit) ([]Group, error) {
	byDoc := make(map[DocID][]Edit)
	for _, e := range edits {
		byDoc[e.Doc] = append(byDoc[e.Doc], e)
	}

	docs := make([]DocID, 0, len(byDoc))
	for doc := range byDoc {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b DocID) int {
		return cmp.Compare(a.String(), b.String())
	})

	groups := make([]Group, 0, len(docs))
	for _, doc := range docs {
		kept, err := resolveDocument(doc, byDoc[doc])
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Doc: doc, Edits: kept})
	}
	return groups, nil
}

func resolveDocument(doc DocID, group []Edit) ([]Edit, error) {
	ordered := slices.Clone(group)
	slices.SortStableFunc(ordered, compareOuterFirst)

	kept := make([]Edit, 0, len(ordered))
	for _, e := range ordered {
		if len(kept) > 0 {
			last := kept[len(kept)-1]
			if e.Span.Start < last.Span.End {
				if e.Span.End <= last.Span.End {
					continue
				}
				return nil, &ConflictError{Doc: doc, Kept: last.Span, Rejected: e.Span}
			}
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// compareOuterFirst orders by start ascending and, for equal starts, puts the
// longer edit first.
func compareOuterFirst(a, b Edit) int {
	if c := cmp.Compare(a.Span.Start, b.Span.Start); c != 0 {
		return c
	}
	return cmp.Compare(b.Span.End, a.Span.End)
}
