package models

import "sort"

// CategorySet is the set of synchronized categories.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from category names, skipping empty ones.
func NewCategorySet(categories ...string) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return set
}

// Contains reports whether category is synchronized.
func (s CategorySet) Contains(category string) bool {
	if category == "" {
		return false
	}
	_, ok := s[category]
	return ok
}

// Syncs reports whether doc is a model of a synchronized category.
func (s CategorySet) Syncs(doc Document) bool {
	return doc.IsModel() && s.Contains(doc.Kind)
}

// Names returns the categories in lexical order.
func (s CategorySet) Names() []string {
	names := make([]string, 0, len(s))
	for c := range s {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}
