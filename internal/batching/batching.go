// Package batching splits an ordered recipe list into contiguous same-type
// batches. Every batch finishes before the next one starts.
package batching

import (
	"autopkgwrapper/internal/recipe"
)

// Unit is anything with a recipe identifier.
type Unit interface {
	Identifier() string
}

// Batch is a maximal run of units sharing the same type suffix.
type Batch[T Unit] struct {
	Type  string
	Units []T
}

// Build splits units into batches. With ordered false the whole list is one
// batch; otherwise each maximal run of equal type becomes a batch.
func Build[T Unit](units []T, ordered bool) []Batch[T] {
	if len(units) == 0 {
		return nil
	}
	if !ordered {
		return []Batch[T]{{
			Type:  recipe.TypeOf(units[0].Identifier()),
			Units: append([]T(nil), units...),
		}}
	}

	var batches []Batch[T]
	current := Batch[T]{Type: recipe.TypeOf(units[0].Identifier())}
	for _, u := range units {
		typ := recipe.TypeOf(u.Identifier())
		if typ != current.Type {
			batches = append(batches, current)
			current = Batch[T]{Type: typ}
		}
		current.Units = append(current.Units, u)
	}
	return append(batches, current)
}

// Description summarises one batch for logs and the plan command.
type Description struct {
	Type    string   `json:"type"`
	Count   int      `json:"count"`
	Recipes []string `json:"recipes"`
}

// Describe returns a Description per batch.
func Describe[T Unit](batches []Batch[T]) []Description {
	out := make([]Description, 0, len(batches))
	for _, b := range batches {
		ids := make([]string, len(b.Units))
		for i, u := range b.Units {
			ids[i] = u.Identifier()
		}
		out = append(out, Description{Type: b.Type, Count: len(b.Units), Recipes: ids})
	}
	return out
}
