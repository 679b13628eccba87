package batching

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopkgwrapper/internal/recipe"
)

type id string

func (i id) Identifier() string { return string(i) }

func ids(names ...string) []id {
	out := make([]id, len(names))
	for i, n := range names {
		out[i] = id(n)
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	assert.Nil(t, Build[id](nil, true))
	assert.Nil(t, Build[id](nil, false))
}

func TestBuild_NoOrderIsSingleBatch(t *testing.T) {
	units := ids("B.pkg", "A.upload.jamf", "C.pkg")
	batches := Build(units, false)
	require.Len(t, batches, 1)
	assert.Equal(t, units, batches[0].Units)
}

func TestBuild_ContiguousRuns(t *testing.T) {
	units := ids(
		"A.upload.jamf", "B.upload.jamf",
		"A.auto_update.jamf",
		"A.upload.jamf.extra",
		"C.upload.jamf",
		"Bare",
	)
	want := []Description{
		{Type: "upload.jamf", Count: 2, Recipes: []string{"A.upload.jamf", "B.upload.jamf"}},
		{Type: "auto_update.jamf", Count: 1, Recipes: []string{"A.auto_update.jamf"}},
		{Type: "upload.jamf.extra", Count: 1, Recipes: []string{"A.upload.jamf.extra"}},
		{Type: "upload.jamf", Count: 1, Recipes: []string{"C.upload.jamf"}},
		{Type: "", Count: 1, Recipes: []string{"Bare"}},
	}
	got := Describe(Build(units, true))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_PreservesEveryUnitOnce(t *testing.T) {
	units := ids("A.x", "B.x", "C.y", "D.x", "E.y", "F.y")
	var flat []id
	for _, b := range Build(units, true) {
		for _, u := range b.Units {
			assert.Equal(t, b.Type, recipe.TypeOf(u.Identifier()))
		}
		flat = append(flat, b.Units...)
	}
	assert.Equal(t, units, flat)
}

func TestBuild_WithRecipes(t *testing.T) {
	units := []*recipe.Recipe{
		recipe.New("Foo.upload.jamf", nil),
		recipe.New("Bar.upload.jamf", nil),
		recipe.New("Foo.self_service.jamf", nil),
	}
	batches := Build(units, true)
	require.Len(t, batches, 2)
	assert.Same(t, units[0], batches[0].Units[0])
	assert.Equal(t, "self_service.jamf", batches[1].Type)
}
