package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() *Graph {
	// app -> ui -> core, app -> util, tool -> util
	return Build([]string{"app", "ui", "core", "util", "tool"}, []Edge{
		{From: "app", To: "ui", Reason: ReasonManifestDependency},
		{From: "ui", To: "core", Reason: ReasonManifestDependency},
		{From: "app", To: "util", Reason: ReasonInferredImport},
		{From: "tool", To: "util", Reason: ReasonFileLink},
	})
}

func TestDependencyClosure(t *testing.T) {
	g := chain()

	assert.Equal(t, []string{"app", "core", "ui", "util"}, g.DependencyClosure([]string{"app"}))
	assert.Equal(t, []string{"core", "ui"}, g.DependencyClosure([]string{"ui"}))
	assert.Equal(t, []string{"core"}, g.DependencyClosure([]string{"core", "ghost"}))
	assert.Empty(t, g.DependencyClosure(nil))
}

func TestSubgraph(t *testing.T) {
	sub := chain().Subgraph([]string{"app", "core", "util"})

	assert.Equal(t, []string{"app", "core", "util"}, sub.Names())
	assert.Equal(t, []Edge{{From: "app", To: "util", Reason: ReasonInferredImport}}, sub.Edges())

	topo, err := Sort(sub)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"core", "util"}, {"app"}}, topo.Levels)
}

func TestNeighborhood(t *testing.T) {
	got := chain().Neighborhood([]string{"util", "ui", "ghost", "ui"})

	assert.Equal(t, []Neighborhood{
		{Project: "ui", Dependencies: []string{"core"}, Dependents: []string{"app"}},
		{Project: "util", Dependencies: []string{}, Dependents: []string{"app", "tool"}},
	}, got)
}

func TestFingerprint(t *testing.T) {
	a, err := chain().Fingerprint()
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := chain().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := chain().Subgraph([]string{"app", "ui"}).Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	empty, err := Build(nil, nil).Fingerprint()
	require.NoError(t, err)
	assert.Len(t, empty, 64)
}

func TestSortEdgesDedupes(t *testing.T) {
	in := []Edge{
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "a", To: "c", Reason: ReasonInferredImport},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
	}
	out := SortEdges(in)

	assert.Equal(t, []Edge{
		{From: "a", To: "c", Reason: ReasonInferredImport},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
	}, out)
	assert.Equal(t, "b", in[0].From, "input must not be reordered")
}
