package graph

import (
	stderrors "errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

func TestBuildDropsInvalidEdges(t *testing.T) {
	g := Build([]string{"b", "a", "c", "a"}, []Edge{
		{From: "a", To: "a", Reason: ReasonManifestDependency},
		{From: "a", To: "ghost", Reason: ReasonManifestDependency},
		{From: "b", To: "a", Reason: ReasonInferredImport},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "c", To: "b", Reason: ReasonFileLink},
	})

	assert.Equal(t, []string{"a", "b", "c"}, g.Names())
	assert.Equal(t, 3, g.Len())
	assert.False(t, g.Has("ghost"))
	assert.Empty(t, g.Dependencies("a"))
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
	assert.Equal(t, []Reason{ReasonInferredImport, ReasonManifestDependency}, g.Reasons("b", "a"))
	assert.Nil(t, g.Reasons("a", "b"))
	assert.Equal(t, []Edge{
		{From: "b", To: "a", Reason: ReasonInferredImport},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "c", To: "b", Reason: ReasonFileLink},
	}, g.Edges())
}

func TestSortScopeExample(t *testing.T) {
	g := Build([]string{"@scope/app", "@scope/shared"}, []Edge{
		{From: "@scope/app", To: "@scope/shared", Reason: ReasonManifestDependency},
	})

	topo, err := Sort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"@scope/shared", "@scope/app"}, topo.Order)
	assert.Equal(t, [][]string{{"@scope/shared"}, {"@scope/app"}}, topo.Levels)

	level, ok := topo.LevelOf("@scope/app")
	require.True(t, ok)
	assert.Equal(t, 1, level)
	_, ok = topo.LevelOf("missing")
	assert.False(t, ok)
}

func TestSortLevels(t *testing.T) {
	//   d -> b -> a
	//   d -> c -> a
	//   e
	g := Build([]string{"e", "d", "c", "b", "a"}, []Edge{
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "c", To: "a", Reason: ReasonManifestDependency},
		{From: "d", To: "b", Reason: ReasonManifestDependency},
		{From: "d", To: "c", Reason: ReasonInferredImport},
	})

	topo, err := Sort(g)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "e"}, {"b", "c"}, {"d"}}, topo.Levels)
	assert.Equal(t, []string{"a", "e", "b", "c", "d"}, topo.Order)
}

func TestSortEmptyGraph(t *testing.T) {
	topo, err := Sort(Build(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, topo.Order)
	assert.Empty(t, topo.Levels)
}

func TestSortMutualCycle(t *testing.T) {
	g := Build([]string{"B", "A"}, []Edge{
		{From: "A", To: "B", Reason: ReasonManifestDependency},
		{From: "B", To: "A", Reason: ReasonManifestDependency},
	})

	_, err := Sort(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "Circular project dependencies detected")
	assert.Equal(t, "Circular project dependencies detected: A, B", err.Error())

	var cycleErr *CycleError
	require.True(t, stderrors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "B"}, cycleErr.Participants)

	var runErr *errors.RunnerError
	require.True(t, stderrors.As(err, &runErr))
	assert.Equal(t, errors.ErrCodeGraphCycle, runErr.Code)
	assert.NotEmpty(t, runErr.Suggestions)
}

func TestSortCycleParticipantsExcludeDownstream(t *testing.T) {
	// x and y form a cycle; z depends on it but is not part of it; q is fine.
	g := Build([]string{"z", "y", "x", "q", "m", "n"}, []Edge{
		{From: "x", To: "y", Reason: ReasonManifestDependency},
		{From: "y", To: "x", Reason: ReasonInferredImport},
		{From: "z", To: "x", Reason: ReasonManifestDependency},
		{From: "m", To: "n", Reason: ReasonManifestDependency},
		{From: "n", To: "m", Reason: ReasonManifestDependency},
	})

	_, err := Sort(g)
	var cycleErr *CycleError
	require.True(t, stderrors.As(err, &cycleErr))
	assert.Equal(t, []string{"m", "n", "x", "y"}, cycleErr.Participants)
	assert.Equal(t, [][]string{{"m", "n"}, {"x", "y"}}, cycleErr.Cycles)
}

func TestSortDeterministicAcrossInputOrder(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	edges := []Edge{
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "c", To: "a", Reason: ReasonManifestDependency},
		{From: "d", To: "c", Reason: ReasonManifestDependency},
		{From: "e", To: "d", Reason: ReasonInferredImport},
		{From: "f", To: "b", Reason: ReasonWorkspaceAlias},
	}

	want, err := Sort(Build(names, edges))
	require.NoError(t, err)
	wantFP, err := Build(names, edges).Fingerprint()
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		n := append([]string(nil), names...)
		e := append([]Edge(nil), edges...)
		rng.Shuffle(len(n), func(i, j int) { n[i], n[j] = n[j], n[i] })
		rng.Shuffle(len(e), func(i, j int) { e[i], e[j] = e[j], e[i] })

		g := Build(n, e)
		got, err := Sort(g)
		require.NoError(t, err)
		assert.Equal(t, want.Order, got.Order)
		assert.Equal(t, want.Levels, got.Levels)

		fp, err := g.Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, wantFP, fp)
	}
}

func TestSortOrderRespectsDependencies(t *testing.T) {
	g := Build([]string{"a", "b", "c", "d"}, []Edge{
		{From: "a", To: "d", Reason: ReasonManifestDependency},
		{From: "b", To: "a", Reason: ReasonManifestDependency},
		{From: "c", To: "b", Reason: ReasonManifestDependency},
		{From: "c", To: "d", Reason: ReasonManifestDependency},
	})

	topo, err := Sort(g)
	require.NoError(t, err)

	position := make(map[string]int)
	for i, name := range topo.Order {
		position[name] = i
	}
	require.Len(t, position, 4)
	for _, e := range g.Edges() {
		assert.Less(t, position[e.To], position[e.From], "%s must precede %s", e.To, e.From)
	}

	var concatenated []string
	for _, level := range topo.Levels {
		assert.IsIncreasing(t, level)
		concatenated = append(concatenated, level...)
	}
	assert.Equal(t, topo.Order, concatenated)
}
