package filter

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wiggum/internal/errors"
	"github.com/felixgeelhaar/wiggum/internal/graph"
	"github.com/felixgeelhaar/wiggum/internal/log"
	"github.com/felixgeelhaar/wiggum/internal/workspace"
)

func scopeWorkspace() (*workspace.Registry, *graph.Graph) {
	names := []string{"@scope/shared", "@scope/app", "@scope/legacy", "@scope/cli", "tools"}
	projects := make([]*workspace.Project, 0, len(names))
	for _, n := range names {
		projects = append(projects, &workspace.Project{Name: n, Root: "/ws/" + n})
	}
	reg := workspace.NewRegistry("/ws", projects...)
	g := graph.Build(names, []graph.Edge{
		{From: "@scope/app", To: "@scope/shared", Reason: graph.ReasonManifestDependency},
		{From: "@scope/cli", To: "@scope/legacy", Reason: graph.ReasonManifestDependency},
		{From: "@scope/legacy", To: "tools", Reason: graph.ReasonInferredImport},
	})
	return reg, g
}

func TestParse(t *testing.T) {
	f := Parse([]string{"@scope/*,!@scope/legacy", " app ", "", "!", "!b, c"})

	assert.Equal(t, []string{"@scope/*", "app", "c"}, f.Include)
	assert.Equal(t, []string{"@scope/legacy", "b"}, f.Exclude)
	assert.Equal(t, []string{"@scope/*", "app", "c", "!@scope/legacy", "!b"}, f.Patterns())
	assert.False(t, f.IsEmpty())
	assert.True(t, Parse(nil).IsEmpty())
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"@scope/app", "@scope/app", true},
		{"@scope/*", "@scope/app", true},
		{"@scope/*", "@other/app", false},
		{"*", "@scope/app", false},
		{"*", "tools", true},
		{"@*/app", "@scope/app", true},
		{"tool?", "tools", true},
		{"[", "[", true},
		{"[", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.name))
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		values       []string
		expand       bool
		wantExplicit []string
		wantPulled   []string
	}{
		{
			name:         "no patterns selects all",
			wantExplicit: []string{"@scope/shared", "@scope/app", "@scope/legacy", "@scope/cli", "tools"},
		},
		{
			name:         "include with negation",
			values:       []string{"@scope/*,!@scope/legacy"},
			wantExplicit: []string{"@scope/shared", "@scope/app", "@scope/cli"},
		},
		{
			name:         "exclude only",
			values:       []string{"!tools"},
			wantExplicit: []string{"@scope/shared", "@scope/app", "@scope/legacy", "@scope/cli"},
		},
		{
			name:         "explicit first then pulled",
			values:       []string{"@scope/app"},
			expand:       true,
			wantExplicit: []string{"@scope/app"},
			wantPulled:   []string{"@scope/shared"},
		},
		{
			name:         "expansion ignored when disabled",
			values:       []string{"@scope/app"},
			wantExplicit: []string{"@scope/app"},
		},
		{
			name:         "transitive closure keeps excluded dependency",
			values:       []string{"@scope/cli", "!@scope/legacy"},
			expand:       true,
			wantExplicit: []string{"@scope/cli"},
			wantPulled:   []string{"@scope/legacy", "tools"},
		},
		{
			name:         "dependents are never pulled",
			values:       []string{"@scope/shared"},
			expand:       true,
			wantExplicit: []string{"@scope/shared"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, g := scopeWorkspace()
			sel, err := Apply(reg, g, Parse(tt.values), Options{ExpandDependencies: tt.expand, Logger: log.Discard()})
			require.NoError(t, err)
			assert.Equal(t, tt.wantExplicit, sel.Explicit)
			assert.Equal(t, tt.wantPulled, sel.Pulled)
			assert.Equal(t, len(tt.wantExplicit)+len(tt.wantPulled), sel.Len())
		})
	}
}

func TestApplySelectedOrder(t *testing.T) {
	reg, g := scopeWorkspace()
	sel, err := Apply(reg, g, Parse([]string{"@scope/app"}), Options{ExpandDependencies: true, Logger: log.Discard()})
	require.NoError(t, err)
	assert.Equal(t, []string{"@scope/app", "@scope/shared"}, sel.Names())
}

func TestApplyUnmatchedIncludeWarns(t *testing.T) {
	reg, g := scopeWorkspace()
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: log.LevelWarn, Output: &buf})

	sel, err := Apply(reg, g, Parse([]string{"tools,missing-*"}), Options{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, []string{"tools"}, sel.Names())
	assert.Contains(t, buf.String(), "missing-*")
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		wantCode errors.ErrorCode
	}{
		{"nothing matches", []string{"nope"}, errors.ErrCodeFilterEmpty},
		{"everything excluded", []string{"@scope/app,!@scope/*"}, errors.ErrCodeFilterEmpty},
		{"malformed pattern", []string{"@scope/[app"}, errors.ErrCodeFilterPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, g := scopeWorkspace()
			_, err := Apply(reg, g, Parse(tt.values), Options{ExpandDependencies: true, Logger: log.Discard()})
			require.Error(t, err)

			var runErr *errors.RunnerError
			require.True(t, stderrors.As(err, &runErr))
			assert.Equal(t, tt.wantCode, runErr.Code)
		})
	}
}
