package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`{
  "name": " @scope/app ",
  "version": "1.2.3",
  "dependencies": {"@scope/shared": "workspace:*", "lodash": "^4.0.0"},
  "devDependencies": {"@scope/test-utils": "workspace:^"},
  "peerDependencies": null,
  "bundleDependencies": ["@scope/shared"]
}`))
	require.NoError(t, err)

	assert.Equal(t, "@scope/app", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "workspace:*", m.Dependencies("dependencies")["@scope/shared"])
	assert.Equal(t, "workspace:^", m.Dependencies("devDependencies")["@scope/test-utils"])
	assert.Nil(t, m.Dependencies("peerDependencies"))
	assert.Equal(t, []string{"@scope/shared"}, m.Bundled)
}

func TestParseManifestBundledBoolean(t *testing.T) {
	m, err := ParseManifest([]byte(`{
  "name": "app",
  "dependencies": {"b": "1.0.0", "a": "1.0.0"},
  "bundledDependencies": true
}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Bundled)

	m, err = ParseManifest([]byte(`{"name": "app", "dependencies": {"a": "1"}, "bundleDependencies": false}`))
	require.NoError(t, err)
	assert.Empty(t, m.Bundled)
}

func TestParseManifestRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"array", `[]`, "not a JSON object"},
		{"null", `null`, "not a JSON object"},
		{"missing name", `{}`, "missing required field"},
		{"numeric name", `{"name": 3}`, "must be a string"},
		{"blank name", `{"name": "  "}`, "must not be empty"},
		{"numeric version", `{"name": "a", "version": 1}`, "\"version\""},
		{"dependency list", `{"name": "a", "dependencies": ["b"]}`, "\"dependencies\""},
		{"numeric range", `{"name": "a", "devDependencies": {"b": 1}}`, "\"devDependencies\""},
		{"bundle object", `{"name": "a", "bundleDependencies": {"b": true}}`, "\"bundleDependencies\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRegistryKeepsFirst(t *testing.T) {
	reg := NewRegistry("/ws",
		&Project{Name: "a", Root: "/ws/a"},
		&Project{Name: "a", Root: "/ws/other"},
		&Project{Name: "b", Root: "/ws/a"},
		&Project{Name: "c", Root: "/ws/c"},
	)

	assert.Equal(t, []string{"a", "c"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, "/ws", reg.Root())
	_, ok := reg.Get("b")
	assert.False(t, ok)
}
