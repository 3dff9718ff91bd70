package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ambda/dataops-platform-sub001/internal/testutil"
)

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSpec(t, dir, "daily_clicks.dataset.yaml", `
name: iceberg.analytics.daily_clicks
owner: alice
team: analytics
domains: [ads]
tags: [daily]
main:
  sql: INSERT INTO t SELECT * FROM {{ ref('iceberg.raw.clicks') }}
depends_on: [iceberg.raw.clicks]
`)
	writeSpec(t, dir, "weekly_clicks.dataset.yaml", `
name: iceberg.analytics.weekly_clicks
owner: bob
team: analytics
domains: [ads]
tags: [weekly]
main:
  sql: INSERT INTO t SELECT * FROM {{ ref('iceberg.analytics.daily_clicks') }}
depends_on: [iceberg.analytics.daily_clicks]
`)
	writeSpec(t, dir, "revenue.metric.yaml", `
name: hive.finance.revenue
owner: carol
team: finance
domains: [billing]
tags: [daily]
main:
  sql: SELECT SUM(amount) FROM payments
`)
	return dir
}

func TestNewAndGet(t *testing.T) {
	reg, err := New([]string{fixtureDir(t)}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Count())

	spec := reg.Get("iceberg.analytics.daily_clicks")
	require.NotNil(t, spec)
	assert.Equal(t, "alice", spec.Owner)

	assert.Nil(t, reg.Get("missing.spec"))
}

func TestSearch(t *testing.T) {
	reg, err := New([]string{fixtureDir(t)}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"by tag", Filters{Tag: "daily"}, []string{"hive.finance.revenue", "iceberg.analytics.daily_clicks"}},
		{"by domain", Filters{Domain: "ads"}, []string{"iceberg.analytics.daily_clicks", "iceberg.analytics.weekly_clicks"}},
		{"by catalog", Filters{Catalog: "hive"}, []string{"hive.finance.revenue"}},
		{"by schema", Filters{Schema: "analytics"}, []string{"iceberg.analytics.daily_clicks", "iceberg.analytics.weekly_clicks"}},
		{"by owner", Filters{Owner: "bob"}, []string{"iceberg.analytics.weekly_clicks"}},
		{"by team", Filters{Team: "finance"}, []string{"hive.finance.revenue"}},
		{"AND of tag and domain", Filters{Tag: "daily", Domain: "ads"}, []string{"iceberg.analytics.daily_clicks"}},
		{"no match", Filters{Tag: "daily", Team: "platform"}, nil},
		{"empty filters match all", Filters{}, []string{"hive.finance.revenue", "iceberg.analytics.daily_clicks", "iceberg.analytics.weekly_clicks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Search(tt.filters)
			names := make([]string, len(got))
			for i, s := range got {
				names[i] = s.Name
			}
			if tt.want == nil {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.want, names)
			}
		})
	}
}

func TestDependencyGraph(t *testing.T) {
	reg, err := New([]string{fixtureDir(t)}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"iceberg.raw.clicks"},
		reg.Dependencies("iceberg.analytics.daily_clicks"))
	assert.Equal(t, []string{"iceberg.analytics.weekly_clicks"},
		reg.Dependents("iceberg.analytics.daily_clicks"))

	order, err := reg.TopologicalOrder()
	require.NoError(t, err)
	pos := make(map[string]int)
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos["iceberg.raw.clicks"], pos["iceberg.analytics.daily_clicks"])
	assert.Less(t, pos["iceberg.analytics.daily_clicks"], pos["iceberg.analytics.weekly_clicks"])
}

func TestDuplicateName(t *testing.T) {
	dir := t.TempDir()
	spec := "name: a.b.c\nmain:\n  sql: SELECT 1\n"
	writeSpec(t, dir, "one.dataset.yaml", spec)
	writeSpec(t, dir, "two.dataset.yaml", spec)

	_, err := New([]string{dir}, testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate spec name")
}

func TestDependencyCycle(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.dataset.yaml", "name: x.s.a\nmain:\n  sql: SELECT 1\ndepends_on: [x.s.b]\n")
	writeSpec(t, dir, "b.dataset.yaml", "name: x.s.b\nmain:\n  sql: SELECT 1\ndepends_on: [x.s.a]\n")

	_, err := New([]string{dir}, testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.dataset.yaml", "name: x.s.a\nmain:\n  sql: SELECT 1\n")

	reg, err := New([]string{dir}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count())

	writeSpec(t, dir, "b.dataset.yaml", "name: x.s.b\nmain:\n  sql: SELECT 1\n")
	require.NoError(t, err)
	require.NoError(t, reg.Reload())
	assert.Equal(t, 2, reg.Count())
	assert.NotNil(t, reg.Get("x.s.b"))
}
