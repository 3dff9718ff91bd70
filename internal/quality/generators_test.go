package quality

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

func f64(v float64) *float64 { return &v }

func TestGenerateSQL_NotNull(t *testing.T) {
	def := core.TestDefinition{
		Name: "id_not_null", Type: core.TestNotNull,
		Table: "iceberg.raw.events", Columns: []string{"id"}, Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM iceberg.raw.events WHERE id IS NULL", sql)
}

func TestGenerateSQL_NotNull_MultiColumn(t *testing.T) {
	def := core.TestDefinition{
		Name: "pk_not_null", Type: core.TestNotNull,
		Table: "events", Columns: []string{"id", "created_at"}, Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM events WHERE id IS NULL OR created_at IS NULL", sql)
}

func TestGenerateSQL_Unique(t *testing.T) {
	def := core.TestDefinition{
		Name: "id_unique", Type: core.TestUnique,
		Table: "events", Columns: []string{"id", "source"}, Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, source, COUNT(*) AS occurrences FROM events GROUP BY id, source HAVING COUNT(*) > 1",
		sql)
}

func TestGenerateSQL_AcceptedValues(t *testing.T) {
	def := core.TestDefinition{
		Name: "status_values", Type: core.TestAcceptedValues,
		Table: "orders", Columns: []string{"status"},
		Values: []string{"OPEN", "CLOSED"}, Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM orders WHERE status IS NOT NULL AND status NOT IN ('OPEN', 'CLOSED')",
		sql)
}

func TestGenerateSQL_AcceptedValues_QuoteEscaping(t *testing.T) {
	def := core.TestDefinition{
		Name: "name_values", Type: core.TestAcceptedValues,
		Table: "people", Columns: []string{"name"},
		Values: []string{"O'Brien"}, Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "'O''Brien'")
}

func TestGenerateSQL_Relationships(t *testing.T) {
	def := core.TestDefinition{
		Name: "order_customer_fk", Type: core.TestRelationships,
		Table: "orders", Columns: []string{"customer_id"},
		ToTable: "customers", ToColumn: "id", Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT child.* FROM orders child LEFT JOIN customers parent ON child.customer_id = parent.id "+
			"WHERE child.customer_id IS NOT NULL AND parent.id IS NULL",
		sql)
}

func TestGenerateSQL_RangeCheck(t *testing.T) {
	cases := []struct {
		name     string
		min, max *float64
		want     string
	}{
		{"both bounds", f64(0), f64(100), "SELECT * FROM m WHERE v < 0 OR v > 100"},
		{"min only", f64(1.5), nil, "SELECT * FROM m WHERE v < 1.5"},
		{"max only", nil, f64(10), "SELECT * FROM m WHERE v > 10"},
		{"no bounds", nil, nil, "SELECT * FROM m WHERE 1 = 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := core.TestDefinition{
				Name: "v_range", Type: core.TestRangeCheck,
				Table: "m", Columns: []string{"v"},
				Min: tc.min, Max: tc.max, Enabled: true,
			}
			sql, err := GenerateSQL(def, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, sql)
		})
	}
}

func TestGenerateSQL_RowCount(t *testing.T) {
	def := core.TestDefinition{
		Name: "min_rows", Type: core.TestRowCount,
		Table: "events", Min: f64(1000), Enabled: true,
	}
	sql, err := GenerateSQL(def, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS row_count FROM events HAVING COUNT(*) < 1000", sql)
}

func TestGenerateSQL_Singular(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assert.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1 WHERE 1 = 0\n"), 0o644))

	def := core.TestDefinition{
		Name: "custom", Type: core.TestSingular,
		SQL: core.SQLFile("assert.sql"), Enabled: true,
	}
	sql, err := GenerateSQL(def, dir)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 WHERE 1 = 0", sql)
}

func TestGenerateSQL_RejectsHostileIdentifiers(t *testing.T) {
	hostile := []string{
		"events; DROP TABLE users",
		"events -- comment",
		"events WHERE 1=1",
		"ev ents",
		"1events",
		"events'",
		strings.Repeat("a", 300),
	}
	for _, table := range hostile {
		def := core.TestDefinition{
			Name: "inj", Type: core.TestNotNull,
			Table: table, Columns: []string{"id"}, Enabled: true,
		}
		sql, err := GenerateSQL(def, "")
		require.Errorf(t, err, "identifier %q must be rejected", table)
		assert.Empty(t, sql)

		var genErr *core.TestGenerationError
		assert.ErrorAs(t, err, &genErr)
	}
}

func TestGenerateSQL_RejectsHostileColumn(t *testing.T) {
	def := core.TestDefinition{
		Name: "inj", Type: core.TestNotNull,
		Table: "events", Columns: []string{"id; DELETE FROM events"}, Enabled: true,
	}
	_, err := GenerateSQL(def, "")
	require.Error(t, err)
}

func TestGenerateSQL_MissingMandatoryFields(t *testing.T) {
	def := core.TestDefinition{
		Name: "no_columns", Type: core.TestNotNull, Table: "events", Enabled: true,
	}
	_, err := GenerateSQL(def, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}
