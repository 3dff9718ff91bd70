package validate

import (
	"reflect"
	"testing"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

func TestValidate_Valid(t *testing.T) {
	v := New(nil, "trino", false)

	result := v.Validate("SELECT id FROM clicks LIMIT 10", core.PhaseMain, "main")
	if !result.Valid {
		t.Fatalf("Validate failed: %s", result.Error)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
}

func TestValidate_SyntaxFailures(t *testing.T) {
	v := New(nil, "trino", false)

	tests := []struct {
		name string
		sql  string
	}{
		{"empty", "   "},
		{"unknown keyword", "FROBNICATE the data"},
		{"unclosed paren", "SELECT count(* FROM t"},
		{"extra paren", "SELECT 1) FROM t"},
		{"unterminated string", "SELECT 'abc FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.sql, core.PhaseMain, "main")
			if result.Valid {
				t.Errorf("Validate(%q) should be invalid", tt.sql)
			}
			if result.Error == "" {
				t.Error("invalid result should carry an error message")
			}
		})
	}
}

func TestValidate_DialectKeywords(t *testing.T) {
	trino := New(nil, "trino", false)
	if result := trino.Validate("OPTIMIZE iceberg.analytics.daily_clicks", core.PhasePost, "optimize"); !result.Valid {
		t.Errorf("OPTIMIZE should be valid for trino: %s", result.Error)
	}

	generic := New(nil, "", false)
	if result := generic.Validate("OPTIMIZE t", core.PhasePost, "optimize"); result.Valid {
		t.Error("OPTIMIZE should be rejected without a dialect that knows it")
	}
}

func TestValidate_Warnings(t *testing.T) {
	v := New(nil, "trino", false)

	result := v.Validate("SELECT * FROM clicks", core.PhaseMain, "main")
	if !result.Valid {
		t.Fatalf("Validate failed: %s", result.Error)
	}
	codes := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		codes[i] = w.Code
	}
	want := []string{WarnSelectStar, WarnNoLimit}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("warning codes = %v, want %v", codes, want)
	}

	// DML gets neither warning even without LIMIT.
	result = v.Validate("DELETE FROM clicks WHERE dt = '2025-01-01'", core.PhasePre, "cleanup")
	if len(result.Warnings) != 0 {
		t.Errorf("DML warnings = %v, want none", result.Warnings)
	}

	// count(*) is not a wildcard projection.
	result = v.Validate("SELECT count(*) FROM clicks LIMIT 1", core.PhaseMain, "main")
	for _, w := range result.Warnings {
		if w.Code == WarnSelectStar {
			t.Error("count(*) should not trigger the select_star warning")
		}
	}

	// alias.* is.
	result = v.Validate("SELECT c.* FROM clicks c LIMIT 1", core.PhaseMain, "main")
	found := false
	for _, w := range result.Warnings {
		if w.Code == WarnSelectStar {
			found = true
		}
	}
	if !found {
		t.Error("alias.* should trigger the select_star warning")
	}
}

func TestValidate_StrictEscalation(t *testing.T) {
	strict := New(nil, "trino", true)

	result := strict.Validate("SELECT * FROM clicks", core.PhaseMain, "main")
	if result.Valid {
		t.Error("strict mode should escalate warnings to errors")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("strict mode warnings = %v, want empty", result.Warnings)
	}
	if result.Error == "" {
		t.Error("escalated result should carry an error message")
	}
}

func TestExtractTables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			"select with join",
			"SELECT a.id FROM iceberg.raw.clicks a JOIN users u ON a.user_id = u.id",
			[]string{"iceberg.raw.clicks", "users"},
		},
		{
			"insert into",
			"INSERT INTO analytics.daily SELECT * FROM raw.clicks",
			[]string{"analytics.daily", "raw.clicks"},
		},
		{
			"dedup",
			"SELECT 1 FROM t UNION ALL SELECT 2 FROM t",
			[]string{"t"},
		},
		{
			"update",
			"UPDATE clicks SET n = 1",
			[]string{"clicks"},
		},
		{
			"case preserved, sorted",
			"SELECT 1 FROM Zeta JOIN alpha ON 1 = 1",
			[]string{"Zeta", "alpha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTables(tt.sql)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTables = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractColumns(t *testing.T) {
	got := ExtractColumns("SELECT id, user_id FROM clicks WHERE dt = '2025-01-01'")
	want := []string{"dt", "id", "user_id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractColumns = %v, want %v", got, want)
	}

	// Qualified references count once; function names are excluded.
	got = ExtractColumns("SELECT c.id, count(c.id) FROM clicks c GROUP BY c.id")
	want = []string{"id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractColumns = %v, want %v", got, want)
	}
}

func TestTokenize_Comments(t *testing.T) {
	tokens := tokenize("SELECT 1 -- trailing\n/* block */ FROM t")
	var idents []string
	for _, tok := range tokens {
		if tok.kind == tokenIdent {
			idents = append(idents, tok.text)
		}
	}
	want := []string{"SELECT", "FROM", "t"}
	if !reflect.DeepEqual(idents, want) {
		t.Errorf("idents = %v, want %v", idents, want)
	}
}
