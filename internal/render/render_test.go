package render

import (
	"errors"
	"testing"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

func testSpec() *core.Spec {
	return &core.Spec{
		Name: "iceberg.analytics.daily_clicks",
		Parameters: []core.ParameterDefinition{
			{Name: "run_date", Type: core.ParamDate, Required: true},
			{Name: "limit", Type: core.ParamInteger, Default: 1000},
			{Name: "regions", Type: core.ParamList},
		},
		DependsOn: []string{"iceberg.raw.clicks"},
	}
}

func TestRender_Parameters(t *testing.T) {
	r := New()
	spec := testSpec()

	params, err := r.CoerceParams(spec, map[string]any{"run_date": "2025-06-01"})
	if err != nil {
		t.Fatalf("CoerceParams failed: %v", err)
	}

	sql, err := r.Render(
		"SELECT * FROM t WHERE dt = '{{ run_date }}' LIMIT {{ limit }}",
		spec, params)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "SELECT * FROM t WHERE dt = '2025-06-01' LIMIT 1000"
	if sql != want {
		t.Errorf("Render = %q, want %q", sql, want)
	}
}

func TestRender_Ref(t *testing.T) {
	r := New()
	spec := testSpec()

	for _, tmpl := range []string{
		"INSERT INTO t SELECT * FROM {{ ref('iceberg.raw.clicks') }}",
		`INSERT INTO t SELECT * FROM {{ ref("iceberg.raw.clicks") }}`,
	} {
		sql, err := r.Render(tmpl, spec, nil)
		if err != nil {
			t.Fatalf("Render(%q) failed: %v", tmpl, err)
		}
		want := "INSERT INTO t SELECT * FROM iceberg.raw.clicks"
		if sql != want {
			t.Errorf("Render = %q, want %q", sql, want)
		}
	}
}

func TestRender_UndeclaredRef(t *testing.T) {
	r := New()
	_, err := r.Render("SELECT * FROM {{ ref('other.table') }}", testSpec(), nil)
	if err == nil {
		t.Fatal("Render should reject ref not in depends_on")
	}
	var renderErr *core.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("error = %T, want *RenderError", err)
	}
}

func TestRender_MissingParameter(t *testing.T) {
	r := New()
	_, err := r.Render("SELECT {{ unknown }}", testSpec(), map[string]any{})
	var renderErr *core.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("error = %T (%v), want *RenderError", err, err)
	}
}

func TestRender_ListIntoInClause(t *testing.T) {
	r := New()
	spec := testSpec()
	params, err := r.CoerceParams(spec, map[string]any{
		"run_date": "2025-06-01",
		"regions":  []string{"kr", "jp"},
	})
	if err != nil {
		t.Fatalf("CoerceParams failed: %v", err)
	}

	sql, err := r.Render("SELECT * FROM t WHERE region IN ({{ regions }})", spec, params)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "SELECT * FROM t WHERE region IN ('kr', 'jp')"
	if sql != want {
		t.Errorf("Render = %q, want %q", sql, want)
	}
}

func TestRender_Idempotent(t *testing.T) {
	r := New()
	spec := testSpec()
	params, _ := r.CoerceParams(spec, map[string]any{"run_date": "2025-06-01"})

	tmpl := "SELECT * FROM {{ ref('iceberg.raw.clicks') }} WHERE dt = '{{ run_date }}' LIMIT {{ limit }}"
	first, err := r.Render(tmpl, spec, params)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Render(tmpl, spec, params)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("rendering is not deterministic: %q vs %q", first, second)
	}
}

func TestCoerceParams_MissingRequired(t *testing.T) {
	r := New()
	_, err := r.CoerceParams(testSpec(), nil)
	var missing *core.MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %T, want *MissingParameterError", err)
	}
	if missing.Name != "run_date" {
		t.Errorf("missing = %q, want run_date", missing.Name)
	}
}

func TestCoerceParams_UndeclaredPassThrough(t *testing.T) {
	r := New()
	params, err := r.CoerceParams(testSpec(), map[string]any{
		"run_date": "2025-06-01",
		"extra":    "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	if params["extra"] != "x" {
		t.Errorf("extra = %v, want pass-through", params["extra"])
	}
}

func TestRender_NoPlaceholders(t *testing.T) {
	r := New()
	sql, err := r.Render("SELECT 1", testSpec(), nil)
	if err != nil || sql != "SELECT 1" {
		t.Errorf("Render = %q, %v", sql, err)
	}
}
