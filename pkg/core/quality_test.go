package core

import (
	"errors"
	"testing"
)

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []TestStatus
		want     TestStatus
	}{
		{"empty is pass", nil, StatusPass},
		{"all pass", []TestStatus{StatusPass, StatusPass}, StatusPass},
		{"fail beats warn", []TestStatus{StatusWarn, StatusFail, StatusPass}, StatusFail},
		{"error beats fail", []TestStatus{StatusFail, StatusError}, StatusError},
		{"warn beats pass", []TestStatus{StatusPass, StatusWarn, StatusSkipped}, StatusWarn},
		{"skipped only", []TestStatus{StatusSkipped}, StatusSkipped},
		{"pass beats skipped", []TestStatus{StatusSkipped, StatusPass}, StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorstStatus(tt.statuses); got != tt.want {
				t.Errorf("WorstStatus(%v) = %s, want %s", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestParseTestStatus_UnparseableIsError(t *testing.T) {
	for _, s := range []string{"", "ok", "SUCCESS", "garbage"} {
		if got := ParseTestStatus(s); got != StatusError {
			t.Errorf("ParseTestStatus(%q) = %s, want error", s, got)
		}
	}
	if got := ParseTestStatus(" PASS "); got != StatusPass {
		t.Errorf("ParseTestStatus should trim and lowercase, got %s", got)
	}
}

func TestReportAggregation(t *testing.T) {
	report := &QualityReport{
		Resource: "iceberg.analytics.daily_clicks",
		Results: []TestResult{
			{TestName: "a", Status: StatusPass},
			{TestName: "b", Status: StatusFail},
			{TestName: "c", Status: StatusPass},
			{TestName: "d", Status: StatusSkipped},
		},
	}
	report.Finalize()

	if report.Status != StatusFail {
		t.Errorf("report status = %s, want fail", report.Status)
	}
	if report.PassedCount() != 2 {
		t.Errorf("passed = %d, want 2", report.PassedCount())
	}
	if report.FailedCount() != 1 {
		t.Errorf("failed = %d, want 1", report.FailedCount())
	}
}

func TestAssertion_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		def  TestDefinition
		ok   bool
	}{
		{"not_null needs columns", TestDefinition{Name: "t", Type: TestNotNull, Table: "t1"}, false},
		{"not_null with columns", TestDefinition{Name: "t", Type: TestNotNull, Table: "t1", Columns: []string{"id"}}, true},
		{"unique needs columns", TestDefinition{Name: "t", Type: TestUnique, Table: "t1"}, false},
		{"accepted_values needs values", TestDefinition{Name: "t", Type: TestAcceptedValues, Table: "t1", Columns: []string{"c"}}, false},
		{"accepted_values one column", TestDefinition{Name: "t", Type: TestAcceptedValues, Table: "t1", Columns: []string{"a", "b"}, Values: []string{"x"}}, false},
		{"relationships needs parent", TestDefinition{Name: "t", Type: TestRelationships, Table: "t1", Columns: []string{"c"}}, false},
		{"row_count needs table", TestDefinition{Name: "t", Type: TestRowCount}, false},
		{"row_count with table", TestDefinition{Name: "t", Type: TestRowCount, Table: "t1"}, true},
		{"singular needs sql", TestDefinition{Name: "t", Type: TestSingular}, false},
		{"singular with sql", TestDefinition{Name: "t", Type: TestSingular, SQL: InlineSQL("SELECT 1")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Assertion()
			if tt.ok && err != nil {
				t.Fatalf("Assertion() failed: %v", err)
			}
			if !tt.ok {
				var genErr *TestGenerationError
				if !errors.As(err, &genErr) {
					t.Fatalf("error = %T (%v), want *TestGenerationError", err, err)
				}
			}
		})
	}
}

func TestAssertion_ExhaustiveDispatch(t *testing.T) {
	def := TestDefinition{
		Name: "orphans", Type: TestRelationships, Table: "child",
		Columns: []string{"parent_id"}, ToTable: "parent", ToColumn: "id",
	}
	a, err := def.Assertion()
	if err != nil {
		t.Fatalf("Assertion() failed: %v", err)
	}
	rel, ok := a.(RelationshipsAssertion)
	if !ok {
		t.Fatalf("assertion = %T, want RelationshipsAssertion", a)
	}
	if rel.ToTable != "parent" || rel.ToColumn != "id" {
		t.Errorf("assertion = %+v, want parent/id", rel)
	}
}
