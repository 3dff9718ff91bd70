package core

import (
	"fmt"
	"strings"
)

// TestType enumerates the built-in quality test types plus singular
// (hand-written SQL) tests.
type TestType string

const (
	TestNotNull        TestType = "not_null"
	TestUnique         TestType = "unique"
	TestAcceptedValues TestType = "accepted_values"
	TestRelationships  TestType = "relationships"
	TestRangeCheck     TestType = "range_check"
	TestRowCount       TestType = "row_count"
	TestSingular       TestType = "singular"
)

// ParseTestType converts a string to a TestType.
// Returns the type and true if valid, or TestSingular and false if not.
func ParseTestType(s string) (TestType, bool) {
	switch TestType(strings.ToLower(s)) {
	case TestNotNull, TestUnique, TestAcceptedValues, TestRelationships,
		TestRangeCheck, TestRowCount, TestSingular:
		return TestType(strings.ToLower(s)), true
	default:
		return TestSingular, false
	}
}

// TestSeverity controls how a failing test is classified.
type TestSeverity string

const (
	// SeverityError classifies failing rows as status fail.
	SeverityError TestSeverity = "error"
	// SeverityWarn classifies failing rows as status warn.
	SeverityWarn TestSeverity = "warn"
)

// TestStatus is the outcome classification of one test run.
type TestStatus string

const (
	StatusPass    TestStatus = "pass"
	StatusFail    TestStatus = "fail"
	StatusWarn    TestStatus = "warn"
	StatusError   TestStatus = "error"
	StatusSkipped TestStatus = "skipped"
)

// statusPriority orders statuses by severity; lower is more severe.
var statusPriority = map[TestStatus]int{
	StatusError:   0,
	StatusFail:    1,
	StatusWarn:    2,
	StatusPass:    3,
	StatusSkipped: 4,
}

// Priority returns the status severity rank (lower = more severe).
// Unknown statuses rank as most severe.
func (s TestStatus) Priority() int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return 0
}

// WorstStatus returns the most severe status present, or StatusPass
// for an empty list.
func WorstStatus(statuses []TestStatus) TestStatus {
	if len(statuses) == 0 {
		return StatusPass
	}
	worst := statuses[0]
	for _, s := range statuses[1:] {
		if s.Priority() < worst.Priority() {
			worst = s
		}
	}
	return worst
}

// ParseTestStatus converts a string to a TestStatus.
// Unparseable statuses map to StatusError so a garbled remote response
// never reads as success.
func ParseTestStatus(s string) TestStatus {
	switch TestStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPass, StatusFail, StatusWarn, StatusError, StatusSkipped:
		return TestStatus(strings.ToLower(strings.TrimSpace(s)))
	default:
		return StatusError
	}
}

// TestDefinition is the declarative shape of one quality test as loaded
// from a quality spec file.
type TestDefinition struct {
	// Name identifies the test in results.
	Name string
	// Type selects a built-in generator or singular.
	Type TestType
	// Severity controls fail-vs-warn classification. Default error.
	Severity TestSeverity
	// Table is the target table, fully qualified.
	Table string
	// Columns are the target columns for column-oriented tests.
	Columns []string
	// Values is the allowed-value set for accepted_values.
	Values []string
	// ToTable / ToColumn name the parent side of a relationships test.
	ToTable  string
	ToColumn string
	// Min / Max are inclusive bounds for range_check and row_count.
	Min *float64
	Max *float64
	// SQL is the assertion source for singular tests.
	SQL SQLSource
	// Enabled gates execution; disabled tests short-circuit to skipped.
	Enabled bool
}

// Assertion is the closed set of typed test variants. Each concrete
// variant carries exactly the fields its generator needs, so dispatch
// is an exhaustive type switch rather than string comparison.
type Assertion interface {
	assertion()
}

type NotNullAssertion struct {
	Table   string
	Columns []string
}

type UniqueAssertion struct {
	Table   string
	Columns []string
}

type AcceptedValuesAssertion struct {
	Table  string
	Column string
	Values []string
}

type RelationshipsAssertion struct {
	Table    string
	Column   string
	ToTable  string
	ToColumn string
}

type RangeCheckAssertion struct {
	Table  string
	Column string
	Min    *float64
	Max    *float64
}

type RowCountAssertion struct {
	Table string
	Min   *float64
	Max   *float64
}

type SingularAssertion struct {
	SQL SQLSource
}

func (NotNullAssertion) assertion()        {}
func (UniqueAssertion) assertion()         {}
func (AcceptedValuesAssertion) assertion() {}
func (RelationshipsAssertion) assertion()  {}
func (RangeCheckAssertion) assertion()     {}
func (RowCountAssertion) assertion()       {}
func (SingularAssertion) assertion()       {}

// Assertion converts the declarative definition into its typed variant,
// checking that the mandatory fields for the type are present.
func (t TestDefinition) Assertion() (Assertion, error) {
	switch t.Type {
	case TestNotNull:
		if len(t.Columns) == 0 {
			return nil, t.missing("columns")
		}
		return NotNullAssertion{Table: t.Table, Columns: t.Columns}, nil
	case TestUnique:
		if len(t.Columns) == 0 {
			return nil, t.missing("columns")
		}
		return UniqueAssertion{Table: t.Table, Columns: t.Columns}, nil
	case TestAcceptedValues:
		if len(t.Columns) != 1 {
			return nil, t.missing("exactly one column")
		}
		if len(t.Values) == 0 {
			return nil, t.missing("values")
		}
		return AcceptedValuesAssertion{Table: t.Table, Column: t.Columns[0], Values: t.Values}, nil
	case TestRelationships:
		if len(t.Columns) != 1 {
			return nil, t.missing("exactly one column")
		}
		if t.ToTable == "" || t.ToColumn == "" {
			return nil, t.missing("to_table/to_column")
		}
		return RelationshipsAssertion{
			Table: t.Table, Column: t.Columns[0],
			ToTable: t.ToTable, ToColumn: t.ToColumn,
		}, nil
	case TestRangeCheck:
		if len(t.Columns) != 1 {
			return nil, t.missing("exactly one column")
		}
		return RangeCheckAssertion{Table: t.Table, Column: t.Columns[0], Min: t.Min, Max: t.Max}, nil
	case TestRowCount:
		if t.Table == "" {
			return nil, t.missing("table")
		}
		return RowCountAssertion{Table: t.Table, Min: t.Min, Max: t.Max}, nil
	case TestSingular:
		if t.SQL.IsZero() {
			return nil, t.missing("sql or sql_file")
		}
		return SingularAssertion{SQL: t.SQL}, nil
	default:
		return nil, &TestGenerationError{
			Test:    t.Name,
			Message: fmt.Sprintf("unknown test type %q", t.Type),
		}
	}
}

func (t TestDefinition) missing(what string) error {
	return &TestGenerationError{
		Test:    t.Name,
		Message: fmt.Sprintf("%s test requires %s", t.Type, what),
	}
}

// QualityTarget names the dataset or metric a quality spec attaches to.
type QualityTarget struct {
	Kind SpecKind
	Name string
}

// QualitySchedule is an optional cron schedule block.
type QualitySchedule struct {
	Cron     string
	Timezone string
}

// QualityNotification is an optional notification block.
type QualityNotification struct {
	Channel string
	OnFail  bool
}

// QualitySpec is a parsed quality spec file: a target, metadata, and
// the test definitions to run against it.
type QualitySpec struct {
	Target       QualityTarget
	Owner        string
	Team         string
	Description  string
	Tags         []string
	Schedule     *QualitySchedule
	Notification *QualityNotification
	Tests        []TestDefinition
	FilePath     string
}

// ExecutionLocation records where a test ran.
type ExecutionLocation string

const (
	ExecutedLocally  ExecutionLocation = "local"
	ExecutedOnServer ExecutionLocation = "server"
)

// TestResult records one quality test run.
type TestResult struct {
	// TestName is the test's declared name.
	TestName string
	// Resource is the dataset/metric the test targets.
	Resource string
	// Status is the outcome classification.
	Status TestStatus
	// FailedRows is the number of failing rows returned.
	FailedRows int64
	// SampleRows holds a bounded sample of failing rows.
	SampleRows [][]any
	// ElapsedMS is the test's wall-clock duration.
	ElapsedMS int64
	// SQL is the rendered assertion SQL, empty for server runs.
	SQL string
	// ExecutedAt records local vs server execution.
	ExecutedAt ExecutionLocation
	// Error carries the failure message for status error/skipped.
	Error string
}

// QualityReport aggregates a batch of test results.
type QualityReport struct {
	// Resource is the dataset/metric the batch targets.
	Resource string
	// ExecutedAt records local vs server execution.
	ExecutedAt ExecutionLocation
	// Results are the per-test outcomes in execution order.
	Results []TestResult
	// Status is the worst status present across Results.
	Status TestStatus
}

// Finalize computes the aggregate status from the results.
func (r *QualityReport) Finalize() {
	statuses := make([]TestStatus, len(r.Results))
	for i, res := range r.Results {
		statuses[i] = res.Status
	}
	r.Status = WorstStatus(statuses)
}

// PassedCount returns the number of passing results.
func (r *QualityReport) PassedCount() int {
	return r.countStatus(StatusPass)
}

// FailedCount returns the number of failing results.
func (r *QualityReport) FailedCount() int {
	return r.countStatus(StatusFail)
}

func (r *QualityReport) countStatus(status TestStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}
