// Package quality generates and runs data-quality tests: SQL for the
// built-in assertion types, a local runner over a QueryExecutor, and
// response mapping for server-delegated runs.
package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// identRe admits plain or dotted SQL identifiers. Anything else is an
// injection risk and is rejected before SQL text is assembled.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

const maxIdentLen = 256

func checkIdent(test, ident string) error {
	if len(ident) > maxIdentLen {
		return &core.TestGenerationError{
			Test:    test,
			Message: fmt.Sprintf("identifier exceeds %d characters", maxIdentLen),
		}
	}
	if !identRe.MatchString(ident) {
		return &core.TestGenerationError{
			Test:    test,
			Message: fmt.Sprintf("invalid identifier %q", ident),
		}
	}
	return nil
}

func checkIdents(test string, idents ...string) error {
	for _, id := range idents {
		if err := checkIdent(test, id); err != nil {
			return err
		}
	}
	return nil
}

// GenerateSQL produces the assertion SQL for a test definition. The
// returned query selects failing rows: an empty result means the test
// passes. Singular tests resolve their SQL relative to baseDir.
func GenerateSQL(def core.TestDefinition, baseDir string) (string, error) {
	assertion, err := def.Assertion()
	if err != nil {
		return "", err
	}

	switch a := assertion.(type) {
	case core.NotNullAssertion:
		return notNullSQL(def.Name, a)
	case core.UniqueAssertion:
		return uniqueSQL(def.Name, a)
	case core.AcceptedValuesAssertion:
		return acceptedValuesSQL(def.Name, a)
	case core.RelationshipsAssertion:
		return relationshipsSQL(def.Name, a)
	case core.RangeCheckAssertion:
		return rangeCheckSQL(def.Name, a)
	case core.RowCountAssertion:
		return rowCountSQL(def.Name, a)
	case core.SingularAssertion:
		return a.SQL.Resolve(baseDir)
	default:
		return "", &core.TestGenerationError{
			Test:    def.Name,
			Message: fmt.Sprintf("no generator for %T", assertion),
		}
	}
}

func notNullSQL(test string, a core.NotNullAssertion) (string, error) {
	if err := checkIdents(test, append([]string{a.Table}, a.Columns...)...); err != nil {
		return "", err
	}
	conds := make([]string, len(a.Columns))
	for i, c := range a.Columns {
		conds[i] = c + " IS NULL"
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s",
		a.Table, strings.Join(conds, " OR ")), nil
}

func uniqueSQL(test string, a core.UniqueAssertion) (string, error) {
	if err := checkIdents(test, append([]string{a.Table}, a.Columns...)...); err != nil {
		return "", err
	}
	cols := strings.Join(a.Columns, ", ")
	return fmt.Sprintf(
		"SELECT %s, COUNT(*) AS occurrences FROM %s GROUP BY %s HAVING COUNT(*) > 1",
		cols, a.Table, cols), nil
}

func acceptedValuesSQL(test string, a core.AcceptedValuesAssertion) (string, error) {
	if err := checkIdents(test, a.Table, a.Column); err != nil {
		return "", err
	}
	quoted := make([]string, len(a.Values))
	for i, v := range a.Values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
		a.Table, a.Column, a.Column, strings.Join(quoted, ", ")), nil
}

func relationshipsSQL(test string, a core.RelationshipsAssertion) (string, error) {
	if err := checkIdents(test, a.Table, a.Column, a.ToTable, a.ToColumn); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT child.* FROM %s child LEFT JOIN %s parent ON child.%s = parent.%s "+
			"WHERE child.%s IS NOT NULL AND parent.%s IS NULL",
		a.Table, a.ToTable, a.Column, a.ToColumn, a.Column, a.ToColumn), nil
}

func rangeCheckSQL(test string, a core.RangeCheckAssertion) (string, error) {
	if err := checkIdents(test, a.Table, a.Column); err != nil {
		return "", err
	}
	var conds []string
	if a.Min != nil {
		conds = append(conds, fmt.Sprintf("%s < %s", a.Column, formatBound(*a.Min)))
	}
	if a.Max != nil {
		conds = append(conds, fmt.Sprintf("%s > %s", a.Column, formatBound(*a.Max)))
	}
	if len(conds) == 0 {
		// No bounds means nothing can fall outside them.
		conds = append(conds, "1 = 0")
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s",
		a.Table, strings.Join(conds, " OR ")), nil
}

func rowCountSQL(test string, a core.RowCountAssertion) (string, error) {
	if err := checkIdent(test, a.Table); err != nil {
		return "", err
	}
	var conds []string
	if a.Min != nil {
		conds = append(conds, "COUNT(*) < "+formatBound(*a.Min))
	}
	if a.Max != nil {
		conds = append(conds, "COUNT(*) > "+formatBound(*a.Max))
	}
	if len(conds) == 0 {
		conds = append(conds, "1 = 0")
	}
	return fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s HAVING %s",
		a.Table, strings.Join(conds, " OR ")), nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
