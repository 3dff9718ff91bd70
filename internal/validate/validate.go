// Package validate checks rendered SQL before anything executes.
//
// Syntax checking is delegated to a SyntaxChecker (dialect parsing is
// an external capability, not reimplemented here). On top of a passing
// check the validator runs a fixed set of static checks that produce
// warnings, and can extract referenced table and column identifiers
// for tooling.
package validate

import (
	"sort"
	"strings"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// Warning codes emitted by the static checks.
const (
	WarnSelectStar = "select_star"
	WarnNoLimit    = "no_limit"
)

// Validator validates rendered SQL statements for one dialect.
type Validator struct {
	checker SyntaxChecker
	dialect string
	strict  bool
}

// New creates a validator. A nil checker falls back to the
// BasicSyntaxChecker.
func New(checker SyntaxChecker, dialect string, strict bool) *Validator {
	if checker == nil {
		checker = BasicSyntaxChecker{}
	}
	return &Validator{checker: checker, dialect: dialect, strict: strict}
}

// Validate classifies one rendered statement. Warnings never fail the
// statement unless the validator is strict, in which case they are
// escalated into the error and the warning list comes back empty.
func (v *Validator) Validate(sql string, phase core.Phase, stmtName string) core.ValidationResult {
	result := core.ValidationResult{Phase: phase, StatementName: stmtName}

	if err := v.checker.Check(sql, v.dialect); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Valid = true

	warnings := staticChecks(sql)
	if v.strict && len(warnings) > 0 {
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = w.Message
		}
		result.Valid = false
		result.Error = "strict mode: " + strings.Join(msgs, "; ")
		return result
	}
	result.Warnings = warnings
	return result
}

// staticChecks runs the fixed warning checks against a statement that
// already passed the syntax check.
func staticChecks(sql string) []core.ValidationWarning {
	tokens := tokenize(sql)
	var warnings []core.ValidationWarning

	if hasSelectStar(tokens) {
		warnings = append(warnings, core.ValidationWarning{
			Code:    WarnSelectStar,
			Message: "unresolved wildcard projection (SELECT *)",
		})
	}
	if returnsRows(tokens) && !hasKeyword(tokens, "limit") {
		warnings = append(warnings, core.ValidationWarning{
			Code:    WarnNoLimit,
			Message: "result-returning statement has no row-limiting clause",
		})
	}
	return warnings
}

// returnsRows reports whether the statement's leading keyword makes it
// result-returning.
func returnsRows(tokens []token) bool {
	if len(tokens) == 0 || tokens[0].kind != tokenIdent {
		return false
	}
	switch strings.ToLower(tokens[0].text) {
	case "select", "with", "show", "describe":
		return true
	default:
		return false
	}
}

// hasSelectStar detects a bare * or alias.* directly in a projection.
func hasSelectStar(tokens []token) bool {
	for i, tok := range tokens {
		if tok.kind != tokenSymbol || tok.text != "*" {
			continue
		}
		if i == 0 {
			continue
		}
		prev := tokens[i-1]
		// SELECT *, or ", *", or "alias.*"
		if prev.kind == tokenIdent && !prev.quoted && strings.EqualFold(prev.text, "select") {
			return true
		}
		if prev.kind == tokenSymbol && (prev.text == "," || prev.text == ".") {
			return true
		}
	}
	return false
}

func hasKeyword(tokens []token, keyword string) bool {
	for _, tok := range tokens {
		if tok.kind == tokenIdent && !tok.quoted && strings.EqualFold(tok.text, keyword) {
			return true
		}
	}
	return false
}

// ExtractTables returns the deduplicated, sorted set of table names
// referenced after FROM, JOIN, INTO, UPDATE, and TABLE keywords.
// Case is preserved as written.
func ExtractTables(sql string) []string {
	tokens := tokenize(sql)
	seen := make(map[string]struct{})

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenIdent || tok.quoted {
			continue
		}
		switch strings.ToLower(tok.text) {
		case "from", "join", "into", "update", "table":
		default:
			continue
		}
		// A parenthesized subquery after FROM is not a table name.
		name, next := readQualifiedName(tokens, i+1)
		if name != "" {
			seen[name] = struct{}{}
			i = next - 1
		}
	}

	return sortedKeys(seen)
}

// ExtractColumns returns the deduplicated, sorted set of column
// identifiers: the final segment of qualified names plus unqualified
// identifiers in projection and predicate positions.
func ExtractColumns(sql string) []string {
	tokens := tokenize(sql)
	seen := make(map[string]struct{})

	// Table names (and aliases directly after them) are excluded.
	tables := make(map[string]struct{})
	for _, t := range ExtractTables(sql) {
		tables[strings.ToLower(t)] = struct{}{}
		if idx := strings.LastIndex(t, "."); idx >= 0 {
			tables[strings.ToLower(t[idx+1:])] = struct{}{}
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenIdent {
			continue
		}
		lower := strings.ToLower(tok.text)
		if !tok.quoted && sqlReserved(lower) {
			// Skip the identifier following these keywords: table
			// positions, aliases, and function-ish constructs.
			if lower == "from" || lower == "join" || lower == "into" ||
				lower == "update" || lower == "table" || lower == "as" {
				_, next := readQualifiedName(tokens, i+1)
				next = skipAlias(tokens, next)
				i = next - 1
			}
			continue
		}
		// Function call, not a column.
		if i+1 < len(tokens) && tokens[i+1].kind == tokenSymbol && tokens[i+1].text == "(" {
			continue
		}

		// Walk a dotted chain; the last segment is the column.
		name, next := readQualifiedNameAt(tokens, i)
		if name == "" {
			continue
		}
		last := name[strings.LastIndex(name, ".")+1:]
		if last == "*" {
			i = next - 1
			continue
		}
		if _, isTable := tables[strings.ToLower(name)]; !isTable {
			seen[last] = struct{}{}
		}
		i = next - 1
	}

	return sortedKeys(seen)
}

// readQualifiedName reads a dotted identifier chain starting at index
// start, returning the joined name and the index after it. Returns an
// empty name when start is not an identifier.
func readQualifiedName(tokens []token, start int) (string, int) {
	if start >= len(tokens) || tokens[start].kind != tokenIdent {
		return "", start
	}
	if !tokens[start].quoted && sqlReserved(strings.ToLower(tokens[start].text)) {
		return "", start
	}
	return readQualifiedNameAt(tokens, start)
}

func readQualifiedNameAt(tokens []token, start int) (string, int) {
	parts := []string{tokens[start].text}
	i := start + 1
	for i+1 < len(tokens) &&
		tokens[i].kind == tokenSymbol && tokens[i].text == "." {
		next := tokens[i+1]
		if next.kind == tokenIdent {
			parts = append(parts, next.text)
			i += 2
			continue
		}
		if next.kind == tokenSymbol && next.text == "*" {
			parts = append(parts, "*")
			i += 2
		}
		break
	}
	return strings.Join(parts, "."), i
}

// sqlReserved covers the keywords the extractors must not mistake for
// identifiers. Not a full reserved-word list; only what projection and
// predicate positions can contain.
func sqlReserved(word string) bool {
	switch word {
	case "select", "from", "where", "join", "inner", "left", "right", "full",
		"outer", "cross", "on", "and", "or", "not", "in", "is", "null",
		"like", "between", "as", "group", "by", "order", "having", "limit",
		"offset", "union", "all", "distinct", "insert", "into", "values",
		"update", "set", "delete", "create", "drop", "alter", "table",
		"with", "case", "when", "then", "else", "end", "asc", "desc",
		"exists", "merge", "using", "true", "false", "cast", "over",
		"partition", "rows", "current_date", "current_timestamp", "interval":
		return true
	default:
		return false
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// skipAlias consumes a bare table alias following a table name.
func skipAlias(tokens []token, i int) int {
	if i < len(tokens) && tokens[i].kind == tokenIdent &&
		!sqlReserved(strings.ToLower(tokens[i].text)) {
		return i + 1
	}
	return i
}
