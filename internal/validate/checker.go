package validate

import (
	"fmt"
	"strings"
)

// SyntaxChecker is the dialect-aware syntax capability the validator
// calls out to. Implementations may wrap a real dialect parser; the
// validator never parses SQL itself.
type SyntaxChecker interface {
	// Check returns nil when sql is acceptable for the dialect.
	Check(sql, dialect string) error
}

// statementKeywords are the keywords a statement may begin with.
var statementKeywords = map[string]struct{}{
	"select": {}, "with": {}, "insert": {}, "update": {}, "delete": {},
	"merge": {}, "create": {}, "drop": {}, "alter": {}, "truncate": {},
	"describe": {}, "show": {}, "explain": {},
}

// dialectKeywords are extra statement keywords per dialect.
var dialectKeywords = map[string]map[string]struct{}{
	"trino":  {"analyze": {}, "optimize": {}},
	"spark":  {"analyze": {}, "optimize": {}, "vacuum": {}, "msck": {}},
	"hive":   {"analyze": {}, "msck": {}},
	"duckdb": {"analyze": {}, "copy": {}, "pragma": {}},
}

// BasicSyntaxChecker is the default SyntaxChecker: token-level sanity
// checks (balanced parentheses, terminated literals, a recognized
// leading keyword) without building a parse tree.
type BasicSyntaxChecker struct{}

// Check implements SyntaxChecker.
func (BasicSyntaxChecker) Check(sql, dialect string) error {
	tokens := tokenize(sql)
	if len(tokens) == 1 { // EOF only
		return fmt.Errorf("empty statement")
	}

	first := tokens[0]
	if first.kind != tokenIdent || first.quoted {
		return fmt.Errorf("statement must begin with a keyword, got %q", first.text)
	}
	keyword := strings.ToLower(first.text)
	if !isStatementKeyword(keyword, dialect) {
		return fmt.Errorf("unknown statement keyword %q", first.text)
	}

	depth := 0
	for _, tok := range tokens {
		switch {
		case tok.kind == tokenIllegal:
			return fmt.Errorf("%s", tok.text)
		case tok.kind == tokenSymbol && tok.text == "(":
			depth++
		case tok.kind == tokenSymbol && tok.text == ")":
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced closing parenthesis")
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed parenthesis(es)", depth)
	}
	return nil
}

func isStatementKeyword(keyword, dialect string) bool {
	if _, ok := statementKeywords[keyword]; ok {
		return true
	}
	if extra, ok := dialectKeywords[strings.ToLower(dialect)]; ok {
		if _, ok := extra[keyword]; ok {
			return true
		}
	}
	return false
}
