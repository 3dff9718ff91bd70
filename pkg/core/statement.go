package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLSource is a two-variant sum: inline SQL text or a file reference.
// The zero value is neither and fails Resolve.
type SQLSource struct {
	inline string
	file   string
}

// InlineSQL constructs a source from literal SQL text.
func InlineSQL(text string) SQLSource {
	return SQLSource{inline: text}
}

// SQLFile constructs a source referencing a file, relative to the
// spec file's directory unless absolute.
func SQLFile(path string) SQLSource {
	return SQLSource{file: path}
}

// IsZero reports whether neither variant is set.
func (s SQLSource) IsZero() bool {
	return s.inline == "" && s.file == ""
}

// IsFile reports whether the source is a file reference.
func (s SQLSource) IsFile() bool {
	return s.file != ""
}

// FilePath returns the file reference, empty for inline sources.
func (s SQLSource) FilePath() string {
	return s.file
}

// Resolve returns the SQL text. File references are read relative to
// baseDir. An empty source or an unreadable file is a ConfigurationError.
func (s SQLSource) Resolve(baseDir string) (string, error) {
	if s.inline != "" {
		return s.inline, nil
	}
	if s.file == "" {
		return "", &ConfigurationError{Message: "statement has no SQL source"}
	}

	path := s.file
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigurationError{
			Message: fmt.Sprintf("cannot read SQL file %s", path),
			Cause:   err,
		}
	}
	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return "", &ConfigurationError{
			Message: fmt.Sprintf("SQL file %s is empty", path),
		}
	}
	return sql, nil
}

// Statement is one named SQL step within a spec phase.
type Statement struct {
	// Name identifies the statement in results and logs.
	Name string
	// Source is the inline-or-file SQL source.
	Source SQLSource
	// ContinueOnError lets the pipeline proceed past this
	// statement's failure.
	ContinueOnError bool
}
