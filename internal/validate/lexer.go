package validate

import "unicode"

// tokenKind classifies lexer output. The validator only needs a coarse
// token stream, not a parse tree.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenSymbol
	tokenIllegal
)

type token struct {
	kind tokenKind
	text string
	// quoted marks a double-quoted identifier.
	quoted bool
}

// lexer produces a flat token stream from SQL text. Comments and
// whitespace are skipped; single quotes delimit strings and double
// quotes delimit identifiers, with doubled-quote escapes.
type lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *lexer) next() token {
	l.skipWhitespaceAndComments()

	switch {
	case l.ch == 0:
		return token{kind: tokenEOF}
	case l.ch == '\'':
		text, ok := l.readQuoted('\'')
		if !ok {
			return token{kind: tokenIllegal, text: "unterminated string literal"}
		}
		return token{kind: tokenString, text: text}
	case l.ch == '"':
		text, ok := l.readQuoted('"')
		if !ok {
			return token{kind: tokenIllegal, text: "unterminated quoted identifier"}
		}
		return token{kind: tokenIdent, text: text, quoted: true}
	case l.ch == '`':
		text, ok := l.readQuoted('`')
		if !ok {
			return token{kind: tokenIllegal, text: "unterminated quoted identifier"}
		}
		return token{kind: tokenIdent, text: text, quoted: true}
	case isIdentStart(l.ch):
		return token{kind: tokenIdent, text: l.readIdentifier()}
	case isDigit(l.ch):
		return token{kind: tokenNumber, text: l.readNumber()}
	default:
		sym := string(l.ch)
		// Two-character comparison operators.
		if (l.ch == '<' && (l.peekChar() == '=' || l.peekChar() == '>')) ||
			(l.ch == '>' && l.peekChar() == '=') ||
			(l.ch == '!' && l.peekChar() == '=') ||
			(l.ch == '|' && l.peekChar() == '|') {
			sym += string(l.peekChar())
			l.readChar()
		}
		l.readChar()
		return token{kind: tokenSymbol, text: sym}
	}
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}
		return
	}
}

// readQuoted reads a delimited literal, treating a doubled delimiter
// as an escape. Returns ok=false when the closing delimiter is missing.
func (l *lexer) readQuoted(delim byte) (string, bool) {
	l.readChar() // opening delimiter
	var out []byte
	for {
		if l.ch == 0 {
			return string(out), false
		}
		if l.ch == delim {
			if l.peekChar() == delim {
				out = append(out, delim)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing delimiter
			return string(out), true
		}
		out = append(out, l.ch)
		l.readChar()
	}
}

func (l *lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// tokenize returns all tokens including the trailing EOF.
func tokenize(input string) []token {
	l := newLexer(input)
	var tokens []token
	for {
		tok := l.next()
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens
		}
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
