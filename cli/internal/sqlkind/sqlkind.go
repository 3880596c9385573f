// Package sqlkind tells read-only SQL apart from statements that change data
// or schema, so the CLI can ask before running the latter.
package sqlkind

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind classifies a statement
type Kind int

const (
	Empty Kind = iota
	Read
	Write
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "empty"
	}
}

// SQLLexer tokenizes just enough SQL to find statement keywords. Comments,
// string literals and quoted identifiers are single tokens so keywords
// inside them are never seen.
var SQLLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `[EeBbXxNn]?'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`[^`]*`"},
	{Name: "DollarString", Pattern: `\$\$(?s:.*?)\$\$`},
	{Name: "Param", Pattern: `\$\d+|\?|:[A-Za-z_]\w*`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Number", Pattern: `\d+(?:\.\d*)?(?:[eE][-+]?\d+)?`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Punct", Pattern: `::|<>|<=|>=|!=|\|\||[-+*/%,().=<>\[\]:|&^~!@#{}]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var (
	identToken     = SQLLexer.Symbols()["Ident"]
	commentToken   = SQLLexer.Symbols()["Comment"]
	semicolonToken = SQLLexer.Symbols()["Semicolon"]
	spaceToken     = SQLLexer.Symbols()["Whitespace"]
	punctToken     = SQLLexer.Symbols()["Punct"]
)

// readKeywords start statements that never modify data
var readKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"VALUES":   true,
	"TABLE":    true,
	"WITH":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
}

// writeKeywords make a WITH, SELECT or EXPLAIN ANALYZE statement a write
var writeKeywords = map[string]bool{
	"INSERT": true,
	"UPDATE": true,
	"DELETE": true,
	"MERGE":  true,
	"INTO":   true,
}

// Statement is one statement of a script
type Statement struct {
	// Text is the statement with comments dropped and whitespace collapsed
	Text    string
	Keyword string
	Kind    Kind
}

// Split breaks a script into statements and classifies each one
func Split(sql string) ([]Statement, error) {
	lex, err := SQLLexer.LexString("", sql)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize SQL: %w", err)
	}

	var statements []Statement
	var current []lexer.Token
	flush := func() {
		if stmt, ok := classify(current); ok {
			statements = append(statements, stmt)
		}
		current = current[:0]
	}

	for _, tok := range tokens {
		switch {
		case tok.EOF():
			flush()
		case tok.Type == semicolonToken:
			flush()
		case tok.Type == commentToken:
			current = append(current, lexer.Token{Type: spaceToken, Value: " "})
		default:
			current = append(current, tok)
		}
	}

	return statements, nil
}

// Classify returns Write if any statement of sql writes, Read if all of
// them only read and Empty if there are none.
func Classify(sql string) (Kind, error) {
	statements, err := Split(sql)
	if err != nil {
		return Empty, err
	}

	kind := Empty
	for _, stmt := range statements {
		if stmt.Kind > kind {
			kind = stmt.Kind
		}
	}
	return kind, nil
}

func classify(tokens []lexer.Token) (Statement, bool) {
	var text strings.Builder
	var words []string
	for _, tok := range tokens {
		text.WriteString(tok.Value)
		if tok.Type == identToken {
			words = append(words, strings.ToUpper(tok.Value))
		}
	}

	stmt := Statement{Text: collapseSpace(text.String())}
	if stmt.Text == "" {
		return stmt, false
	}
	if len(words) == 0 {
		// "(" ... ")" with no keywords is not something we understand
		stmt.Kind = Write
		return stmt, true
	}

	stmt.Keyword = words[0]
	stmt.Kind = Write
	if !readKeywords[stmt.Keyword] {
		return stmt, true
	}

	switch stmt.Keyword {
	case "EXPLAIN":
		if !contains(words, "ANALYZE") && !contains(words, "ANALYSE") {
			stmt.Kind = Read
			return stmt, true
		}
	case "PRAGMA":
		// PRAGMA name = value changes settings
		if hasPunct(tokens, "=") {
			return stmt, true
		}
		stmt.Kind = Read
		return stmt, true
	}

	for _, w := range words[1:] {
		if writeKeywords[w] {
			return stmt, true
		}
	}
	stmt.Kind = Read
	return stmt, true
}

func contains(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

func hasPunct(tokens []lexer.Token, value string) bool {
	for _, tok := range tokens {
		if tok.Type == punctToken && tok.Value == value {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
