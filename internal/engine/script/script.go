// Package script executes SQL-like patch scripts against the merged tables.
// Scripts declare the tables they touch in a comment header, then issue
// UPDATE and INSERT statements whose expressions run in each row's scope.
package script

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
)

const (
	headerStart = "-- Tables to import:"
	headerEnd   = "-- End of tables to import."
)

// Script is one parsed patch script.
type Script struct {
	Name string

	// Tables lists the merged tables the script needs, from the header block.
	// The merger treats them as required.
	Tables []string

	statements []statement
}

type statement interface {
	table() string
}

type updateStmt struct {
	tableName   string
	assignments []assignment
	whereSrc    string
}

type assignment struct {
	column string
	source string
}

func (s *updateStmt) table() string { return s.tableName }

type insertStmt struct {
	tableName string
	columns   []string
	values    []string
}

func (s *insertStmt) table() string { return s.tableName }

var paramPattern = regexp.MustCompile(`\$(\w+)`)

// Parse parses a script, substituting $name placeholders from params first.
// A placeholder with no supplied value is domain.ErrMissingParameter.
func Parse(name, src string, params map[string]string) (*Script, error) {
	src, err := substituteParams(name, src, params)
	if err != nil {
		return nil, err
	}

	s := &Script{Name: name, Tables: parseHeader(src)}
	for _, raw := range splitStatements(src) {
		stmt, err := parseStatement(raw)
		if err != nil {
			return nil, zerr.With(err, "script", name)
		}
		if !contains(s.Tables, stmt.table()) {
			return nil, zerr.With(zerr.With(zerr.New("statement targets a table the header does not import"),
				"script", name), "table", stmt.table())
		}
		s.statements = append(s.statements, stmt)
	}
	return s, nil
}

func substituteParams(name, src string, params map[string]string) (string, error) {
	var missing string
	out := paramPattern.ReplaceAllStringFunc(src, func(m string) string {
		key := m[1:]
		v, ok := params[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingParameter, "script placeholder has no value"),
			"script", name), "parameter", missing)
	}
	return out, nil
}

func parseHeader(src string) []string {
	var tables []string
	inHeader := false
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == headerStart:
			inHeader = true
		case line == headerEnd:
			return tables
		case inHeader:
			name := strings.TrimSpace(strings.TrimPrefix(line, "--"))
			if name != "" {
				tables = append(tables, name)
			}
		}
	}
	return tables
}

// splitStatements strips comment lines and splits the remainder on
// semicolons outside quotes.
func splitStatements(src string) []string {
	var sb strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	text := sb.String()
	var (
		out     []string
		current strings.Builder
		quote   byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == ';':
			if s := strings.TrimSpace(current.String()); s != "" {
				out = append(out, s)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

var (
	updatePattern = regexp.MustCompile(`(?is)^UPDATE\s+(\w+)\s+SET\s+(.+?)(?:\s+WHERE\s+(.+))?$`)
	insertPattern = regexp.MustCompile(`(?is)^INSERT\s+INTO\s+(\w+)\s*\(([^)]*)\)\s*VALUES\s*\((.*)\)$`)
	assignPattern = regexp.MustCompile(`(?s)^\s*(\w+)\s*=\s*(.+)$`)
)

func parseStatement(raw string) (statement, error) {
	if m := updatePattern.FindStringSubmatch(raw); m != nil {
		stmt := &updateStmt{tableName: m[1], whereSrc: strings.TrimSpace(m[3])}
		for _, part := range splitTopLevel(m[2]) {
			am := assignPattern.FindStringSubmatch(part)
			if am == nil {
				return nil, zerr.With(zerr.New("malformed SET assignment"), "assignment", part)
			}
			stmt.assignments = append(stmt.assignments, assignment{column: am[1], source: strings.TrimSpace(am[2])})
		}
		if len(stmt.assignments) == 0 {
			return nil, zerr.New("UPDATE with no assignments")
		}
		return stmt, nil
	}

	if m := insertPattern.FindStringSubmatch(raw); m != nil {
		stmt := &insertStmt{tableName: m[1]}
		for _, col := range strings.Split(m[2], ",") {
			stmt.columns = append(stmt.columns, strings.TrimSpace(col))
		}
		stmt.values = splitTopLevel(m[3])
		if len(stmt.columns) != len(stmt.values) {
			return nil, zerr.With(zerr.With(zerr.New("INSERT column/value count mismatch"),
				"columns", len(stmt.columns)), "values", len(stmt.values))
		}
		return stmt, nil
	}

	return nil, zerr.With(zerr.New("unrecognized statement"), "statement", raw)
}

// splitTopLevel splits on commas outside parentheses and quotes.
func splitTopLevel(src string) []string {
	var (
		out     []string
		current strings.Builder
		depth   int
		quote   byte
	)
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == '(':
			depth++
			current.WriteByte(c)
		case c == ')':
			depth--
			current.WriteByte(c)
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
