package script

import (
	"errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// EditLayer is the provenance name recorded for script-produced rows.
const EditLayer = "script"

// Processor executes parsed scripts against the merged tables.
type Processor struct {
	log ports.Logger
}

// NewProcessor creates a script processor.
func NewProcessor(log ports.Logger) *Processor {
	return &Processor{log: log}
}

// Run executes the scripts in order against working clones of the merged
// tables and returns the accumulated edits. Failures isolate per script:
// statements already executed stick, the rest of the failing script is
// abandoned with a warning, and later scripts still run. A duplicate-key
// INSERT only voids its own statement.
func (p *Processor) Run(scripts []*Script, tables domain.MergedTables) (*domain.EditSet, error) {
	set := domain.NewEditSet()
	working := make(domain.MergedTables, len(tables))

	for _, s := range scripts {
		if err := p.runScript(s, tables, working, set); err != nil {
			p.log.Warn("script aborted", "script", s.Name, "error", err)
		}
	}
	return set, nil
}

func (p *Processor) runScript(s *Script, tables, working domain.MergedTables, set *domain.EditSet) error {
	for _, name := range s.Tables {
		if _, ok := working[name]; ok {
			continue
		}
		merged, ok := tables[name]
		if !ok {
			return zerr.With(zerr.New("imported table not merged"), "table", name)
		}
		working[name] = merged.Clone()
	}

	for _, stmt := range s.statements {
		table := working[stmt.table()]
		var err error
		switch st := stmt.(type) {
		case *updateStmt:
			err = p.execUpdate(st, table, set)
		case *insertStmt:
			err = p.execInsert(st, table, set)
		}
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				p.log.Warn("INSERT target key already exists, statement skipped",
					"script", s.Name, "table", stmt.table(), "error", err)
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Processor) execUpdate(st *updateStmt, table *domain.MergedTable, set *domain.EditSet) error {
	where, err := compile(st.whereSrc)
	if err != nil {
		return zerr.With(err, "clause", "WHERE")
	}
	programs := make([]*vm.Program, len(st.assignments))
	for i, a := range st.assignments {
		if table.Schema.Column(a.column) == nil {
			return zerr.With(zerr.New("SET column not in schema"), "column", a.column)
		}
		if programs[i], err = compile(a.source); err != nil {
			return zerr.With(err, "column", a.column)
		}
	}

	edits := set.Table(table.Schema)
	for _, key := range append([]domain.RowKey(nil), table.Keys()...) {
		row, _ := table.Get(key)
		env := rowEnv(row)

		if where != nil {
			match, err := expr.Run(where, env)
			if err != nil {
				return zerr.Wrap(err, "WHERE evaluation failed")
			}
			ok, isBool := match.(bool)
			if !isBool {
				return zerr.New("WHERE clause is not boolean")
			}
			if !ok {
				continue
			}
		}

		edited := row.Clone()
		for i, a := range st.assignments {
			result, err := expr.Run(programs[i], env)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "SET evaluation failed"), "column", a.column)
			}
			value, err := domain.CoerceValue(table.Schema.Column(a.column).Type, result)
			if err != nil {
				return zerr.With(err, "column", a.column)
			}
			edited[a.column] = value
		}
		table.Put(edited, EditLayer)
		edits.Put(edited)
	}
	return nil
}

func (p *Processor) execInsert(st *insertStmt, table *domain.MergedTable, set *domain.EditSet) error {
	row := table.Schema.ZeroRow()
	for i, col := range st.columns {
		def := table.Schema.Column(col)
		if def == nil {
			return zerr.With(zerr.New("INSERT column not in schema"), "column", col)
		}
		program, err := compile(st.values[i])
		if err != nil {
			return zerr.With(err, "column", col)
		}
		result, err := expr.Run(program, map[string]any{})
		if err != nil {
			return zerr.With(zerr.Wrap(err, "VALUES evaluation failed"), "column", col)
		}
		value, err := domain.CoerceValue(def.Type, result)
		if err != nil {
			return zerr.With(err, "column", col)
		}
		row[col] = value
	}

	key := table.Schema.KeyOf(row)
	if _, exists := table.Get(key); exists {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateKey, "INSERT collides with live row"),
			"table", table.Name), "key", string(key))
	}
	table.Put(row, EditLayer)
	set.Table(table.Schema).Put(row)
	return nil
}

func compile(src string) (*vm.Program, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, zerr.Wrap(err, "expression does not compile")
	}
	return program, nil
}

func rowEnv(row domain.Row) map[string]any {
	env := make(map[string]any, len(row))
	for col, v := range row {
		env[col] = v.Native()
	}
	return env
}
