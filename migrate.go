package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
)

type runStage int

const (
	StageIntrospecting runStage = iota
	StageCreatingSchema
	StageLoadingData
	StageCreatingConstraints
	StageDone
)

func (s runStage) String() string {
	switch s {
	case StageIntrospecting:
		return "introspecting"
	case StageCreatingSchema:
		return "creating schema"
	case StageLoadingData:
		return "loading data"
	case StageCreatingConstraints:
		return "creating constraints"
	case StageDone:
		return "done"
	}
	return "unknown"
}

type RunOutcome int

const (
	OutcomeDone RunOutcome = iota
	OutcomePartiallyDone
	OutcomeFailed
)

func (o RunOutcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomePartiallyDone:
		return "partially done"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// TableResult records one table's migration outcome.
type TableResult struct {
	Name        string
	RowsRead    int64
	RowsWritten int64
	Skipped     []rowSkip
	Err         error
}

// RunReport is the full account of a migration run: per-table outcomes,
// per-constraint outcomes, compatibility warnings, and the stage the run
// ended in. A structural failure sets Err and Outcome=Failed; per-table
// failures leave Err nil and degrade the outcome to PartiallyDone.
type RunReport struct {
	Outcome     RunOutcome
	Stage       runStage
	Tables      []TableResult
	Constraints []ConstraintResult
	Warnings    []string
	Err         error
	Duration    time.Duration
}

type migrator struct {
	cfg    *MigrationConfig
	target *sql.DB
	conn   *sql.Conn
	schema *Schema
	stage  runStage

	report  *RunReport
	failed  map[string]bool
	order   []string
	results map[string]*TableResult
}

func newMigrator(cfg *MigrationConfig) *migrator {
	return &migrator{
		cfg:     cfg,
		failed:  map[string]bool{},
		results: map[string]*TableResult{},
	}
}

// run drives the whole pipeline and always returns a report, even when the
// run fails structurally partway through.
func (m *migrator) run(ctx context.Context) *RunReport {
	start := time.Now()
	m.report = &RunReport{}

	err := m.execute(ctx)
	m.report.Duration = time.Since(start)
	for _, name := range m.order {
		m.report.Tables = append(m.report.Tables, *m.results[name])
	}
	if err != nil {
		m.report.Err = err
		m.report.Outcome = OutcomeFailed
	} else {
		m.stage = StageDone
		m.report.Outcome = m.outcome()
	}
	// On failure m.stage still names the stage execute bailed in, so the
	// report can say where the run died.
	m.report.Stage = m.stage
	return m.report
}

func (m *migrator) execute(ctx context.Context) error {
	cfg := m.cfg

	// Stage 1: introspect the source and commit target types up front.
	m.stage = StageIntrospecting
	log.Printf("introspecting source %s...", cfg.Source.Path)

	source, err := openSource(cfg.Source.Path)
	if err != nil {
		return err
	}
	defer source.Close()

	m.schema, err = introspectSchema(source, cfg)
	if err != nil {
		return err
	}
	log.Printf("found %d tables", len(m.schema.Tables))
	for i := range m.schema.Tables {
		t := &m.schema.Tables[i]
		log.Printf("  %s (%d cols, %d indexes, %d fks, %d rows)",
			t.Name, len(t.Columns), len(t.Indexes), len(t.ForeignKeys), t.RowCount)
	}

	objs, err := introspectSourceObjects(source)
	if err != nil {
		return err
	}
	m.warn(sourceObjectWarnings(objs))
	m.warn(collectGeneratedColumnWarnings(m.schema))
	m.warn(collectIndexCompatibilityWarnings(m.schema))

	if mapErrs := resolveTargetTypes(m.schema); len(mapErrs) > 0 {
		log.Printf("type mapping report: %d column(s) have no usable target type", len(mapErrs))
		for _, line := range formatTypeMappingErrors(mapErrs) {
			log.Printf("  FAIL: %s", line)
		}
		return fmt.Errorf("%d column(s) could not be mapped to a target type", len(mapErrs))
	}
	m.warn(collectNarrowingWarnings(m.schema))

	// Stage 2: connect to the target and create bare tables.
	m.stage = StageCreatingSchema
	log.Printf("connecting to target...")
	dsn, err := targetDSN(cfg.Target)
	if err != nil {
		return err
	}
	m.target, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer m.target.Close()

	if err := m.target.PingContext(ctx); err != nil {
		return fmt.Errorf("ping target: %w", err)
	}

	// All target work runs on one connection so session state, foreign key
	// checks in particular, actually applies to it.
	m.conn, err = m.target.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire target connection: %w", err)
	}
	defer m.conn.Close()

	if _, err := m.conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
		return fmt.Errorf("disable foreign key checks: %w", err)
	}

	if err := m.prepareTargetTables(ctx); err != nil {
		return err
	}

	log.Printf("creating %d tables...", len(m.schema.Tables))
	m.createTables(ctx)

	if err := loadAndExecSQLFiles(ctx, m.conn, cfg, cfg.Hooks.BeforeData, "before_data"); err != nil {
		return err
	}

	// Stage 3: stream data in dependency order.
	m.stage = StageLoadingData
	ordered, cyclic := sortTablesByDependency(m.schema.Tables)
	if len(cyclic) > 0 {
		m.warn([]string{fmt.Sprintf(
			"foreign key cycle involving %s; loading these tables in source order with checks disabled",
			strings.Join(cyclic, ", "))})
	}
	log.Printf("loading data (batch_size=%d)...", cfg.BatchSize)
	if err := m.loadData(ctx, source, ordered); err != nil {
		return err
	}

	if err := loadAndExecSQLFiles(ctx, m.conn, cfg, cfg.Hooks.AfterData, "after_data"); err != nil {
		return err
	}
	if err := loadAndExecSQLFiles(ctx, m.conn, cfg, cfg.Hooks.BeforeConstraints, "before_constraints"); err != nil {
		return err
	}

	// Stage 4: deferred indexes and foreign keys.
	m.stage = StageCreatingConstraints
	stmts := constraintStatements(m.schema, cfg, m.failed)
	log.Printf("creating %d deferred constraints...", len(stmts))
	m.report.Constraints = applyConstraints(ctx, m.conn, stmts)

	if _, err := m.conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1"); err != nil {
		return fmt.Errorf("re-enable foreign key checks: %w", err)
	}

	return loadAndExecSQLFiles(ctx, m.conn, cfg, cfg.Hooks.AfterAll, "after_all")
}

// prepareTargetTables applies the on_table_exists policy before any DDL runs.
func (m *migrator) prepareTargetTables(ctx context.Context) error {
	dbName := m.cfg.Target.DBName()
	var existing []string
	for i := range m.schema.Tables {
		name := m.schema.Tables[i].Name
		var found int
		err := m.conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			dbName, name).Scan(&found)
		if err != nil {
			return fmt.Errorf("check table existence: %w", err)
		}
		if found > 0 {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	switch m.cfg.OnTableExists {
	case "recreate":
		for _, name := range existing {
			log.Printf("  dropping existing table %s", name)
			if _, err := m.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+mysqlIdent(name)); err != nil {
				return fmt.Errorf("drop table %s: %w", name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("target already contains tables: %s (on_table_exists=error)",
			strings.Join(existing, ", "))
	}
}

// createTables runs phase-1 DDL. A failed CREATE marks the table and its
// dependents are sorted out later; siblings still get created.
func (m *migrator) createTables(ctx context.Context) {
	for i := range m.schema.Tables {
		t := &m.schema.Tables[i]
		res := m.tableResult(t.Name)
		if _, err := m.conn.ExecContext(ctx, generateCreateTable(t, m.cfg)); err != nil {
			res.Err = &TargetWriteError{Table: t.Name, BatchOffset: -1, Err: err}
			m.failed[t.Name] = true
			log.Printf("  FAIL create %s: %v", t.Name, err)
		}
	}
}

func (m *migrator) loadData(ctx context.Context, source *sql.DB, ordered []Table) error {
	ui := newProgressUI(m.cfg.Progress)
	defer ui.stop()

	for i := range ordered {
		t := m.schema.Table(ordered[i].Name)
		res := m.tableResult(t.Name)
		if m.failed[t.Name] {
			continue
		}

		exporter := newTableExporter(source, t, m.cfg)
		bar := ui.tableBar(t.Name, t.RowCount)

		written, err := loadTable(ctx, m.conn, exporter, bar)
		res.RowsRead = exporter.rowsRead()
		res.RowsWritten = written
		res.Skipped = exporter.skipped

		if err == nil {
			err = advanceAutoIncrement(ctx, m.conn, t)
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			if m.cfg.OnValueError == "abort_run" {
				if _, ok := err.(*ValueConversionError); ok {
					return err
				}
			}
			res.Err = err
			m.failed[t.Name] = true
			log.Printf("  FAIL load %s after %d rows: %v", t.Name, written, err)
			continue
		}
		if len(res.Skipped) > 0 {
			log.Printf("  %s: %d rows written, %d skipped", t.Name, written, len(res.Skipped))
		}
	}
	return nil
}

// tableResult returns the result slot for a table, creating it in report
// order on first use.
func (m *migrator) tableResult(name string) *TableResult {
	if res, ok := m.results[name]; ok {
		return res
	}
	res := &TableResult{Name: name}
	m.order = append(m.order, name)
	m.results[name] = res
	return res
}

func (m *migrator) warn(lines []string) {
	for _, w := range lines {
		log.Printf("  WARN: %s", w)
		m.report.Warnings = append(m.report.Warnings, w)
	}
}

func (m *migrator) outcome() RunOutcome {
	for i := range m.report.Tables {
		if m.report.Tables[i].Err != nil || len(m.report.Tables[i].Skipped) > 0 {
			return OutcomePartiallyDone
		}
	}
	for _, c := range m.report.Constraints {
		if c.Err != nil {
			return OutcomePartiallyDone
		}
	}
	return OutcomeDone
}
