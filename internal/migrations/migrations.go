package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"socialdash-initdb/internal/models"
)

//go:embed sql/*.sql
var files embed.FS

// advisoryLockKey serializes concurrent appliers on the same database.
const advisoryLockKey int64 = 0x736f6369616c64

// Step is a single statement and its bind parameters.
type Step struct {
	SQL  string
	Args []interface{}
}

// Migration is an ordered group of steps applied in one transaction and
// recorded in schema_migrations under Name.
type Migration struct {
	Name  string
	Steps []Step
}

// Execer is satisfied by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// StepError reports the first statement that failed.
type StepError struct {
	Migration string
	Index     int
	Total     int
	SQL       string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("apply %s [%d/%d] %s: %v", e.Migration, e.Index, e.Total, summarize(e.SQL), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Schema returns the embedded DDL migrations in apply order.
func Schema() ([]Migration, error) {
	return Load(files, "sql")
}

// Load reads every .sql file in dir and splits it into statements.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	migs := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		stmts := splitStatements(string(content))
		steps := make([]Step, 0, len(stmts))
		for _, stmt := range stmts {
			steps = append(steps, Step{SQL: stmt})
		}
		migs = append(migs, Migration{Name: entry.Name(), Steps: steps})
	}
	sortMigrations(migs)
	return migs, nil
}

// Apply runs every migration not yet recorded in the ledger and returns how
// many were applied. It stops at the first failing statement; that
// migration is rolled back and left unrecorded.
func Apply(ctx context.Context, db *sqlx.DB, migs []Migration) (int, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return 0, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()

	if err := ensureTable(ctx, conn); err != nil {
		return 0, err
	}
	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return 0, err
	}

	ordered := append([]Migration(nil), migs...)
	sortMigrations(ordered)
	count := 0
	for _, mig := range ordered {
		if applied.has(mig.Name) {
			log.Printf("migrations: %s already applied", mig.Name)
			continue
		}
		if err := applyMigration(ctx, conn, mig); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Exec runs steps in order against exec, logging a trace line per statement.
func Exec(ctx context.Context, exec Execer, name string, steps []Step) error {
	for i, step := range steps {
		log.Printf("migrations: %s [%d/%d] %s", name, i+1, len(steps), summarize(step.SQL))
		if _, err := exec.ExecContext(ctx, step.SQL, step.Args...); err != nil {
			return &StepError{Migration: name, Index: i + 1, Total: len(steps), SQL: step.SQL, Err: err}
		}
	}
	return nil
}

// Applied lists the ledger in apply order. A database without a ledger has
// nothing applied.
func Applied(ctx context.Context, db sqlx.QueryerContext) ([]models.SchemaMigration, error) {
	exists, err := ledgerExists(ctx, db)
	if err != nil || !exists {
		return nil, err
	}
	rows := []models.SchemaMigration{}
	err = sqlx.SelectContext(ctx, db, &rows, `
SELECT version, name, applied_at
FROM schema_migrations
ORDER BY applied_at, id
`)
	return rows, err
}

// Pending returns the names from migs that the ledger does not record.
func Pending(ctx context.Context, db sqlx.QueryerContext, migs []Migration) ([]string, error) {
	exists, err := ledgerExists(ctx, db)
	if err != nil {
		return nil, err
	}
	applied := appliedSet{names: map[string]bool{}, versions: map[string]bool{}}
	if exists {
		if applied, err = appliedMigrations(ctx, db); err != nil {
			return nil, err
		}
	}
	ordered := append([]Migration(nil), migs...)
	sortMigrations(ordered)
	names := []string{}
	for _, mig := range ordered {
		if !applied.has(mig.Name) {
			names = append(names, mig.Name)
		}
	}
	return names, nil
}

func applyMigration(ctx context.Context, conn *sqlx.Conn, mig Migration) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", mig.Name, err)
	}
	if err := Exec(ctx, tx, mig.Name, mig.Steps); err != nil {
		_ = tx.Rollback()
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		nullIfEmpty(parseVersion(mig.Name)), mig.Name)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record %s: %w", mig.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", mig.Name, err)
	}
	log.Printf("migrations: %s applied", mig.Name)
	return nil
}

func ensureTable(ctx context.Context, exec Execer) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  version TEXT NULL,
  name TEXT NULL,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`ALTER TABLE schema_migrations ADD COLUMN IF NOT EXISTS name TEXT`,
		`ALTER TABLE schema_migrations ADD COLUMN IF NOT EXISTS version TEXT`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_schema_migrations_name ON schema_migrations(name) WHERE name IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_schema_migrations_version ON schema_migrations(version) WHERE version IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema_migrations: %w", err)
		}
	}
	return nil
}

func ledgerExists(ctx context.Context, db sqlx.QueryerContext) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, db, &exists, `
SELECT EXISTS(
  SELECT 1 FROM information_schema.tables
  WHERE table_schema = current_schema() AND table_name = 'schema_migrations'
)`)
	return exists, err
}

type appliedSet struct {
	names    map[string]bool
	versions map[string]bool
}

func (a appliedSet) has(name string) bool {
	version := parseVersion(name)
	return a.names[name] || (version != "" && a.versions[version])
}

func appliedMigrations(ctx context.Context, db sqlx.QueryerContext) (appliedSet, error) {
	names := map[string]bool{}
	versions := map[string]bool{}
	rows := []string{}
	if err := sqlx.SelectContext(ctx, db, &rows, `SELECT name FROM schema_migrations WHERE name IS NOT NULL`); err != nil {
		return appliedSet{}, err
	}
	for _, name := range rows {
		names[name] = true
	}
	versionRows := []string{}
	if err := sqlx.SelectContext(ctx, db, &versionRows, `SELECT version FROM schema_migrations WHERE version IS NOT NULL`); err != nil {
		return appliedSet{}, err
	}
	for _, version := range versionRows {
		versions[version] = true
	}
	return appliedSet{names: names, versions: versions}, nil
}

// splitStatements breaks a script at lines ending in ';'. Comment-only lines
// are dropped. Dollar-quoted bodies are not supported.
func splitStatements(content string) []string {
	stmts := []string{}
	current := []string{}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || (trimmed == "" && len(current) == 0) {
			continue
		}
		current = append(current, strings.TrimRight(line, " \t\r"))
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(strings.Join(current, "\n")))
			current = current[:0]
		}
	}
	if rest := strings.TrimSpace(strings.Join(current, "\n")); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

func summarize(stmt string) string {
	line := strings.TrimSpace(stmt)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx]) + " ..."
	}
	if len(line) > 96 {
		line = line[:93] + "..."
	}
	return line
}

func sortMigrations(migs []Migration) {
	sort.SliceStable(migs, func(i, j int) bool {
		iVersion, iOk := parseVersionNumber(migs[i].Name)
		jVersion, jOk := parseVersionNumber(migs[j].Name)
		switch {
		case iOk && jOk && iVersion != jVersion:
			return iVersion < jVersion
		case iOk != jOk:
			return iOk
		default:
			return migs[i].Name < migs[j].Name
		}
	})
}

func parseVersion(name string) string {
	if !strings.HasPrefix(name, "V") {
		return ""
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func parseVersionNumber(name string) (int, bool) {
	raw := parseVersion(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func nullIfEmpty(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
