package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys; restrict/cascade rules depend on it
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn inside a transaction. Content writes and index
// synchronization always share one transaction so a crash cannot leave
// them inconsistent.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Validation helpers

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// exists runs an EXISTS check with the given condition and args
func exists(ctx context.Context, q querier, query string, args ...interface{}) (bool, error) {
	var found bool
	err := q.QueryRowContext(ctx, query, args...).Scan(&found)
	return found, err
}

func validateCategory(ctx context.Context, q querier, c *Category) error {
	var msgs []string
	if blank(c.NameEN) {
		msgs = append(msgs, "name_en can't be blank")
	} else {
		taken, err := exists(ctx, q, `
			SELECT EXISTS(
				SELECT 1 FROM categories
				WHERE name_en = ? COLLATE NOCASE AND deleted_on IS NULL AND id <> ?
			)`, c.NameEN, c.ID)
		if err != nil {
			return err
		}
		if taken {
			msgs = append(msgs, "name_en has already been taken")
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func validateTerm(ctx context.Context, q querier, t *Term) error {
	var msgs []string
	if blank(t.EN) {
		msgs = append(msgs, "en can't be blank")
	}
	if blank(t.RU) {
		msgs = append(msgs, "ru can't be blank")
	}
	catOK, err := exists(ctx, q, "SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)", t.CategoryID)
	if err != nil {
		return err
	}
	if !catOK {
		msgs = append(msgs, "category must exist")
	}
	if !blank(t.EN) && catOK {
		// Uniqueness is scoped to active siblings of the same category
		taken, err := exists(ctx, q, `
			SELECT EXISTS(
				SELECT 1 FROM terms
				WHERE category_id = ? AND en = ? COLLATE NOCASE
				  AND deleted_on IS NULL AND id <> ?
			)`, t.CategoryID, t.EN, t.ID)
		if err != nil {
			return err
		}
		if taken {
			msgs = append(msgs, "en has already been taken")
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func validateCommand(ctx context.Context, q querier, c *Command) error {
	var msgs []string
	if blank(c.Title) {
		msgs = append(msgs, "title can't be blank")
	}
	catOK, err := exists(ctx, q, "SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)", c.CategoryID)
	if err != nil {
		return err
	}
	if !catOK {
		msgs = append(msgs, "category must exist")
	}
	if !blank(c.Title) && catOK {
		taken, err := exists(ctx, q, `
			SELECT EXISTS(
				SELECT 1 FROM commands
				WHERE category_id = ? AND title = ? COLLATE NOCASE
				  AND deleted_on IS NULL AND id <> ?
			)`, c.CategoryID, c.Title, c.ID)
		if err != nil {
			return err
		}
		if taken {
			msgs = append(msgs, "title has already been taken")
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func validateExample(ctx context.Context, q querier, e *Example) error {
	var msgs []string
	if blank(e.Title) {
		msgs = append(msgs, "title can't be blank")
	}
	cmdOK, err := exists(ctx, q, "SELECT EXISTS(SELECT 1 FROM commands WHERE id = ?)", e.CommandID)
	if err != nil {
		return err
	}
	if !cmdOK {
		msgs = append(msgs, "command must exist")
	}
	if !blank(e.Title) && cmdOK {
		taken, err := exists(ctx, q, `
			SELECT EXISTS(
				SELECT 1 FROM examples
				WHERE command_id = ? AND title = ? COLLATE NOCASE
				  AND deleted_on IS NULL AND id <> ?
			)`, e.CommandID, e.Title, e.ID)
		if err != nil {
			return err
		}
		if taken {
			msgs = append(msgs, "title has already been taken")
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// Category operations

func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *Category) error {
	return s.withTx(ctx, func(q querier) error {
		if err := validateCategory(ctx, q, category); err != nil {
			return err
		}
		now := time.Now()
		result, err := q.ExecContext(ctx, `
			INSERT INTO categories (name_en, name_ru, created_at, updated_at, deleted_on)
			VALUES (?, ?, ?, ?, ?)
		`, category.NameEN, category.NameRU, now, now, deletedArg(category.DeletedOn))
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		category.ID = id
		category.CreatedAt = now
		category.UpdatedAt = now
		return nil
	})
}

func (s *SQLiteStorage) GetCategory(ctx context.Context, id int64) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name_en, name_ru, created_at, updated_at, deleted_on
		FROM categories WHERE id = ?
	`, id)
	return scanCategory(row)
}

func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *Category) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getCategoryTx(ctx, q, category.ID)
		if err != nil {
			return err
		}
		if err := validateCategory(ctx, q, category); err != nil {
			return err
		}
		now := time.Now()
		_, err = q.ExecContext(ctx, `
			UPDATE categories SET name_en = ?, name_ru = ?, updated_at = ? WHERE id = ?
		`, category.NameEN, category.NameRU, now, category.ID)
		if err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		category.UpdatedAt = now
		category.DeletedOn = old.DeletedOn
		return nil
	})
}

func (s *SQLiteStorage) ListCategories(ctx context.Context, includeDeleted bool) ([]*Category, error) {
	query := `
		SELECT id, name_en, name_ru, created_at, updated_at, deleted_on
		FROM categories
	`
	if !includeDeleted {
		query += " WHERE deleted_on IS NULL"
	}
	query += " ORDER BY name_en COLLATE NOCASE"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := make([]*Category, 0)
	for rows.Next() {
		c, err := scanCategoryRows(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStorage) SoftDeleteCategory(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "categories", id, true)
}

func (s *SQLiteStorage) RestoreCategory(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "categories", id, false)
}

// HardDeleteCategory removes the row permanently. The RESTRICT foreign keys
// on terms and commands block it while dependents still reference it.
func (s *SQLiteStorage) HardDeleteCategory(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("category %d still has terms or commands: %w", id, ErrConstraint)
		}
		return err
	}
	return requireAffected(result)
}

// Term operations
//
// Every term mutation runs the content write and the full-text index
// synchronization in one transaction. The original system did this with
// database triggers; here the posting maintenance is explicit code.

func (s *SQLiteStorage) CreateTerm(ctx context.Context, term *Term) error {
	return s.withTx(ctx, func(q querier) error {
		if err := validateTerm(ctx, q, term); err != nil {
			return err
		}
		now := time.Now()
		result, err := q.ExecContext(ctx, `
			INSERT INTO terms (category_id, en, abbr_en, ru, abbr_ru, descr_en, descr_ru,
			                   created_at, updated_at, deleted_on)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, term.CategoryID, term.EN, term.AbbrEN, term.RU, term.AbbrRU,
			term.DescrEN, term.DescrRU, now, now, deletedArg(term.DeletedOn))
		if err != nil {
			return fmt.Errorf("failed to create term: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		term.ID = id
		term.CreatedAt = now
		term.UpdatedAt = now
		if term.Active() {
			return indexTerm(ctx, q, term)
		}
		return nil
	})
}

func (s *SQLiteStorage) GetTerm(ctx context.Context, id int64) (*Term, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, en, abbr_en, ru, abbr_ru, descr_en, descr_ru,
		       created_at, updated_at, deleted_on
		FROM terms WHERE id = ?
	`, id)
	return scanTerm(row)
}

func (s *SQLiteStorage) UpdateTerm(ctx context.Context, term *Term) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getTermTx(ctx, q, term.ID)
		if err != nil {
			return err
		}
		if err := validateTerm(ctx, q, term); err != nil {
			return err
		}
		now := time.Now()
		_, err = q.ExecContext(ctx, `
			UPDATE terms
			SET category_id = ?, en = ?, abbr_en = ?, ru = ?, abbr_ru = ?,
			    descr_en = ?, descr_ru = ?, updated_at = ?
			WHERE id = ?
		`, term.CategoryID, term.EN, term.AbbrEN, term.RU, term.AbbrRU,
			term.DescrEN, term.DescrRU, now, term.ID)
		if err != nil {
			return fmt.Errorf("failed to update term: %w", err)
		}
		term.UpdatedAt = now
		term.DeletedOn = old.DeletedOn

		// Updates are a delete+insert pair on the index, never an
		// in-place edit
		if old.Active() {
			if err := deindexTerm(ctx, q, term.ID); err != nil {
				return err
			}
		}
		if term.Active() {
			return indexTerm(ctx, q, term)
		}
		return nil
	})
}

func (s *SQLiteStorage) SoftDeleteTerm(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getTermTx(ctx, q, id)
		if err != nil {
			return err
		}
		if !old.Active() {
			return nil
		}
		now := time.Now()
		_, err = q.ExecContext(ctx,
			"UPDATE terms SET deleted_on = ?, updated_at = ? WHERE id = ?", now, now, id)
		if err != nil {
			return err
		}
		return deindexTerm(ctx, q, id)
	})
}

func (s *SQLiteStorage) RestoreTerm(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getTermTx(ctx, q, id)
		if err != nil {
			return err
		}
		if old.Active() {
			return nil
		}
		now := time.Now()
		_, err = q.ExecContext(ctx,
			"UPDATE terms SET deleted_on = NULL, updated_at = ? WHERE id = ?", now, id)
		if err != nil {
			return err
		}
		old.DeletedOn = nil
		return indexTerm(ctx, q, old)
	})
}

func (s *SQLiteStorage) HardDeleteTerm(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, "DELETE FROM terms WHERE id = ?", id)
		if err != nil {
			return err
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		return deindexTerm(ctx, q, id)
	})
}

// Command operations

func (s *SQLiteStorage) CreateCommand(ctx context.Context, command *Command) error {
	return s.withTx(ctx, func(q querier) error {
		if err := validateCommand(ctx, q, command); err != nil {
			return err
		}
		now := time.Now()
		result, err := q.ExecContext(ctx, `
			INSERT INTO commands (category_id, title, descr_en, descr_ru,
			                      created_at, updated_at, deleted_on)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, command.CategoryID, command.Title, command.DescrEN, command.DescrRU,
			now, now, deletedArg(command.DeletedOn))
		if err != nil {
			return fmt.Errorf("failed to create command: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		command.ID = id
		command.CreatedAt = now
		command.UpdatedAt = now
		return nil
	})
}

func (s *SQLiteStorage) GetCommand(ctx context.Context, id int64) (*Command, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, title, descr_en, descr_ru, created_at, updated_at, deleted_on
		FROM commands WHERE id = ?
	`, id)
	return scanCommand(row)
}

func (s *SQLiteStorage) UpdateCommand(ctx context.Context, command *Command) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getCommandTx(ctx, q, command.ID)
		if err != nil {
			return err
		}
		if err := validateCommand(ctx, q, command); err != nil {
			return err
		}
		now := time.Now()
		_, err = q.ExecContext(ctx, `
			UPDATE commands
			SET category_id = ?, title = ?, descr_en = ?, descr_ru = ?, updated_at = ?
			WHERE id = ?
		`, command.CategoryID, command.Title, command.DescrEN, command.DescrRU, now, command.ID)
		if err != nil {
			return fmt.Errorf("failed to update command: %w", err)
		}
		command.UpdatedAt = now
		command.DeletedOn = old.DeletedOn
		return nil
	})
}

func (s *SQLiteStorage) SoftDeleteCommand(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "commands", id, true)
}

func (s *SQLiteStorage) RestoreCommand(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "commands", id, false)
}

// HardDeleteCommand removes the row permanently; examples cascade with it.
func (s *SQLiteStorage) HardDeleteCommand(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM commands WHERE id = ?", id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("command %d is still referenced: %w", id, ErrConstraint)
		}
		return err
	}
	return requireAffected(result)
}

// Example operations

func (s *SQLiteStorage) CreateExample(ctx context.Context, example *Example) error {
	return s.withTx(ctx, func(q querier) error {
		if err := validateExample(ctx, q, example); err != nil {
			return err
		}
		now := time.Now()
		result, err := q.ExecContext(ctx, `
			INSERT INTO examples (command_id, title, descr_en, descr_ru,
			                      created_at, updated_at, deleted_on)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, example.CommandID, example.Title, example.DescrEN, example.DescrRU,
			now, now, deletedArg(example.DeletedOn))
		if err != nil {
			return fmt.Errorf("failed to create example: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		example.ID = id
		example.CreatedAt = now
		example.UpdatedAt = now
		return nil
	})
}

func (s *SQLiteStorage) GetExample(ctx context.Context, id int64) (*Example, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, command_id, title, descr_en, descr_ru, created_at, updated_at, deleted_on
		FROM examples WHERE id = ?
	`, id)
	return scanExample(row)
}

func (s *SQLiteStorage) UpdateExample(ctx context.Context, example *Example) error {
	return s.withTx(ctx, func(q querier) error {
		old, err := getExampleTx(ctx, q, example.ID)
		if err != nil {
			return err
		}
		if err := validateExample(ctx, q, example); err != nil {
			return err
		}
		now := time.Now()
		_, err = q.ExecContext(ctx, `
			UPDATE examples
			SET command_id = ?, title = ?, descr_en = ?, descr_ru = ?, updated_at = ?
			WHERE id = ?
		`, example.CommandID, example.Title, example.DescrEN, example.DescrRU, now, example.ID)
		if err != nil {
			return fmt.Errorf("failed to update example: %w", err)
		}
		example.UpdatedAt = now
		example.DeletedOn = old.DeletedOn
		return nil
	})
}

func (s *SQLiteStorage) ListExamplesByCommand(ctx context.Context, commandID int64, includeDeleted bool) ([]*Example, error) {
	query := `
		SELECT id, command_id, title, descr_en, descr_ru, created_at, updated_at, deleted_on
		FROM examples
		WHERE command_id = ?
	`
	if !includeDeleted {
		query += " AND deleted_on IS NULL"
	}
	query += " ORDER BY title COLLATE NOCASE"

	rows, err := s.db.QueryContext(ctx, query, commandID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	examples := make([]*Example, 0)
	for rows.Next() {
		e, err := scanExampleRows(rows)
		if err != nil {
			return nil, err
		}
		examples = append(examples, e)
	}
	return examples, rows.Err()
}

func (s *SQLiteStorage) SoftDeleteExample(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "examples", id, true)
}

func (s *SQLiteStorage) RestoreExample(ctx context.Context, id int64) error {
	return s.setDeletedOn(ctx, "examples", id, false)
}

func (s *SQLiteStorage) HardDeleteExample(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM examples WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Helpers

// setDeletedOn toggles the soft-delete marker on any of the plain tables.
// Terms have their own paths because they also touch the index.
func (s *SQLiteStorage) setDeletedOn(ctx context.Context, table string, id int64, deleted bool) error {
	now := time.Now()
	var query string
	var args []interface{}
	if deleted {
		query = "UPDATE " + table + " SET deleted_on = ?, updated_at = ? WHERE id = ?"
		args = []interface{}{now, now, id}
	} else {
		query = "UPDATE " + table + " SET deleted_on = NULL, updated_at = ? WHERE id = ?"
		args = []interface{}{now, id}
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// requireAffected converts a zero-row write into ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deletedArg converts a *time.Time into a driver-friendly NULL-able value
func deletedArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategoryInto(sc rowScanner, c *Category) error {
	var nameRU sql.NullString
	var deletedOn sql.NullTime
	err := sc.Scan(&c.ID, &c.NameEN, &nameRU, &c.CreatedAt, &c.UpdatedAt, &deletedOn)
	if err != nil {
		return err
	}
	c.NameRU = nameRU.String
	if deletedOn.Valid {
		t := deletedOn.Time
		c.DeletedOn = &t
	}
	return nil
}

func scanCategory(row *sql.Row) (*Category, error) {
	var c Category
	err := scanCategoryInto(row, &c)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCategoryRows(rows *sql.Rows) (*Category, error) {
	var c Category
	if err := scanCategoryInto(rows, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanTermInto(sc rowScanner, t *Term) error {
	var abbrEN, abbrRU, descrEN, descrRU sql.NullString
	var deletedOn sql.NullTime
	err := sc.Scan(&t.ID, &t.CategoryID, &t.EN, &abbrEN, &t.RU, &abbrRU,
		&descrEN, &descrRU, &t.CreatedAt, &t.UpdatedAt, &deletedOn)
	if err != nil {
		return err
	}
	t.AbbrEN = abbrEN.String
	t.AbbrRU = abbrRU.String
	t.DescrEN = descrEN.String
	t.DescrRU = descrRU.String
	if deletedOn.Valid {
		dt := deletedOn.Time
		t.DeletedOn = &dt
	}
	return nil
}

func scanTerm(row *sql.Row) (*Term, error) {
	var t Term
	err := scanTermInto(row, &t)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanCommandInto(sc rowScanner, c *Command) error {
	var descrEN, descrRU sql.NullString
	var deletedOn sql.NullTime
	err := sc.Scan(&c.ID, &c.CategoryID, &c.Title, &descrEN, &descrRU,
		&c.CreatedAt, &c.UpdatedAt, &deletedOn)
	if err != nil {
		return err
	}
	c.DescrEN = descrEN.String
	c.DescrRU = descrRU.String
	if deletedOn.Valid {
		t := deletedOn.Time
		c.DeletedOn = &t
	}
	return nil
}

func scanCommand(row *sql.Row) (*Command, error) {
	var c Command
	err := scanCommandInto(row, &c)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanExampleInto(sc rowScanner, e *Example) error {
	var descrEN, descrRU sql.NullString
	var deletedOn sql.NullTime
	err := sc.Scan(&e.ID, &e.CommandID, &e.Title, &descrEN, &descrRU,
		&e.CreatedAt, &e.UpdatedAt, &deletedOn)
	if err != nil {
		return err
	}
	e.DescrEN = descrEN.String
	e.DescrRU = descrRU.String
	if deletedOn.Valid {
		t := deletedOn.Time
		e.DeletedOn = &t
	}
	return nil
}

func scanExample(row *sql.Row) (*Example, error) {
	var e Example
	err := scanExampleInto(row, &e)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanExampleRows(rows *sql.Rows) (*Example, error) {
	var e Example
	if err := scanExampleInto(rows, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// In-transaction lookups used by the mutation paths

func getCategoryTx(ctx context.Context, q querier, id int64) (*Category, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name_en, name_ru, created_at, updated_at, deleted_on
		FROM categories WHERE id = ?
	`, id)
	return scanCategory(row)
}

func getTermTx(ctx context.Context, q querier, id int64) (*Term, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, category_id, en, abbr_en, ru, abbr_ru, descr_en, descr_ru,
		       created_at, updated_at, deleted_on
		FROM terms WHERE id = ?
	`, id)
	return scanTerm(row)
}

func getCommandTx(ctx context.Context, q querier, id int64) (*Command, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, category_id, title, descr_en, descr_ru, created_at, updated_at, deleted_on
		FROM commands WHERE id = ?
	`, id)
	return scanCommand(row)
}

func getExampleTx(ctx context.Context, q querier, id int64) (*Example, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, command_id, title, descr_en, descr_ru, created_at, updated_at, deleted_on
		FROM examples WHERE id = ?
	`, id)
	return scanExample(row)
}
