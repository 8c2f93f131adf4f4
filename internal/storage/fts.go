package storage

// Full-text index maintenance and the search-side queries live here, kept
// out of sqlite.go for clarity.
//
// terms_fts holds one posting per active term, rowid = term id. The
// mutation paths in sqlite.go call indexTerm/deindexTerm inside their own
// transactions; nothing else writes to the table.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	// MatchMarkerStart and MatchMarkerEnd are the sentinel bytes wrapped
	// around matched spans by highlight(). The result formatter replaces
	// them with real markup after HTML-escaping, so user content can never
	// inject tags.
	MatchMarkerStart = "\x01"
	MatchMarkerEnd   = "\x02"
)

// indexTerm writes the posting for a term. The leading delete makes the
// call idempotent; a stray posting never duplicates.
func indexTerm(ctx context.Context, q querier, t *Term) error {
	if err := deindexTerm(ctx, q, t.ID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO terms_fts (rowid, en, ru, abbr_en, abbr_ru, descr_en, descr_ru)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.EN, t.RU, t.AbbrEN, t.AbbrRU, t.DescrEN, t.DescrRU)
	if err != nil {
		return fmt.Errorf("failed to index term %d: %w", t.ID, err)
	}
	return nil
}

// deindexTerm removes the posting for a term id, if any.
func deindexTerm(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM terms_fts WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("failed to deindex term %d: %w", id, err)
	}
	return nil
}

// termFilterSQL renders the shared visibility/category filters as WHERE
// fragments against the given table alias. Filters are preconditions on
// candidate rows, not post-filters, so LIMIT/OFFSET windows stay correct.
func termFilterSQL(alias string, filters SearchFilters) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	if !filters.IncludeDeleted {
		fmt.Fprintf(&sb, " AND %s.deleted_on IS NULL", alias)
	}
	if filters.CategoryID != nil {
		fmt.Fprintf(&sb, " AND %s.category_id = ?", alias)
		args = append(args, *filters.CategoryID)
	}
	return sb.String(), args
}

const termHitColumns = `
	t.id, t.category_id, t.en, t.abbr_en, t.ru, t.abbr_ru, t.descr_en, t.descr_ru,
	t.created_at, t.updated_at, t.deleted_on,
	c.name_en AS category_name`

// SearchTerms runs a ranked FTS5 query over term postings. Matched spans in
// the en and ru fields come back wrapped in the match marker sentinels.
// A query that is not valid FTS5 syntax is retried with every token quoted,
// which downgrades it to plain token matching instead of failing.
func (s *SQLiteStorage) SearchTerms(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]TermHit, error) {
	hits, err := s.searchTermsFTS(ctx, query, filters, limit, offset)
	if err == nil {
		return hits, nil
	}
	if !isFTSSyntaxError(err) {
		return nil, err
	}
	quoted := quoteFTSQuery(query)
	if quoted == "" {
		return []TermHit{}, nil
	}
	return s.searchTermsFTS(ctx, quoted, filters, limit, offset)
}

func (s *SQLiteStorage) searchTermsFTS(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]TermHit, error) {
	// bm25() is lower-is-better; ties are broken by the same NOCASE
	// ordering browse mode uses, for deterministic pagination
	filterSQL, filterArgs := termFilterSQL("t", filters)
	sqlQuery := `
		SELECT` + termHitColumns + `,
		       bm25(terms_fts) AS rank,
		       highlight(terms_fts, 0, ?, ?) AS en_marked,
		       highlight(terms_fts, 1, ?, ?) AS ru_marked
		FROM terms_fts
		JOIN terms t ON t.id = terms_fts.rowid
		JOIN categories c ON c.id = t.category_id
		WHERE terms_fts MATCH ?` + filterSQL + `
		ORDER BY rank, t.en COLLATE NOCASE
		LIMIT ? OFFSET ?
	`
	args := []interface{}{
		MatchMarkerStart, MatchMarkerEnd,
		MatchMarkerStart, MatchMarkerEnd,
		query,
	}
	args = append(args, filterArgs...)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hits := make([]TermHit, 0)
	for rows.Next() {
		var h TermHit
		var rank float64
		if err := scanTermHitBase(rows, &h, &rank, true); err != nil {
			return nil, err
		}
		h.Rank = &rank
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountTermMatches counts the full match set of an FTS5 query, for
// pagination totals. It degrades invalid syntax the same way SearchTerms
// does, so the count always agrees with the result window.
func (s *SQLiteStorage) CountTermMatches(ctx context.Context, query string, filters SearchFilters) (int, error) {
	n, err := s.countTermMatchesFTS(ctx, query, filters)
	if err == nil {
		return n, nil
	}
	if !isFTSSyntaxError(err) {
		return 0, err
	}
	quoted := quoteFTSQuery(query)
	if quoted == "" {
		return 0, nil
	}
	return s.countTermMatchesFTS(ctx, quoted, filters)
}

func (s *SQLiteStorage) countTermMatchesFTS(ctx context.Context, query string, filters SearchFilters) (int, error) {
	filterSQL, filterArgs := termFilterSQL("t", filters)
	sqlQuery := `
		SELECT COUNT(*)
		FROM terms_fts
		JOIN terms t ON t.id = terms_fts.rowid
		WHERE terms_fts MATCH ?` + filterSQL
	args := append([]interface{}{query}, filterArgs...)
	var count int
	err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count)
	return count, err
}

// BrowseTerms lists filtered terms ordered by the English term, for blank
// queries.
func (s *SQLiteStorage) BrowseTerms(ctx context.Context, filters SearchFilters, limit, offset int) ([]TermHit, error) {
	filterSQL, filterArgs := termFilterSQL("t", filters)
	sqlQuery := `
		SELECT` + termHitColumns + `
		FROM terms t
		JOIN categories c ON c.id = t.category_id
		WHERE 1=1` + filterSQL + `
		ORDER BY t.en COLLATE NOCASE
		LIMIT ? OFFSET ?
	`
	args := append(filterArgs, limit, offset)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hits := make([]TermHit, 0)
	for rows.Next() {
		var h TermHit
		if err := scanTermHitBase(rows, &h, nil, false); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountTerms counts terms matching the filters.
func (s *SQLiteStorage) CountTerms(ctx context.Context, filters SearchFilters) (int, error) {
	filterSQL, filterArgs := termFilterSQL("t", filters)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM terms t WHERE 1=1"+filterSQL, filterArgs...).Scan(&count)
	return count, err
}

const commandHitColumns = `
	cm.id, cm.category_id, cm.title, cm.descr_en, cm.descr_ru,
	cm.created_at, cm.updated_at, cm.deleted_on,
	c.name_en AS category_name`

// BrowseCommands lists filtered commands ordered by category name then
// title, for blank queries.
func (s *SQLiteStorage) BrowseCommands(ctx context.Context, filters SearchFilters, limit, offset int) ([]CommandHit, error) {
	filterSQL, filterArgs := termFilterSQL("cm", filters)
	sqlQuery := `
		SELECT` + commandHitColumns + `
		FROM commands cm
		JOIN categories c ON c.id = cm.category_id
		WHERE 1=1` + filterSQL + `
		ORDER BY c.name_en COLLATE NOCASE, cm.title COLLATE NOCASE
		LIMIT ? OFFSET ?
	`
	args := append(filterArgs, limit, offset)
	return s.queryCommandHits(ctx, sqlQuery, args...)
}

// ListCommandsForScan returns all filtered commands ordered by title, the
// input for the substring-scored retrieval path. The title pre-order means
// a stable sort by score leaves ties in title order.
func (s *SQLiteStorage) ListCommandsForScan(ctx context.Context, filters SearchFilters) ([]CommandHit, error) {
	filterSQL, filterArgs := termFilterSQL("cm", filters)
	sqlQuery := `
		SELECT` + commandHitColumns + `
		FROM commands cm
		JOIN categories c ON c.id = cm.category_id
		WHERE 1=1` + filterSQL + `
		ORDER BY cm.title COLLATE NOCASE
	`
	return s.queryCommandHits(ctx, sqlQuery, filterArgs...)
}

// CountCommands counts commands matching the filters.
func (s *SQLiteStorage) CountCommands(ctx context.Context, filters SearchFilters) (int, error) {
	filterSQL, filterArgs := termFilterSQL("cm", filters)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM commands cm WHERE 1=1"+filterSQL, filterArgs...).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) queryCommandHits(ctx context.Context, query string, args ...interface{}) ([]CommandHit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hits := make([]CommandHit, 0)
	for rows.Next() {
		var h CommandHit
		var descrEN, descrRU sql.NullString
		var deletedOn sql.NullTime
		err := rows.Scan(&h.ID, &h.CategoryID, &h.Title, &descrEN, &descrRU,
			&h.CreatedAt, &h.UpdatedAt, &deletedOn, &h.CategoryName)
		if err != nil {
			return nil, err
		}
		h.DescrEN = descrEN.String
		h.DescrRU = descrRU.String
		if deletedOn.Valid {
			t := deletedOn.Time
			h.DeletedOn = &t
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ReindexTerms rebuilds the full-text index from scratch from current
// active terms. Used for repair after a detected desync; running it twice
// produces the same index state as running it once.
func (s *SQLiteStorage) ReindexTerms(ctx context.Context) (int, error) {
	var indexed int
	err := s.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM terms_fts"); err != nil {
			return fmt.Errorf("failed to clear term index: %w", err)
		}
		result, err := q.ExecContext(ctx, `
			INSERT INTO terms_fts (rowid, en, ru, abbr_en, abbr_ru, descr_en, descr_ru)
			SELECT id, en, ru, abbr_en, abbr_ru, descr_en, descr_ru
			FROM terms
			WHERE deleted_on IS NULL
		`)
		if err != nil {
			return fmt.Errorf("failed to rebuild term index: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		indexed = int(n)
		return nil
	})
	return indexed, err
}

// VerifyTermIndex compares the active term count against the posting count
// and returns ErrIndexDesync on mismatch.
func (s *SQLiteStorage) VerifyTermIndex(ctx context.Context) (IndexStats, error) {
	var stats IndexStats
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM terms WHERE deleted_on IS NULL").Scan(&stats.ActiveTerms); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM terms_fts").Scan(&stats.IndexedPostings); err != nil {
		return stats, err
	}
	if !stats.Consistent() {
		return stats, fmt.Errorf("%d active terms vs %d postings: %w",
			stats.ActiveTerms, stats.IndexedPostings, ErrIndexDesync)
	}
	return stats, nil
}

// scanTermHitBase scans the shared term hit columns, optionally followed by
// the rank and highlight columns of the FTS path.
func scanTermHitBase(sc rowScanner, h *TermHit, rank *float64, highlighted bool) error {
	var abbrEN, abbrRU, descrEN, descrRU sql.NullString
	var deletedOn sql.NullTime
	dest := []interface{}{
		&h.ID, &h.CategoryID, &h.EN, &abbrEN, &h.RU, &abbrRU,
		&descrEN, &descrRU, &h.CreatedAt, &h.UpdatedAt, &deletedOn,
		&h.CategoryName,
	}
	if highlighted {
		dest = append(dest, rank, &h.ENMarked, &h.RUMarked)
	}
	if err := sc.Scan(dest...); err != nil {
		return err
	}
	h.AbbrEN = abbrEN.String
	h.AbbrRU = abbrRU.String
	h.DescrEN = descrEN.String
	h.DescrRU = descrRU.String
	if deletedOn.Valid {
		t := deletedOn.Time
		h.DeletedOn = &t
	}
	return nil
}

// quoteFTSQuery rewrites free text as a sequence of quoted tokens, which is
// always valid FTS5 syntax. Embedded quotes are doubled per the FTS5 string
// grammar.
func quoteFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}

// isFTSSyntaxError recognizes the fts5 query-grammar errors both drivers
// surface as plain messages.
func isFTSSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "fts5: parse error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "no such column")
}
