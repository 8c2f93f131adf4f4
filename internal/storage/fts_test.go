package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFullTerm(t *testing.T, store *SQLiteStorage, categoryID int64, term Term) *Term {
	t.Helper()
	term.CategoryID = categoryID
	require.NoError(t, store.CreateTerm(context.Background(), &term))
	return &term
}

func TestSearchTerms_RanksAndHighlights(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")

	// "join" in the en field should outrank "join" buried in a description
	seedFullTerm(t, store, cat.ID, Term{EN: "join", RU: "соединение"})
	seedFullTerm(t, store, cat.ID, Term{
		EN: "cartesian product", RU: "декартово произведение",
		DescrEN: "every row pairing, what a join without a condition degrades to",
	})

	hits, err := store.SearchTerms(ctx, "join", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "join", hits[0].EN)
	require.NotNil(t, hits[0].Rank)
	require.NotNil(t, hits[1].Rank)
	// bm25 rank is lower-is-better
	assert.Less(t, *hits[0].Rank, *hits[1].Rank)

	// Matched spans wrapped in the sentinels, not markup
	assert.Equal(t, MatchMarkerStart+"join"+MatchMarkerEnd, hits[0].ENMarked)
	assert.NotContains(t, hits[0].ENMarked, "<")
	assert.Equal(t, "соединение", hits[0].RUMarked)
}

func TestSearchTerms_CyrillicQuery(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	seedFullTerm(t, store, cat.ID, Term{EN: "pipe", RU: "конвейер"})
	seedFullTerm(t, store, cat.ID, Term{EN: "join", RU: "соединение"})

	hits, err := store.SearchTerms(ctx, "конвейер", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "pipe", hits[0].EN)
	assert.Equal(t, MatchMarkerStart+"конвейер"+MatchMarkerEnd, hits[0].RUMarked)
}

func TestSearchTerms_VisibilityInvariant(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	alive := seedFullTerm(t, store, cat.ID, Term{EN: "join inner", RU: "внутреннее соединение"})
	dead := seedFullTerm(t, store, cat.ID, Term{EN: "join outer", RU: "внешнее соединение"})
	require.NoError(t, store.SoftDeleteTerm(ctx, dead.ID))

	hits, err := store.SearchTerms(ctx, "join", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, alive.ID, hits[0].ID)

	// include_deleted cannot resurface it on the indexed path either: the
	// soft delete removed the posting
	hits, err = store.SearchTerms(ctx, "join", SearchFilters{IncludeDeleted: true}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, alive.ID, hits[0].ID)

	n, err := store.CountTermMatches(ctx, "join", SearchFilters{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The deleted row stays reachable when asked for explicitly, by way of
	// the browse path instead
	all, err := store.BrowseTerms(ctx, SearchFilters{IncludeDeleted: true}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchTerms_CategoryFilter(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	sql := seedCategory(t, store, "sql")
	shell := seedCategory(t, store, "shell")
	seedFullTerm(t, store, sql.ID, Term{EN: "pipe operator", RU: "конвейер"})
	seedFullTerm(t, store, shell.ID, Term{EN: "pipe", RU: "канал"})

	hits, err := store.SearchTerms(ctx, "pipe", SearchFilters{CategoryID: &shell.ID}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "pipe", hits[0].EN)
	assert.Equal(t, "shell", hits[0].CategoryName)

	// A category id nothing carries degrades to zero results, not an error
	var nowhere int64 = 0
	hits, err = store.SearchTerms(ctx, "pipe", SearchFilters{CategoryID: &nowhere}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTerms_InvalidSyntaxFallsBack(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")
	seedFullTerm(t, store, cat.ID, Term{EN: "pipe", RU: "канал"})

	// Unbalanced syntax would be an fts5 parse error; the retry quotes the
	// tokens and still finds the row
	hits, err := store.SearchTerms(ctx, `pipe AND (`, SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "pipe", hits[0].EN)

	hits, err = store.SearchTerms(ctx, `"unterminated`, SearchFilters{}, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, hits)
}

func TestBrowseTerms_OrderingAndPagination(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	for _, en := range []string{"view", "Index", "cursor", "alias", "Trigger"} {
		seedFullTerm(t, store, cat.ID, Term{EN: en, RU: en + "-ru"})
	}

	page1, err := store.BrowseTerms(ctx, SearchFilters{}, 2, 0)
	require.NoError(t, err)
	page2, err := store.BrowseTerms(ctx, SearchFilters{}, 2, 2)
	require.NoError(t, err)
	page3, err := store.BrowseTerms(ctx, SearchFilters{}, 2, 4)
	require.NoError(t, err)

	var got []string
	for _, p := range [][]TermHit{page1, page2, page3} {
		for _, h := range p {
			got = append(got, h.EN)
		}
	}
	assert.Equal(t, []string{"alias", "cursor", "Index", "Trigger", "view"}, got)

	n, err := store.CountTerms(ctx, SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestIndexConsistencyAcrossMutations(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")

	verify := func() IndexStats {
		t.Helper()
		stats, err := store.VerifyTermIndex(ctx)
		require.NoError(t, err)
		return stats
	}

	term := seedFullTerm(t, store, cat.ID, Term{EN: "join", RU: "соединение"})
	assert.Equal(t, 1, verify().IndexedPostings)

	term.EN = "inner join"
	require.NoError(t, store.UpdateTerm(ctx, term))
	verify()
	hits, err := store.SearchTerms(ctx, "inner", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	// The old text no longer matches anything
	hits, err = store.SearchTerms(ctx, "join NOT inner", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, store.SoftDeleteTerm(ctx, term.ID))
	assert.Equal(t, 0, verify().IndexedPostings)

	require.NoError(t, store.RestoreTerm(ctx, term.ID))
	assert.Equal(t, 1, verify().IndexedPostings)

	require.NoError(t, store.HardDeleteTerm(ctx, term.ID))
	stats := verify()
	assert.Equal(t, 0, stats.ActiveTerms)
	assert.Equal(t, 0, stats.IndexedPostings)
}

func TestVerifyTermIndex_DetectsDesync(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	seedFullTerm(t, store, cat.ID, Term{EN: "join", RU: "соединение"})

	// Sabotage the index behind the storage layer's back
	_, err := store.db.ExecContext(ctx, "DELETE FROM terms_fts")
	require.NoError(t, err)

	_, err = store.VerifyTermIndex(ctx)
	assert.ErrorIs(t, err, ErrIndexDesync)
}

func TestReindexTerms_RepairsAndIsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	seedFullTerm(t, store, cat.ID, Term{EN: "join", RU: "соединение"})
	seedFullTerm(t, store, cat.ID, Term{EN: "union", RU: "объединение"})
	dead := seedFullTerm(t, store, cat.ID, Term{EN: "old", RU: "старый"})
	require.NoError(t, store.SoftDeleteTerm(ctx, dead.ID))

	_, err := store.db.ExecContext(ctx, "DELETE FROM terms_fts")
	require.NoError(t, err)
	_, err = store.VerifyTermIndex(ctx)
	require.ErrorIs(t, err, ErrIndexDesync)

	n, err := store.ReindexTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := store.VerifyTermIndex(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Consistent())

	// Running again changes nothing
	n, err = store.ReindexTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := store.SearchTerms(ctx, "join", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBrowseCommands_Ordering(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	shell := seedCategory(t, store, "shell")
	sqlCat := seedCategory(t, store, "sql")

	for _, c := range []*Command{
		{CategoryID: sqlCat.ID, Title: "vacuum"},
		{CategoryID: shell.ID, Title: "xargs"},
		{CategoryID: shell.ID, Title: "Awk"},
	} {
		require.NoError(t, store.CreateCommand(ctx, c))
	}

	hits, err := store.BrowseCommands(ctx, SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	// Category name first, then title, both NOCASE
	assert.Equal(t, "Awk", hits[0].Title)
	assert.Equal(t, "xargs", hits[1].Title)
	assert.Equal(t, "vacuum", hits[2].Title)
}

func TestListCommandsForScan(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")

	for _, c := range []*Command{
		{CategoryID: cat.ID, Title: "grep", DescrEN: "search text"},
		{CategoryID: cat.ID, Title: "Find", DescrEN: "walk a file tree"},
	} {
		require.NoError(t, store.CreateCommand(ctx, c))
	}
	dead := &Command{CategoryID: cat.ID, Title: "ed"}
	require.NoError(t, store.CreateCommand(ctx, dead))
	require.NoError(t, store.SoftDeleteCommand(ctx, dead.ID))

	hits, err := store.ListCommandsForScan(ctx, SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Find", hits[0].Title)
	assert.Equal(t, "grep", hits[1].Title)
	assert.Equal(t, "shell", hits[0].CategoryName)

	hits, err = store.ListCommandsForScan(ctx, SearchFilters{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestQuoteFTSQuery(t *testing.T) {
	assert.Equal(t, `"pipe" "AND" "("`, quoteFTSQuery("pipe AND ("))
	assert.Equal(t, `"say ""hi"""`, quoteFTSQuery(`say "hi"`))
	assert.Equal(t, "", quoteFTSQuery("   "))
}

func TestSearchTerms_NoMarkupFromContent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "web")
	seedFullTerm(t, store, cat.ID, Term{EN: "<script>alert(1)</script> tag", RU: "тег скрипта"})

	hits, err := store.SearchTerms(ctx, "script", SearchFilters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	// Raw content passes through untouched; only the sentinels mark matches
	assert.True(t, strings.Contains(hits[0].ENMarked, MatchMarkerStart))
	assert.True(t, strings.Contains(hits[0].ENMarked, "<script>") ||
		strings.Contains(hits[0].ENMarked, "script"))
}
