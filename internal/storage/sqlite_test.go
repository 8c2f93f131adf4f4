package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedCategory(t *testing.T, store *SQLiteStorage, nameEN string) *Category {
	t.Helper()
	c := &Category{NameEN: nameEN, NameRU: nameEN + "-ru"}
	require.NoError(t, store.CreateCategory(context.Background(), c))
	return c
}

func seedTerm(t *testing.T, store *SQLiteStorage, categoryID int64, en, ru string) *Term {
	t.Helper()
	term := &Term{CategoryID: categoryID, EN: en, RU: ru}
	require.NoError(t, store.CreateTerm(context.Background(), term))
	return term
}

func TestCreateCategory(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	c := &Category{NameEN: "sql", NameRU: "скл"}
	err := store.CreateCategory(ctx, c)
	require.NoError(t, err)
	assert.Greater(t, c.ID, int64(0))

	got, err := store.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "sql", got.NameEN)
	assert.Equal(t, "скл", got.NameRU)
	assert.True(t, got.Active())
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	seedCategory(t, store, "shell")

	// Case-insensitive among active rows
	err := store.CreateCategory(ctx, &Category{NameEN: "Shell"})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "name_en has already been taken")
}

func TestCreateCategory_NameReusableAfterSoftDelete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	c := seedCategory(t, store, "shell")

	require.NoError(t, store.SoftDeleteCategory(ctx, c.ID))

	// A deleted row does not block reuse of its name
	err := store.CreateCategory(ctx, &Category{NameEN: "shell"})
	assert.NoError(t, err)
}

func TestGetCategory_NotFound(t *testing.T) {
	store := setupTestDB(t)
	_, err := store.GetCategory(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCategories(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	seedCategory(t, store, "zsh")
	seedCategory(t, store, "Awk")
	deleted := seedCategory(t, store, "deprecated")
	require.NoError(t, store.SoftDeleteCategory(ctx, deleted.ID))

	active, err := store.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// NOCASE ascending
	assert.Equal(t, "Awk", active[0].NameEN)
	assert.Equal(t, "zsh", active[1].NameEN)

	all, err := store.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreateTerm_Validation(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.CreateTerm(ctx, &Term{CategoryID: 42, EN: "  ", RU: ""})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "en can't be blank")
	assert.Contains(t, ve.Messages, "ru can't be blank")
	assert.Contains(t, ve.Messages, "category must exist")
}

func TestCreateTerm_UniquenessScoping(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	other := seedCategory(t, store, "shell")
	first := seedTerm(t, store, cat.ID, "join", "соединение")

	// Same en, any case, same category: rejected
	err := store.CreateTerm(ctx, &Term{CategoryID: cat.ID, EN: "JOIN", RU: "соединение"})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "en has already been taken")

	// Same en in a different category: fine
	require.NoError(t, store.CreateTerm(ctx, &Term{CategoryID: other.ID, EN: "join", RU: "соединение"}))

	// After soft-deleting the first, the name is free again
	require.NoError(t, store.SoftDeleteTerm(ctx, first.ID))
	assert.NoError(t, store.CreateTerm(ctx, &Term{CategoryID: cat.ID, EN: "join", RU: "соединение"}))
}

func TestUpdateTerm(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	term := seedTerm(t, store, cat.ID, "cte", "обобщённое табличное выражение")

	term.EN = "common table expression"
	term.AbbrEN = "CTE"
	term.DescrEN = "a named temporary result set"
	require.NoError(t, store.UpdateTerm(ctx, term))

	got, err := store.GetTerm(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, "common table expression", got.EN)
	assert.Equal(t, "CTE", got.AbbrEN)
	assert.Equal(t, "a named temporary result set", got.DescrEN)
}

func TestUpdateTerm_KeepsUniquenessAmongActive(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	seedTerm(t, store, cat.ID, "join", "соединение")
	term := seedTerm(t, store, cat.ID, "union", "объединение")

	term.EN = "Join"
	err := store.UpdateTerm(ctx, term)
	_, ok := IsValidation(err)
	assert.True(t, ok)
}

func TestSoftDeleteAndRestoreTerm(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	term := seedTerm(t, store, cat.ID, "join", "соединение")

	require.NoError(t, store.SoftDeleteTerm(ctx, term.ID))
	got, err := store.GetTerm(ctx, term.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())

	// Idempotent on an already-deleted row
	require.NoError(t, store.SoftDeleteTerm(ctx, term.ID))

	require.NoError(t, store.RestoreTerm(ctx, term.ID))
	got, err = store.GetTerm(ctx, term.ID)
	require.NoError(t, err)
	assert.True(t, got.Active())
}

func TestSoftDeleteTerm_NotFound(t *testing.T) {
	store := setupTestDB(t)
	err := store.SoftDeleteTerm(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHardDeleteCategory_Restricted(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "sql")
	term := seedTerm(t, store, cat.ID, "join", "соединение")

	// Terms still reference the category; the foreign key blocks removal
	err := store.HardDeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrConstraint)

	// Soft-deleted dependents still block: the row physically remains
	require.NoError(t, store.SoftDeleteTerm(ctx, term.ID))
	err = store.HardDeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrConstraint)

	require.NoError(t, store.HardDeleteTerm(ctx, term.ID))
	assert.NoError(t, store.HardDeleteCategory(ctx, cat.ID))

	_, err = store.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommandCRUD(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")

	cmd := &Command{CategoryID: cat.ID, Title: "grep", DescrEN: "search text", DescrRU: "поиск текста"}
	require.NoError(t, store.CreateCommand(ctx, cmd))
	assert.Greater(t, cmd.ID, int64(0))

	// Duplicate title in the same category, case-insensitive
	err := store.CreateCommand(ctx, &Command{CategoryID: cat.ID, Title: "GREP"})
	_, ok := IsValidation(err)
	assert.True(t, ok)

	cmd.DescrEN = "search text with patterns"
	require.NoError(t, store.UpdateCommand(ctx, cmd))

	got, err := store.GetCommand(ctx, cmd.ID)
	require.NoError(t, err)
	assert.Equal(t, "search text with patterns", got.DescrEN)

	require.NoError(t, store.SoftDeleteCommand(ctx, cmd.ID))
	got, err = store.GetCommand(ctx, cmd.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())

	require.NoError(t, store.RestoreCommand(ctx, cmd.ID))
}

func TestHardDeleteCommand_CascadesExamples(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")
	cmd := &Command{CategoryID: cat.ID, Title: "grep"}
	require.NoError(t, store.CreateCommand(ctx, cmd))

	ex := &Example{CommandID: cmd.ID, Title: "basic match", DescrEN: "grep foo file"}
	require.NoError(t, store.CreateExample(ctx, ex))

	require.NoError(t, store.HardDeleteCommand(ctx, cmd.ID))

	_, err := store.GetExample(ctx, ex.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExampleUniquenessPerCommand(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")
	grep := &Command{CategoryID: cat.ID, Title: "grep"}
	find := &Command{CategoryID: cat.ID, Title: "find"}
	require.NoError(t, store.CreateCommand(ctx, grep))
	require.NoError(t, store.CreateCommand(ctx, find))

	require.NoError(t, store.CreateExample(ctx, &Example{CommandID: grep.ID, Title: "basic"}))

	err := store.CreateExample(ctx, &Example{CommandID: grep.ID, Title: "Basic"})
	_, ok := IsValidation(err)
	assert.True(t, ok)

	// Same title under another command is fine
	assert.NoError(t, store.CreateExample(ctx, &Example{CommandID: find.ID, Title: "basic"}))
}

func TestListExamplesByCommand(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	cat := seedCategory(t, store, "shell")
	cmd := &Command{CategoryID: cat.ID, Title: "grep"}
	require.NoError(t, store.CreateCommand(ctx, cmd))

	require.NoError(t, store.CreateExample(ctx, &Example{CommandID: cmd.ID, Title: "recursive"}))
	require.NoError(t, store.CreateExample(ctx, &Example{CommandID: cmd.ID, Title: "Basic"}))
	dead := &Example{CommandID: cmd.ID, Title: "old"}
	require.NoError(t, store.CreateExample(ctx, dead))
	require.NoError(t, store.SoftDeleteExample(ctx, dead.ID))

	active, err := store.ListExamplesByCommand(ctx, cmd.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Basic", active[0].Title)
	assert.Equal(t, "recursive", active[1].Title)

	all, err := store.ListExamplesByCommand(ctx, cmd.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
