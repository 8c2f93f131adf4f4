// Package storage provides SQLite-based persistence for the glossary.
//
// The storage layer manages:
//   - Categories, terms, commands, and examples with soft-delete markers
//   - Validated create/update (presence, uniqueness among active siblings,
//     foreign-key existence)
//   - The terms_fts full-text index, synchronized with every term mutation
//   - Schema migrations with a version ledger
//
// # Database Schema
//
// Tables:
//   - categories: bilingual category names, unique among active rows
//   - terms: six indexed text fields, unique en per category among active rows
//   - commands: runnable command references, unique title per category
//   - examples: usage examples, cascade-removed with their command
//   - terms_fts: FTS5 index over term text, one posting per active term
//   - schema_version: applied migration ledger
//
// # Soft Delete
//
// Setting deleted_on marks a row inactive; clearing it restores the row.
// Uniqueness constraints are partial indexes over active rows only, so a
// deleted row never blocks reuse of its name. Hard deletes are separate,
// privileged operations that rely on the database's own foreign keys:
// categories are RESTRICTed while terms or commands reference them,
// examples CASCADE with their command.
//
// # Index Synchronization
//
// Term mutations run the content write and the posting maintenance in one
// transaction:
//
//	store, err := storage.NewSQLiteStorage("glossary.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	term := &storage.Term{CategoryID: catID, EN: "pipe", RU: "конвейер"}
//	if err := store.CreateTerm(ctx, term); err != nil {
//	    // *ValidationError carries the rejection messages
//	}
//
// ReindexTerms rebuilds the index from current active rows and
// VerifyTermIndex detects posting-count divergence (ErrIndexDesync).
package storage
