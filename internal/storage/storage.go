package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting and querying glossary data
type Storage interface {
	// Category operations
	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, id int64) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	ListCategories(ctx context.Context, includeDeleted bool) ([]*Category, error)
	SoftDeleteCategory(ctx context.Context, id int64) error
	RestoreCategory(ctx context.Context, id int64) error
	HardDeleteCategory(ctx context.Context, id int64) error

	// Term operations; every mutation keeps the full-text index in sync
	// within the same transaction
	CreateTerm(ctx context.Context, term *Term) error
	GetTerm(ctx context.Context, id int64) (*Term, error)
	UpdateTerm(ctx context.Context, term *Term) error
	SoftDeleteTerm(ctx context.Context, id int64) error
	RestoreTerm(ctx context.Context, id int64) error
	HardDeleteTerm(ctx context.Context, id int64) error

	// Command operations
	CreateCommand(ctx context.Context, command *Command) error
	GetCommand(ctx context.Context, id int64) (*Command, error)
	UpdateCommand(ctx context.Context, command *Command) error
	SoftDeleteCommand(ctx context.Context, id int64) error
	RestoreCommand(ctx context.Context, id int64) error
	HardDeleteCommand(ctx context.Context, id int64) error

	// Example operations
	CreateExample(ctx context.Context, example *Example) error
	GetExample(ctx context.Context, id int64) (*Example, error)
	UpdateExample(ctx context.Context, example *Example) error
	ListExamplesByCommand(ctx context.Context, commandID int64, includeDeleted bool) ([]*Example, error)
	SoftDeleteExample(ctx context.Context, id int64) error
	RestoreExample(ctx context.Context, id int64) error
	HardDeleteExample(ctx context.Context, id int64) error

	// Search operations
	SearchTerms(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]TermHit, error)
	CountTermMatches(ctx context.Context, query string, filters SearchFilters) (int, error)
	BrowseTerms(ctx context.Context, filters SearchFilters, limit, offset int) ([]TermHit, error)
	CountTerms(ctx context.Context, filters SearchFilters) (int, error)
	BrowseCommands(ctx context.Context, filters SearchFilters, limit, offset int) ([]CommandHit, error)
	ListCommandsForScan(ctx context.Context, filters SearchFilters) ([]CommandHit, error)
	CountCommands(ctx context.Context, filters SearchFilters) (int, error)

	// Index maintenance
	ReindexTerms(ctx context.Context) (int, error)
	VerifyTermIndex(ctx context.Context) (IndexStats, error)

	// Database operations
	Close() error
}

// Category groups terms and commands. Deleting it is restricted while
// dependents reference it.
type Category struct {
	ID        int64
	NameEN    string
	NameRU    string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedOn *time.Time
}

// Term is a bilingual glossary entry. Its six text fields are what the
// full-text index covers, in this order: en, ru, abbr_en, abbr_ru,
// descr_en, descr_ru.
type Term struct {
	ID         int64
	CategoryID int64
	EN         string
	AbbrEN     string
	RU         string
	AbbrRU     string
	DescrEN    string
	DescrRU    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedOn  *time.Time
}

// Command is a runnable command reference owned by a category.
type Command struct {
	ID         int64
	CategoryID int64
	Title      string
	DescrEN    string
	DescrRU    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedOn  *time.Time
}

// Example is a usage example owned by a command; hard-removing the command
// cascades to its examples.
type Example struct {
	ID        int64
	CommandID int64
	Title     string
	DescrEN   string
	DescrRU   string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedOn *time.Time
}

// Active reports whether the row has not been soft-deleted.
func (c *Category) Active() bool { return c.DeletedOn == nil }
func (t *Term) Active() bool     { return t.DeletedOn == nil }
func (c *Command) Active() bool  { return c.DeletedOn == nil }
func (e *Example) Active() bool  { return e.DeletedOn == nil }

// SearchFilters narrows search and browse queries. Filters are applied as
// preconditions on candidate rows so pagination offsets stay correct.
type SearchFilters struct {
	// CategoryID restricts to a single category when non-nil. An id that
	// references nothing simply matches no rows.
	CategoryID *int64
	// IncludeDeleted lifts the default active-rows-only restriction.
	IncludeDeleted bool
}

// TermHit is a term row joined with its category, plus ranking and
// highlight data when it came from the indexed search path.
type TermHit struct {
	Term
	CategoryName string
	// Rank is the BM25 relevance score (lower is better); nil in browse mode.
	Rank *float64
	// ENMarked/RUMarked carry the en/ru fields with matched spans wrapped in
	// MatchMarkerStart/MatchMarkerEnd sentinels; empty in browse mode.
	ENMarked string
	RUMarked string
}

// CommandHit is a command row joined with its category name.
type CommandHit struct {
	Command
	CategoryName string
}

// IndexStats reports the consistency check between active term rows and
// full-text index postings.
type IndexStats struct {
	ActiveTerms     int
	IndexedPostings int
}

// Consistent reports whether the index holds exactly one posting per
// active term.
func (s IndexStats) Consistent() bool {
	return s.ActiveTerms == s.IndexedPostings
}
