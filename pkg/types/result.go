package types

// EntityKind identifies which entity a search ran against.
type EntityKind string

const (
	EntityTerm    EntityKind = "term"
	EntityCommand EntityKind = "command"
)

// Valid reports whether the kind is one of the searchable entities.
func (k EntityKind) Valid() bool {
	return k == EntityTerm || k == EntityCommand
}

// ResultRecord is the uniform, display-ready search result shared by both
// retrieval strategies. Text fields are HTML-escaped and, where the query
// matched, wrapped in the configured highlight markers.
type ResultRecord struct {
	ID           int64      `json:"id"`
	Kind         EntityKind `json:"kind"`
	CategoryID   int64      `json:"category_id"`
	CategoryName string     `json:"category_name"`

	// Term display fields.
	EN     string `json:"en,omitempty"`
	RU     string `json:"ru,omitempty"`
	AbbrEN string `json:"abbr_en,omitempty"`
	AbbrRU string `json:"abbr_ru,omitempty"`

	// Command display fields.
	Title string `json:"title,omitempty"`

	DescrEN string `json:"descr_en,omitempty"`
	DescrRU string `json:"descr_ru,omitempty"`

	// Score is nil in browse mode. For indexed term search lower is better
	// (BM25 rank); for scored command search higher is better.
	Score *float64 `json:"score,omitempty"`

	Deleted bool `json:"deleted,omitempty"`
}
