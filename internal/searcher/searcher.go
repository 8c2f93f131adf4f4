package searcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/termdex/termdex/internal/storage"
	"github.com/termdex/termdex/pkg/types"
)

const (
	// DefaultPerPage is the page size used when the request does not set one.
	DefaultPerPage = 20
	// MaxPerPage caps the page size.
	MaxPerPage = 200

	scoreTitle = 2
	scoreDescr = 1
)

// Request carries one search or browse call. A blank Query means browse:
// list everything the filters allow, in the entity's canonical order.
type Request struct {
	Kind  types.EntityKind
	Query string
	// CategoryID is the raw filter value as received from the caller. A
	// value that does not parse as an id filters on id 0, which matches
	// nothing, rather than failing the request.
	CategoryID     string
	IncludeDeleted bool
	PerPage        int
	Page           int
}

// Response is a page of display-ready results plus pagination metadata.
type Response struct {
	Results []types.ResultRecord
	// TotalMatched counts the full match set, not just this page.
	TotalMatched int
	Page         int
	PerPage      int
	Duration     time.Duration
}

// Searcher plans and executes glossary queries. Terms go through the
// full-text index with BM25 ranking; commands go through a scored substring
// scan. Both share the same filter and pagination semantics.
type Searcher struct {
	storage    storage.Storage
	formatter  *Formatter
	defaultPer int
	maxPer     int
}

// NewSearcher creates a Searcher over the given storage. A nil formatter
// gets the default <mark> markers.
func NewSearcher(st storage.Storage, f *Formatter) *Searcher {
	if f == nil {
		f = NewFormatter("", "")
	}
	return &Searcher{
		storage:    st,
		formatter:  f,
		defaultPer: DefaultPerPage,
		maxPer:     MaxPerPage,
	}
}

// SetPageSizes overrides the pagination limits. Non-positive values keep
// the current setting.
func (s *Searcher) SetPageSizes(defaultPer, maxPer int) {
	if defaultPer > 0 {
		s.defaultPer = defaultPer
	}
	if maxPer > 0 {
		s.maxPer = maxPer
	}
	if s.defaultPer > s.maxPer {
		s.defaultPer = s.maxPer
	}
}

// Search runs the request and returns one result page.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if !req.Kind.Valid() {
		return nil, fmt.Errorf("unsupported entity kind: %q", req.Kind)
	}
	page, perPage := s.normalizePage(req.Page, req.PerPage)
	filters := storage.SearchFilters{IncludeDeleted: req.IncludeDeleted}
	if strings.TrimSpace(req.CategoryID) != "" {
		id := parseID(req.CategoryID)
		filters.CategoryID = &id
	}
	query := strings.TrimSpace(req.Query)

	var resp *Response
	var err error
	switch {
	case req.Kind == types.EntityTerm && query == "":
		resp, err = s.browseTerms(ctx, filters, page, perPage)
	case req.Kind == types.EntityTerm:
		resp, err = s.searchTerms(ctx, query, filters, page, perPage)
	case query == "":
		resp, err = s.browseCommands(ctx, filters, page, perPage)
	default:
		resp, err = s.searchCommands(ctx, query, filters, page, perPage)
	}
	if err != nil {
		return nil, err
	}

	resp.Page = page
	resp.PerPage = perPage
	resp.Duration = time.Since(start)
	return resp, nil
}

func (s *Searcher) searchTerms(ctx context.Context, query string, filters storage.SearchFilters, page, perPage int) (*Response, error) {
	hits, err := s.storage.SearchTerms(ctx, query, filters, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	total, err := s.storage.CountTermMatches(ctx, query, filters)
	if err != nil {
		return nil, err
	}

	results := make([]types.ResultRecord, 0, len(hits))
	for i := range hits {
		rec := s.termRecord(&hits[i])
		rec.EN = s.formatter.RenderMarked(hits[i].ENMarked)
		rec.RU = s.formatter.RenderMarked(hits[i].RUMarked)
		rec.Score = hits[i].Rank
		results = append(results, rec)
	}
	return &Response{Results: results, TotalMatched: total}, nil
}

func (s *Searcher) browseTerms(ctx context.Context, filters storage.SearchFilters, page, perPage int) (*Response, error) {
	hits, err := s.storage.BrowseTerms(ctx, filters, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	total, err := s.storage.CountTerms(ctx, filters)
	if err != nil {
		return nil, err
	}

	results := make([]types.ResultRecord, 0, len(hits))
	for i := range hits {
		rec := s.termRecord(&hits[i])
		rec.EN = s.formatter.Escape(hits[i].EN)
		rec.RU = s.formatter.Escape(hits[i].RU)
		results = append(results, rec)
	}
	return &Response{Results: results, TotalMatched: total}, nil
}

// termRecord fills the fields shared by both term paths; the caller sets
// en/ru, which differ in highlighting.
func (s *Searcher) termRecord(h *storage.TermHit) types.ResultRecord {
	return types.ResultRecord{
		ID:           h.ID,
		Kind:         types.EntityTerm,
		CategoryID:   h.CategoryID,
		CategoryName: s.formatter.Escape(h.CategoryName),
		AbbrEN:       s.formatter.Escape(h.AbbrEN),
		AbbrRU:       s.formatter.Escape(h.AbbrRU),
		DescrEN:      s.formatter.Escape(h.DescrEN),
		DescrRU:      s.formatter.Escape(h.DescrRU),
		Deleted:      h.DeletedOn != nil,
	}
}

// searchCommands scores every candidate command by query occurrence: the
// title counts double, each description counts once. Zero-score rows drop
// out; the rest sort by score descending with ties left in title order,
// which the storage pre-order plus a stable sort guarantees.
func (s *Searcher) searchCommands(ctx context.Context, query string, filters storage.SearchFilters, page, perPage int) (*Response, error) {
	hits, err := s.storage.ListCommandsForScan(ctx, filters)
	if err != nil {
		return nil, err
	}

	type scored struct {
		hit   *storage.CommandHit
		score int
	}
	matched := make([]scored, 0, len(hits))
	for i := range hits {
		sc := 0
		if containsFold(hits[i].Title, query) {
			sc += scoreTitle
		}
		if containsFold(hits[i].DescrEN, query) {
			sc += scoreDescr
		}
		if containsFold(hits[i].DescrRU, query) {
			sc += scoreDescr
		}
		if sc > 0 {
			matched = append(matched, scored{hit: &hits[i], score: sc})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	lo, hi := pageWindow(len(matched), page, perPage)
	results := make([]types.ResultRecord, 0, hi-lo)
	for _, m := range matched[lo:hi] {
		rec := s.commandRecord(m.hit)
		rec.Title = s.formatter.HighlightAll(m.hit.Title, query)
		rec.DescrEN = s.formatter.HighlightAll(m.hit.DescrEN, query)
		rec.DescrRU = s.formatter.HighlightAll(m.hit.DescrRU, query)
		score := float64(m.score)
		rec.Score = &score
		results = append(results, rec)
	}
	return &Response{Results: results, TotalMatched: len(matched)}, nil
}

func (s *Searcher) browseCommands(ctx context.Context, filters storage.SearchFilters, page, perPage int) (*Response, error) {
	hits, err := s.storage.BrowseCommands(ctx, filters, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	total, err := s.storage.CountCommands(ctx, filters)
	if err != nil {
		return nil, err
	}

	results := make([]types.ResultRecord, 0, len(hits))
	for i := range hits {
		rec := s.commandRecord(&hits[i])
		rec.Title = s.formatter.Escape(hits[i].Title)
		rec.DescrEN = s.formatter.Escape(hits[i].DescrEN)
		rec.DescrRU = s.formatter.Escape(hits[i].DescrRU)
		results = append(results, rec)
	}
	return &Response{Results: results, TotalMatched: total}, nil
}

func (s *Searcher) commandRecord(h *storage.CommandHit) types.ResultRecord {
	return types.ResultRecord{
		ID:           h.ID,
		Kind:         types.EntityCommand,
		CategoryID:   h.CategoryID,
		CategoryName: s.formatter.Escape(h.CategoryName),
		Deleted:      h.DeletedOn != nil,
	}
}

// normalizePage clamps the pagination inputs: page is at least 1, per-page
// lands in [1, maxPer] with a default for the zero value.
func (s *Searcher) normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage == 0 {
		perPage = s.defaultPer
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > s.maxPer {
		perPage = s.maxPer
	}
	return page, perPage
}

// pageWindow clips the [lo, hi) window for an in-memory result set; a page
// past the end is empty, never an error.
func pageWindow(n, page, perPage int) (int, int) {
	lo := (page - 1) * perPage
	if lo > n {
		lo = n
	}
	hi := lo + perPage
	if hi > n {
		hi = n
	}
	return lo, hi
}

// parseID reads a leading integer from the raw value, stopping at the first
// non-digit. Garbage parses to 0, an id nothing carries.
func parseID(raw string) int64 {
	s := strings.TrimSpace(raw)
	var neg bool
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}
