package server

import (
	"net/http"
	"strconv"

	"github.com/termdex/termdex/internal/metrics"
	"github.com/termdex/termdex/internal/searcher"
	"github.com/termdex/termdex/pkg/types"
)

// searchResponse is one page of results plus pagination metadata.
type searchResponse struct {
	Results []types.ResultRecord `json:"results"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
	TookMS  int64                `json:"took_ms"`
}

// GET /terms?q=&category_id=&include_deleted=&per=&page=
func (s *Server) searchTerms(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, types.EntityTerm)
}

// GET /commands?q=&category_id=&include_deleted=&per=&page=
func (s *Server) searchCommands(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, types.EntityCommand)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, kind types.EntityKind) {
	q := r.URL.Query()
	req := searcher.Request{
		Kind:           kind,
		Query:          q.Get("q"),
		CategoryID:     q.Get("category_id"),
		IncludeDeleted: boolParam(q.Get("include_deleted")),
		PerPage:        intParam(q.Get("per")),
		Page:           intParam(q.Get("page")),
	}

	resp, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	metrics.ObserveSearch(string(kind))

	writeJSON(w, http.StatusOK, searchResponse{
		Results: resp.Results,
		Total:   resp.TotalMatched,
		Page:    resp.Page,
		PerPage: resp.PerPage,
		TookMS:  resp.Duration.Milliseconds(),
	})
}

// GET /commands/{id}/examples?include_deleted=
func (s *Server) listExamples(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	// 404 before listing when the command itself is gone
	if _, err := s.storage.GetCommand(r.Context(), id); err != nil {
		s.handleStorageError(w, r, err)
		return
	}

	includeDeleted := boolParam(r.URL.Query().Get("include_deleted"))
	examples, err := s.storage.ListExamplesByCommand(r.Context(), id, includeDeleted)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}

	out := make([]exampleJSON, 0, len(examples))
	for _, e := range examples {
		out = append(out, toExampleJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func boolParam(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func intParam(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
