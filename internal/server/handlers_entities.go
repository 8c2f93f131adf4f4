package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/termdex/termdex/internal/storage"
)

// JSON shapes for the entity endpoints. Storage rows map 1:1; timestamps
// are RFC 3339, deleted_on is absent on active rows.

type categoryJSON struct {
	ID        int64      `json:"id"`
	NameEN    string     `json:"name_en"`
	NameRU    string     `json:"name_ru,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedOn *time.Time `json:"deleted_on,omitempty"`
}

type termJSON struct {
	ID         int64      `json:"id"`
	CategoryID int64      `json:"category_id"`
	EN         string     `json:"en"`
	AbbrEN     string     `json:"abbr_en,omitempty"`
	RU         string     `json:"ru"`
	AbbrRU     string     `json:"abbr_ru,omitempty"`
	DescrEN    string     `json:"descr_en,omitempty"`
	DescrRU    string     `json:"descr_ru,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedOn  *time.Time `json:"deleted_on,omitempty"`
}

type commandJSON struct {
	ID         int64      `json:"id"`
	CategoryID int64      `json:"category_id"`
	Title      string     `json:"title"`
	DescrEN    string     `json:"descr_en,omitempty"`
	DescrRU    string     `json:"descr_ru,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedOn  *time.Time `json:"deleted_on,omitempty"`
}

type exampleJSON struct {
	ID        int64      `json:"id"`
	CommandID int64      `json:"command_id"`
	Title     string     `json:"title"`
	DescrEN   string     `json:"descr_en,omitempty"`
	DescrRU   string     `json:"descr_ru,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedOn *time.Time `json:"deleted_on,omitempty"`
}

func toCategoryJSON(c *storage.Category) categoryJSON {
	return categoryJSON{
		ID: c.ID, NameEN: c.NameEN, NameRU: c.NameRU,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, DeletedOn: c.DeletedOn,
	}
}

func toTermJSON(t *storage.Term) termJSON {
	return termJSON{
		ID: t.ID, CategoryID: t.CategoryID,
		EN: t.EN, AbbrEN: t.AbbrEN, RU: t.RU, AbbrRU: t.AbbrRU,
		DescrEN: t.DescrEN, DescrRU: t.DescrRU,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, DeletedOn: t.DeletedOn,
	}
}

func toCommandJSON(c *storage.Command) commandJSON {
	return commandJSON{
		ID: c.ID, CategoryID: c.CategoryID, Title: c.Title,
		DescrEN: c.DescrEN, DescrRU: c.DescrRU,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, DeletedOn: c.DeletedOn,
	}
}

func toExampleJSON(e *storage.Example) exampleJSON {
	return exampleJSON{
		ID: e.ID, CommandID: e.CommandID, Title: e.Title,
		DescrEN: e.DescrEN, DescrRU: e.DescrRU,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, DeletedOn: e.DeletedOn,
	}
}

type categoryRequest struct {
	NameEN string `json:"name_en"`
	NameRU string `json:"name_ru"`
}

type termRequest struct {
	CategoryID int64  `json:"category_id"`
	EN         string `json:"en"`
	AbbrEN     string `json:"abbr_en"`
	RU         string `json:"ru"`
	AbbrRU     string `json:"abbr_ru"`
	DescrEN    string `json:"descr_en"`
	DescrRU    string `json:"descr_ru"`
}

type commandRequest struct {
	CategoryID int64  `json:"category_id"`
	Title      string `json:"title"`
	DescrEN    string `json:"descr_en"`
	DescrRU    string `json:"descr_ru"`
}

type exampleRequest struct {
	CommandID int64  `json:"command_id"`
	Title     string `json:"title"`
	DescrEN   string `json:"descr_en"`
	DescrRU   string `json:"descr_ru"`
}

// idParam parses the {id} route parameter; a malformed id is a 404, the
// same as an id that references nothing.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Categories

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := &storage.Category{NameEN: req.NameEN, NameRU: req.NameRU}
	if err := s.storage.CreateCategory(r.Context(), c); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := s.storage.GetCategory(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.storage.GetCategory(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	c.NameEN = req.NameEN
	c.NameRU = req.NameRU
	if err := s.storage.UpdateCategory(r.Context(), c); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	includeDeleted := boolParam(r.URL.Query().Get("include_deleted"))
	cats, err := s.storage.ListCategories(r.Context(), includeDeleted)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) softDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.SoftDeleteCategory)
}

func (s *Server) restoreCategory(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.RestoreCategory)
}

func (s *Server) hardDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.HardDeleteCategory)
}

// Terms

func (s *Server) createTerm(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t := termFromRequest(req)
	if err := s.storage.CreateTerm(r.Context(), t); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTermJSON(t))
}

func (s *Server) getTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := s.storage.GetTerm(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTermJSON(t))
}

func (s *Server) updateTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req termRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := s.storage.GetTerm(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	updated := termFromRequest(req)
	updated.ID = t.ID
	updated.DeletedOn = t.DeletedOn
	if err := s.storage.UpdateTerm(r.Context(), updated); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTermJSON(updated))
}

func termFromRequest(req termRequest) *storage.Term {
	return &storage.Term{
		CategoryID: req.CategoryID,
		EN:         req.EN, AbbrEN: req.AbbrEN,
		RU: req.RU, AbbrRU: req.AbbrRU,
		DescrEN: req.DescrEN, DescrRU: req.DescrRU,
	}
}

func (s *Server) softDeleteTerm(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.SoftDeleteTerm)
}

func (s *Server) restoreTerm(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.RestoreTerm)
}

func (s *Server) hardDeleteTerm(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.HardDeleteTerm)
}

// Commands

func (s *Server) createCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := &storage.Command{
		CategoryID: req.CategoryID, Title: req.Title,
		DescrEN: req.DescrEN, DescrRU: req.DescrRU,
	}
	if err := s.storage.CreateCommand(r.Context(), c); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommandJSON(c))
}

func (s *Server) getCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := s.storage.GetCommand(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommandJSON(c))
}

func (s *Server) updateCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.storage.GetCommand(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	c.CategoryID = req.CategoryID
	c.Title = req.Title
	c.DescrEN = req.DescrEN
	c.DescrRU = req.DescrRU
	if err := s.storage.UpdateCommand(r.Context(), c); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommandJSON(c))
}

func (s *Server) softDeleteCommand(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.SoftDeleteCommand)
}

func (s *Server) restoreCommand(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.RestoreCommand)
}

func (s *Server) hardDeleteCommand(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.HardDeleteCommand)
}

// Examples

func (s *Server) createExample(w http.ResponseWriter, r *http.Request) {
	var req exampleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e := &storage.Example{
		CommandID: req.CommandID, Title: req.Title,
		DescrEN: req.DescrEN, DescrRU: req.DescrRU,
	}
	if err := s.storage.CreateExample(r.Context(), e); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExampleJSON(e))
}

func (s *Server) getExample(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	e, err := s.storage.GetExample(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExampleJSON(e))
}

func (s *Server) updateExample(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req exampleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := s.storage.GetExample(r.Context(), id)
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	e.CommandID = req.CommandID
	e.Title = req.Title
	e.DescrEN = req.DescrEN
	e.DescrRU = req.DescrRU
	if err := s.storage.UpdateExample(r.Context(), e); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExampleJSON(e))
}

func (s *Server) softDeleteExample(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.SoftDeleteExample)
}

func (s *Server) restoreExample(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.RestoreExample)
}

func (s *Server) hardDeleteExample(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.storage.HardDeleteExample)
}

// lifecycle runs one of the id-only mutations (soft delete, restore, hard
// delete) and answers 204 on success.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), id); err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
