package editor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies; page trees run large but bounded.
const maxBodyBytes = 8 << 20

// RegisterHTTP mounts the editing API on a chi router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleImport)
		r.Get("/{key}", s.handleGet)
		r.Delete("/{key}", s.handleDelete)
		r.Get("/{key}/slots", s.handleSlots)
		r.Post("/{key}/replace", s.handleReplace)
		r.Post("/{key}/instruct", s.handleInstruct)
		r.Post("/{key}/edits", s.handleEdits)
	})
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	pages, err := s.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, pages)
}

func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageKey string          `json:"page_key"`
		Tree    json.RawMessage `json:"tree"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err)
		return
	}
	if len(req.Tree) == 0 {
		writeError(w, 400, errors.New("tree is required"))
		return
	}
	key, rev, err := s.Import(r.Context(), req.PageKey, req.Tree)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 201, map[string]string{"page_key": key, "revision": rev})
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	blob, err := s.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(blob)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *Service) handleSlots(w http.ResponseWriter, r *http.Request) {
	res, err := s.Slots(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleReplace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Find        string `json:"find"`
		Replacement string `json:"replacement"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err)
		return
	}
	res, err := s.Replace(r.Context(), chi.URLParam(r, "key"), req.Find, req.Replacement)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleInstruct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruction string `json:"instruction"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err)
		return
	}
	res, err := s.Instruct(r.Context(), chi.URLParam(r, "key"), req.Instruction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleEdits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Edits []any `json:"edits"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, 400, err)
		return
	}
	res, err := s.ApplyEdits(r.Context(), chi.URLParam(r, "key"), req.Edits)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writeServiceError maps service sentinels to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, ErrInvalidInput):
		writeError(w, 400, err)
	case errors.Is(err, ErrProposal):
		writeError(w, 502, err)
	default:
		writeError(w, 500, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
