package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/score-lens/scorelens/internal/session"
	"github.com/score-lens/scorelens/internal/subject"
)

type subjectReq struct {
	Name              string  `json:"name"`
	MaxScore          float64 `json:"max_score"`
	PassPercent       float64 `json:"pass_percent"`
	ExcellencePercent float64 `json:"excellence_percent"`
}

func (sr subjectReq) config() (subject.Config, error) {
	return subject.New(sr.Name, sr.MaxScore, sr.PassPercent, sr.ExcellencePercent)
}

// GET /datasets/{id}/subjects
func ListSubjectsHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := store.Subjects(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, "subjects: ", err)
			return
		}
		_ = json.NewEncoder(w).Encode(subjects)
	}
}

// POST /datasets/{id}/subjects
func AddSubjectHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subjectReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg, err := req.config()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.AddSubject(chi.URLParam(r, "id"), cfg); err != nil {
			httpError(w, "add subject: ", err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(cfg)
	}
}

// PUT /datasets/{id}/subjects/{name}
func UpdateSubjectHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" {
			http.Error(w, "subject name required", http.StatusBadRequest)
			return
		}
		var req subjectReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg, err := req.config()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.UpdateSubject(chi.URLParam(r, "id"), name, cfg); err != nil {
			httpError(w, "update subject: ", err)
			return
		}
		_ = json.NewEncoder(w).Encode(cfg)
	}
}

// DELETE /datasets/{id}/subjects/{name}
func RemoveSubjectHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" {
			http.Error(w, "subject name required", http.StatusBadRequest)
			return
		}
		if err := store.RemoveSubject(chi.URLParam(r, "id"), name); err != nil {
			httpError(w, "remove subject: ", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
