// Package http holds the gateway's request handlers. Handlers are thin:
// they parse input, call the session store, and encode the result.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/session"
	"github.com/score-lens/scorelens/internal/subject"
)

type uploadResp struct {
	ID       string           `json:"id"`
	Students int              `json:"students"`
	Schools  []string         `json:"schools"`
	Subjects []subject.Config `json:"subjects"`
	Warnings []string         `json:"warnings,omitempty"`
}

// POST /datasets
// Multipart upload: "file" is a CSV or XLSX score export. The session's
// subject registry comes from the server's subjects file when one is
// configured, otherwise from header detection.
func UploadDatasetHandler(store *session.Store, tmpl *subject.Registry, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		var subjects []subject.Config
		if tmpl != nil {
			subjects = tmpl.List()
		}

		var ds *roster.Dataset
		if strings.EqualFold(filepath.Ext(hdr.Filename), ".csv") {
			ds, err = roster.FromCSV(file, subjects)
		} else {
			ds, err = roster.FromXLSX(file, subjects)
		}
		if err != nil {
			http.Error(w, "ingest: "+err.Error(), http.StatusBadRequest)
			return
		}

		sess := store.Create(subject.NewRegistry(ds.Subjects...), ds)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(uploadResp{
			ID:       sess.ID,
			Students: len(ds.Students),
			Schools:  ds.Schools,
			Subjects: ds.Subjects,
			Warnings: ds.Warnings,
		})
	}
}

// POST /datasets/{id}/compute
func ComputeHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := store.Compute(id)
		if err != nil {
			httpError(w, "compute: ", err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// DELETE /datasets/{id}
func DeleteDatasetHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Delete(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func httpError(w http.ResponseWriter, prefix string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrNotComputed):
		code = http.StatusConflict
	case errors.Is(err, session.ErrSubjectExists):
		code = http.StatusConflict
	case errors.Is(err, session.ErrSubjectUnknown):
		code = http.StatusNotFound
	}
	http.Error(w, prefix+err.Error(), code)
}
