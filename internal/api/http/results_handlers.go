package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/score-lens/scorelens/internal/report"
	"github.com/score-lens/scorelens/internal/session"
	"github.com/score-lens/scorelens/internal/stats"
)

type statisticsResp struct {
	Subjects []stats.SubjectStatistics `json:"subjects"`
	Total    stats.TotalStatistics     `json:"total"`
}

// GET /datasets/{id}/statistics
func GetStatisticsHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp statisticsResp
		err := store.View(chi.URLParam(r, "id"), func(sess *session.Session) error {
			if sess.Results == nil {
				return session.ErrNotComputed
			}
			resp.Subjects = sess.Results.Subjects
			resp.Total = sess.Results.Total
			return nil
		})
		if err != nil {
			httpError(w, "statistics: ", err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GET /datasets/{id}/analysis
func GetAnalysisHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		var unavailable string
		err := store.View(chi.URLParam(r, "id"), func(sess *session.Session) error {
			if sess.Results == nil {
				return session.ErrNotComputed
			}
			if sess.Results.Analysis == nil {
				unavailable = sess.Results.AnalysisErr
				return nil
			}
			var err error
			body, err = json.Marshal(sess.Results.Analysis)
			return err
		})
		if err != nil {
			httpError(w, "analysis: ", err)
			return
		}
		if unavailable != "" {
			http.Error(w, "analysis unavailable: "+unavailable, http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

// GET /datasets/{id}/report
// Streams the XLSX workbook for the computed session.
func ExportReportHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in report.Input
		err := store.View(id, func(sess *session.Session) error {
			if sess.Results == nil {
				return session.ErrNotComputed
			}
			in = report.Input{
				Subjects: sess.Registry.List(),
				Dataset:  sess.Dataset,
				Stats:    sess.Results.Subjects,
				Total:    sess.Results.Total,
				Analysis: sess.Results.Analysis,
			}
			return nil
		})
		if err != nil {
			httpError(w, "report: ", err)
			return
		}
		f, err := report.Build(in)
		if err != nil {
			http.Error(w, "report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "score-report-"+id+".xlsx"))
		_ = f.Write(w)
	}
}
