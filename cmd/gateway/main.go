package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/score-lens/scorelens/internal/api/http"
	"github.com/score-lens/scorelens/internal/config"
	"github.com/score-lens/scorelens/internal/session"
	"github.com/score-lens/scorelens/internal/subject"
)

func main() {
	cfg := config.FromEnv()

	// Optional server-wide subject registry; uploads fall back to header
	// detection when no file is configured.
	var tmpl *subject.Registry
	if cfg.SubjectsPath != "" {
		reg, err := subject.LoadFile(cfg.SubjectsPath)
		if err != nil {
			log.Fatalf("subjects file: %v", err)
		}
		tmpl = reg
		log.Printf("loaded %d subjects from %s", reg.Len(), cfg.SubjectsPath)
	}

	store := session.NewStore()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/datasets", func(dr chi.Router) {
		dr.Post("/", api.UploadDatasetHandler(store, tmpl, cfg.MaxUploadMB*1024*1024))
		dr.Route("/{id}", func(sr chi.Router) {
			sr.Delete("/", api.DeleteDatasetHandler(store))
			sr.Post("/compute", api.ComputeHandler(store))
			sr.Get("/statistics", api.GetStatisticsHandler(store))
			sr.Get("/analysis", api.GetAnalysisHandler(store))
			sr.Get("/report", api.ExportReportHandler(store))

			sr.Get("/subjects", api.ListSubjectsHandler(store))
			sr.Post("/subjects", api.AddSubjectHandler(store))
			sr.Put("/subjects/{name}", api.UpdateSubjectHandler(store))
			sr.Delete("/subjects/{name}", api.RemoveSubjectHandler(store))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s)", cfg.HTTPAddr, cfg.Mode)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
