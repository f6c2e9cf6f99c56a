package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/score-lens/scorelens/internal/api/http"
	"github.com/score-lens/scorelens/internal/session"
	"github.com/score-lens/scorelens/internal/subject"
)

const sampleCSV = `student_id,name,school,class,Math Absent,Math,English Absent,English
S1,Alice,North,1,N,140,N,110
S2,Bob,North,1,N,95,N,88
S3,Cara,South,2,N,120,Y,
S4,Dan,South,2,N,60,N,45
`

func newRouter(store *session.Store) http.Handler {
	r := chi.NewRouter()
	r.Route("/datasets", func(dr chi.Router) {
		dr.Post("/", api.UploadDatasetHandler(store, nil, 1<<20))
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
	return r
}

func uploadCSV(t *testing.T, h http.Handler, csv string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scores.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID       string           `json:"id"`
		Students int              `json:"students"`
		Subjects []subject.Config `json:"subjects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("upload response missing id")
	}
	if resp.Students != 4 || len(resp.Subjects) != 2 {
		t.Fatalf("upload response: %+v", resp)
	}
	return resp.ID
}

func do(h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadComputeStatisticsFlow(t *testing.T) {
	h := newRouter(session.NewStore())
	id := uploadCSV(t, h, sampleCSV)

	rec := do(h, "POST", "/datasets/"+id+"/compute", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("compute: want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(h, "GET", "/datasets/"+id+"/statistics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics: want 200, got %d", rec.Code)
	}
	var stats struct {
		Subjects []struct {
			Subject string `json:"subject"`
		} `json:"subjects"`
		Total struct {
			Subject string `json:"subject"`
		} `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if len(stats.Subjects) != 2 || stats.Total.Subject != "Total" {
		t.Fatalf("statistics body: %s", rec.Body.String())
	}

	rec = do(h, "GET", "/datasets/"+id+"/analysis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis: want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(h, "GET", "/datasets/"+id+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report: want 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("report content type: got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Fatalf("report disposition: got %q", cd)
	}
}

func TestResultsRequireCompute(t *testing.T) {
	h := newRouter(session.NewStore())
	id := uploadCSV(t, h, sampleCSV)

	for _, path := range []string{"/statistics", "/analysis", "/report"} {
		rec := do(h, "GET", "/datasets/"+id+path, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("%s before compute: want 409, got %d", path, rec.Code)
		}
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	h := newRouter(session.NewStore())
	rec := do(h, "POST", "/datasets/nope/compute", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestSubjectCRUDInvalidatesResults(t *testing.T) {
	h := newRouter(session.NewStore())
	id := uploadCSV(t, h, sampleCSV)

	if rec := do(h, "POST", "/datasets/"+id+"/compute", ""); rec.Code != http.StatusOK {
		t.Fatalf("compute: got %d", rec.Code)
	}

	body := `{"name":"Science","max_score":180,"pass_percent":60,"excellence_percent":80}`
	if rec := do(h, "POST", "/datasets/"+id+"/subjects", body); rec.Code != http.StatusCreated {
		t.Fatalf("add subject: want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The configuration change drops the computed results.
	if rec := do(h, "GET", "/datasets/"+id+"/statistics", ""); rec.Code != http.StatusConflict {
		t.Fatalf("statistics after config change: want 409, got %d", rec.Code)
	}

	rec := do(h, "GET", "/datasets/"+id+"/subjects", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list subjects: got %d", rec.Code)
	}
	var subjects []subject.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &subjects); err != nil {
		t.Fatalf("decode subjects: %v", err)
	}
	if len(subjects) != 3 {
		t.Fatalf("want 3 subjects, got %v", subjects)
	}

	update := `{"name":"Math","max_score":100,"pass_percent":50,"excellence_percent":70}`
	if rec := do(h, "PUT", "/datasets/"+id+"/subjects/Math", update); rec.Code != http.StatusOK {
		t.Fatalf("update subject: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, "DELETE", "/datasets/"+id+"/subjects/Science", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("remove subject: got %d", rec.Code)
	}

	if rec := do(h, "POST", "/datasets/"+id+"/subjects", `{"name":"Math","max_score":150}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate subject add: want 409, got %d", rec.Code)
	}
	update = `{"name":"Science","max_score":180}`
	if rec := do(h, "PUT", "/datasets/"+id+"/subjects/Science", update); rec.Code != http.StatusNotFound {
		t.Fatalf("update of removed subject: want 404, got %d", rec.Code)
	}
}

func TestInvalidSubjectPayload(t *testing.T) {
	h := newRouter(session.NewStore())
	id := uploadCSV(t, h, sampleCSV)

	if rec := do(h, "POST", "/datasets/"+id+"/subjects", `{"name":"","max_score":100}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name: want 400, got %d", rec.Code)
	}
	if rec := do(h, "POST", "/datasets/"+id+"/subjects", `{"name":"Art","max_score":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero max: want 400, got %d", rec.Code)
	}
}

func TestDeleteDataset(t *testing.T) {
	h := newRouter(session.NewStore())
	id := uploadCSV(t, h, sampleCSV)

	if rec := do(h, "DELETE", "/datasets/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rec.Code)
	}
	if rec := do(h, "POST", "/datasets/"+id+"/compute", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("compute after delete: want 404, got %d", rec.Code)
	}
}
