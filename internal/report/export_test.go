package report_test

import (
	"testing"

	"github.com/score-lens/scorelens/internal/analysis"
	"github.com/score-lens/scorelens/internal/report"
	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/stats"
	"github.com/score-lens/scorelens/internal/subject"
)

func seedInput(t *testing.T) report.Input {
	t.Helper()
	math, err := subject.New("Math", 150, 60, 80)
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	subjects := []subject.Config{math}
	ds := &roster.Dataset{
		Students: []roster.StudentRecord{
			{ID: "S1", Name: "Alice", School: "North", Class: "1",
				Marks: map[string]roster.Mark{"Math": {Score: 140}}},
			{ID: "S2", Name: "Bob", School: "North", Class: "1",
				Marks: map[string]roster.Mark{"Math": {Absent: true}}},
			{ID: "S3", Name: "Cara", School: "South", Class: "2",
				Marks: map[string]roster.Mark{"Math": {Score: 75}}},
		},
		Schools:  []string{"North", "South"},
		Subjects: subjects,
	}

	st := stats.ComputeSubject(math, ds, ds.Schools)
	total := stats.ComputeTotal(subjects, ds, ds.Schools)
	a, err := analysis.Generate([]stats.SubjectStatistics{st}, total)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	return report.Input{
		Subjects: subjects,
		Dataset:  ds,
		Stats:    []stats.SubjectStatistics{st},
		Total:    total,
		Analysis: a,
	}
}

func TestBuildSheetLayout(t *testing.T) {
	f, err := report.Build(seedInput(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	want := []string{
		"Math", "Total", "Students", "Overview", "Subjects",
		"Schools", "Recommendations", "Score Bands", "Cutoffs",
	}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheet %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuildStatsSheet(t *testing.T) {
	f, err := report.Build(seedInput(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue("Math", "A1")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if title != "Math (150 points)" {
		t.Fatalf("title: got %q", title)
	}

	// Row 3 is the first school row; the last data row is the district.
	school, _ := f.GetCellValue("Math", "A3")
	if school != "North" {
		t.Fatalf("first school row: got %q", school)
	}
	district, _ := f.GetCellValue("Math", "A5")
	if district != stats.DistrictSchool {
		t.Fatalf("district row: got %q", district)
	}
	// District rank cells stay blank.
	rank, _ := f.GetCellValue("Math", "D5")
	if rank != "" {
		t.Fatalf("district rank cell must be blank, got %q", rank)
	}
}

func TestBuildStudentsSheet(t *testing.T) {
	f, err := report.Build(seedInput(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	id, _ := f.GetCellValue("Students", "A2")
	if id != "S1" {
		t.Fatalf("first student id: got %q", id)
	}
	absent, _ := f.GetCellValue("Students", "E3")
	if absent != "absent" {
		t.Fatalf("absent cell: got %q", absent)
	}
	valid, _ := f.GetCellValue("Students", "G3")
	if valid != "FALSE" {
		t.Fatalf("absent student's total validity: got %q", valid)
	}
}

func TestBuildWithoutAnalysis(t *testing.T) {
	in := seedInput(t)
	in.Analysis = nil
	f, err := report.Build(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	for _, s := range f.GetSheetList() {
		if s == "Overview" || s == "Recommendations" {
			t.Fatalf("analysis sheets must be skipped without analysis, got %v", f.GetSheetList())
		}
	}
}

func TestBuildEmptyTotalSkipsBands(t *testing.T) {
	in := seedInput(t)
	// Invalidate every total: the lone subject becomes all absent.
	for i := range in.Dataset.Students {
		in.Dataset.Students[i].Marks = map[string]roster.Mark{"Math": {Absent: true}}
	}
	in.Stats = []stats.SubjectStatistics{stats.ComputeSubject(in.Subjects[0], in.Dataset, in.Dataset.Schools)}
	in.Total = stats.ComputeTotal(in.Subjects, in.Dataset, in.Dataset.Schools)
	in.Analysis = nil

	f, err := report.Build(in)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer f.Close()

	for _, s := range f.GetSheetList() {
		if s == "Score Bands" {
			t.Fatalf("band sheet must be skipped for an empty total")
		}
	}
	// Cutoff cells fall back to the n/a marker.
	v, _ := f.GetCellValue("Cutoffs", "B2")
	if v != "n/a" {
		t.Fatalf("empty cutoff cell: got %q", v)
	}
}
