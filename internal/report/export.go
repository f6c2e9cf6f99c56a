// Package report renders computed statistics and analysis into an XLSX
// workbook for download. It only reads the engine's outputs; it never
// recomputes.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/score-lens/scorelens/internal/analysis"
	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/stats"
	"github.com/score-lens/scorelens/internal/subject"
)

// Input bundles everything the workbook shows.
type Input struct {
	Subjects []subject.Config
	Dataset  *roster.Dataset
	Stats    []stats.SubjectStatistics
	Total    stats.TotalStatistics
	Analysis *analysis.Result
}

var statsHeader = []interface{}{
	"School", "Students",
	"Pass Rate %", "Rank",
	"Excellence Rate %", "Rank",
	"Average", "Rank",
	"Bottom 20% %", "Rank",
	"Top 30% %", "Rank",
}

// Build assembles the workbook: one sheet per subject, the total sheet,
// the student roster with derived totals, the analysis sheets, the
// total-score band distribution, and the cutoff lines.
func Build(in Input) (*excelize.File, error) {
	f := excelize.NewFile()
	first := true

	addSheet := func(name string) (string, error) {
		name = sheetName(name)
		if first {
			first = false
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return "", err
			}
			return name, nil
		}
		if _, err := f.NewSheet(name); err != nil {
			return "", err
		}
		return name, nil
	}

	for _, s := range in.Stats {
		sheet, err := addSheet(s.Subject)
		if err != nil {
			return nil, fmt.Errorf("report: sheet %q: %w", s.Subject, err)
		}
		if err := writeStats(f, sheet, s); err != nil {
			return nil, fmt.Errorf("report: sheet %q: %w", s.Subject, err)
		}
	}

	sheet, err := addSheet("Total")
	if err != nil {
		return nil, fmt.Errorf("report: total sheet: %w", err)
	}
	if err := writeStats(f, sheet, in.Total.SubjectStatistics); err != nil {
		return nil, fmt.Errorf("report: total sheet: %w", err)
	}
	note := "Note: students who missed any subject are excluded from total statistics."
	if err := f.SetCellValue(sheet, cellAt(1, len(in.Total.Schools)+4), note); err != nil {
		return nil, err
	}

	if err := writeStudents(f, addSheet, in); err != nil {
		return nil, err
	}
	if in.Analysis != nil {
		if err := writeAnalysis(f, addSheet, in.Analysis); err != nil {
			return nil, err
		}
	}
	if !in.Total.Empty {
		bands := stats.TotalScoreBands(in.Subjects, in.Dataset, in.Dataset.Schools, stats.DefaultBandStep)
		if err := writeBands(f, addSheet, bands); err != nil {
			return nil, err
		}
	}
	if err := writeCutoffs(f, addSheet, in); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeStats(f *excelize.File, sheet string, s stats.SubjectStatistics) error {
	title := fmt.Sprintf("%s (%d points)", s.Subject, int(s.Cutoffs.MaxScore))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if s.Empty {
		return f.SetCellValue(sheet, "A2",
			fmt.Sprintf("No eligible students. Pass line %.1f, excellence line %.1f.",
				s.Cutoffs.PassLine, s.Cutoffs.ExcellenceLine))
	}
	if err := f.SetSheetRow(sheet, "A2", &statsHeader); err != nil {
		return err
	}
	for i, row := range s.Schools {
		vals := []interface{}{
			row.School, row.Count,
			round2(row.PassRate), rankCell(row.PassRank),
			round2(row.ExcellenceRate), rankCell(row.ExcellenceRank),
			round2(row.AvgScore), rankCell(row.AvgRank),
			round2(row.Bottom20Rate), rankCell(row.Bottom20Rank),
			round2(row.Top30Rate), rankCell(row.Top30Rank),
		}
		if err := f.SetSheetRow(sheet, cellAt(1, i+3), &vals); err != nil {
			return err
		}
	}
	return nil
}

func writeStudents(f *excelize.File, addSheet func(string) (string, error), in Input) error {
	sheet, err := addSheet("Students")
	if err != nil {
		return err
	}
	header := []interface{}{"Student ID", "Name", "School", "Class"}
	for _, cfg := range in.Subjects {
		header = append(header, cfg.Name)
	}
	header = append(header, "Total", "Valid Total")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	totals := stats.StudentTotals(in.Subjects, in.Dataset)
	for i, st := range in.Dataset.Students {
		vals := []interface{}{st.ID, st.Name, st.School, st.Class}
		for _, cfg := range in.Subjects {
			m := st.Mark(cfg.Name)
			switch {
			case m.Absent:
				vals = append(vals, "absent")
			case m.Missing:
				vals = append(vals, "")
			default:
				vals = append(vals, m.Score)
			}
		}
		ts := totals[st.ID]
		vals = append(vals, ts.Total, ts.Valid)
		if err := f.SetSheetRow(sheet, cellAt(1, i+2), &vals); err != nil {
			return err
		}
	}
	return nil
}

func writeAnalysis(f *excelize.File, addSheet func(string) (string, error), a *analysis.Result) error {
	sheet, err := addSheet("Overview")
	if err != nil {
		return err
	}
	overview := [][]interface{}{
		{"Summary", a.Overall.Summary},
		{"Performance Level", string(a.Overall.Level)},
		{"Pass Rate %", round2(a.Overall.PassRate)},
		{"Excellence Rate %", round2(a.Overall.ExcellenceRate)},
		{"Average", round2(a.Overall.AvgScore)},
	}
	for i, row := range overview {
		vals := row
		if err := f.SetSheetRow(sheet, cellAt(1, i+1), &vals); err != nil {
			return err
		}
	}

	sheet, err = addSheet("Subjects")
	if err != nil {
		return err
	}
	subjHeader := []interface{}{
		"Subject", "Average", "Pass Rate %", "Excellence Rate %",
		"Best School", "Best Avg", "Worst School", "Worst Avg", "Gap",
	}
	if err := f.SetSheetRow(sheet, "A1", &subjHeader); err != nil {
		return err
	}
	for i, s := range a.Subjects {
		vals := []interface{}{
			s.Subject, round2(s.AvgScore), round2(s.PassRate), round2(s.ExcellenceRate),
			s.BestSchool, round2(s.BestAvg), s.WorstSchool, round2(s.WorstAvg), round2(s.Gap),
		}
		if err := f.SetSheetRow(sheet, cellAt(1, i+2), &vals); err != nil {
			return err
		}
	}

	sheet, err = addSheet("Schools")
	if err != nil {
		return err
	}
	schoolHeader := []interface{}{
		"School", "Total Avg", "Total Rank", "Pass Rate %", "Excellence Rate %",
		"Top 30% %", "Bottom 20% %", "Mean Subject Rank", "Strongest Subject", "Weakest Subject",
	}
	if err := f.SetSheetRow(sheet, "A1", &schoolHeader); err != nil {
		return err
	}
	for i, s := range a.Schools {
		vals := []interface{}{
			s.School, round2(s.TotalAvg), s.TotalRank, round2(s.PassRate), round2(s.ExcellenceRate),
			round2(s.Top30Rate), round2(s.Bottom20Rate), round2(s.MeanAvgRank),
			s.StrengthSubject, s.WeaknessSubject,
		}
		if err := f.SetSheetRow(sheet, cellAt(1, i+2), &vals); err != nil {
			return err
		}
	}

	sheet, err = addSheet("Recommendations")
	if err != nil {
		return err
	}
	recHeader := []interface{}{"Scope", "Severity", "Target", "Recommendation"}
	if err := f.SetSheetRow(sheet, "A1", &recHeader); err != nil {
		return err
	}
	if len(a.Recommendations) == 0 {
		return f.SetCellValue(sheet, "A2", analysis.PerformingWell)
	}
	for i, r := range a.Recommendations {
		vals := []interface{}{string(r.Scope), string(r.Severity), r.Target, r.Message}
		if err := f.SetSheetRow(sheet, cellAt(1, i+2), &vals); err != nil {
			return err
		}
	}
	return nil
}

func writeBands(f *excelize.File, addSheet func(string) (string, error), bands stats.ScoreBands) error {
	sheet, err := addSheet("Score Bands")
	if err != nil {
		return err
	}
	header := []interface{}{"School"}
	for _, l := range bands.Labels {
		header = append(header, l)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range bands.Rows {
		vals := []interface{}{row.School}
		for _, c := range row.Counts {
			vals = append(vals, c)
		}
		if err := f.SetSheetRow(sheet, cellAt(1, i+2), &vals); err != nil {
			return err
		}
	}
	return nil
}

func writeCutoffs(f *excelize.File, addSheet func(string) (string, error), in Input) error {
	sheet, err := addSheet("Cutoffs")
	if err != nil {
		return err
	}
	header := []interface{}{"Line"}
	for _, s := range in.Stats {
		header = append(header, s.Subject)
	}
	header = append(header, stats.TotalSubjectName)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lineRow := func(label string, pick func(stats.Cutoffs) float64) []interface{} {
		vals := []interface{}{label}
		for _, s := range in.Stats {
			if s.Empty {
				vals = append(vals, "n/a")
			} else {
				vals = append(vals, pick(s.Cutoffs))
			}
		}
		if in.Total.Empty {
			vals = append(vals, "n/a")
		} else {
			vals = append(vals, pick(in.Total.Cutoffs))
		}
		return vals
	}
	bottom := lineRow("Bottom 20%", func(c stats.Cutoffs) float64 { return c.Bottom20Line })
	if err := f.SetSheetRow(sheet, "A2", &bottom); err != nil {
		return err
	}
	top := lineRow("Top 30%", func(c stats.Cutoffs) float64 { return c.Top30Line })
	return f.SetSheetRow(sheet, "A3", &top)
}

func rankCell(rank int) interface{} {
	if rank == 0 {
		return "" // district row carries no ranks
	}
	return rank
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func cellAt(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName keeps names inside the 31-char XLSX limit and strips
// characters the format forbids.
func sheetName(name string) string {
	repl := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	name = strings.TrimSpace(repl.Replace(name))
	if name == "" {
		name = "Sheet"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
