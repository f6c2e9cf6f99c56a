package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/score-lens/scorelens/internal/subject"
)

// Column contract: identity columns resolved by header name (aliases
// below), then per subject a "<name> Absent" marker column (Y/N) and a
// "<name>" score column. Resolution is by header text, never position.
const absentSuffix = " absent"

var (
	idAliases     = []string{"student_id", "student id", "id", "exam no", "exam_no"}
	nameAliases   = []string{"name", "student name", "student_name"}
	schoolAliases = []string{"school", "school name", "school_name"}
	classAliases  = []string{"class", "class name", "class_name"}
)

// FromCSV ingests a CSV export. subjects may be nil, in which case the
// subject set is detected from the header.
func FromCSV(r io.Reader, subjects []subject.Config) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: read csv: %w", err)
	}
	return FromRows(rows, subjects)
}

// FromXLSX ingests the first sheet of an XLSX workbook.
func FromXLSX(r io.Reader, subjects []subject.Config) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster: open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster: xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %q: %w", sheets[0], err)
	}
	return FromRows(rows, subjects)
}

// FromRows builds a cleaned dataset from a header row plus data rows.
func FromRows(rows [][]string, subjects []subject.Config) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster: empty input")
	}
	header := rows[0]

	idIdx := findColumn(header, idAliases)
	nameIdx := findColumn(header, nameAliases)
	schoolIdx := findColumn(header, schoolAliases)
	classIdx := findColumn(header, classAliases)
	if schoolIdx < 0 {
		return nil, fmt.Errorf("roster: missing school column (one of %v)", schoolAliases)
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("roster: missing student id column (one of %v)", idAliases)
	}

	if subjects == nil {
		subjects = DetectSubjects(header)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("roster: no subject columns found")
	}

	ds := &Dataset{Subjects: subjects}

	type colPair struct {
		score, absent int
		placeholder   bool
	}
	pairs := make([]colPair, len(subjects))
	for i, cfg := range subjects {
		p := colPair{
			score:  findColumn(header, []string{cfg.Name}),
			absent: findColumn(header, []string{cfg.Name + absentSuffix, cfg.Name + "_absent"}),
		}
		if p.score < 0 || p.absent < 0 {
			// No resolvable column pair: every student gets a
			// zero-score, all-absent placeholder for this subject.
			p.placeholder = true
			ds.Warnings = append(ds.Warnings,
				fmt.Sprintf("subject %q: no absence/score column pair in the dataset; treated as all absent", cfg.Name))
		}
		pairs[i] = p
	}

	nonNumeric := make([]int, len(subjects))
	schoolSet := map[string]struct{}{}

	for rowNum, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		row = pad(row, len(header))
		rec := StudentRecord{
			ID:     cell(row, idIdx),
			Name:   cell(row, nameIdx),
			School: cell(row, schoolIdx),
			Class:  cell(row, classIdx),
			Marks:  make(map[string]Mark, len(subjects)),
		}
		if rec.School == "" {
			return nil, fmt.Errorf("roster: row %d: empty school name", rowNum+2)
		}
		for i, cfg := range subjects {
			p := pairs[i]
			if p.placeholder {
				rec.Marks[cfg.Name] = Mark{Absent: true}
				continue
			}
			m := Mark{Absent: isAbsentMarker(cell(row, p.absent))}
			raw := cell(row, p.score)
			if raw == "" {
				m.Missing = true
			} else if v, err := strconv.ParseFloat(raw, 64); err != nil {
				m.Missing = true
				nonNumeric[i]++
			} else {
				m.Score = v
			}
			rec.Marks[cfg.Name] = m
		}
		schoolSet[rec.School] = struct{}{}
		ds.Students = append(ds.Students, rec)
	}

	for i, n := range nonNumeric {
		if n > 0 {
			ds.Warnings = append(ds.Warnings,
				fmt.Sprintf("subject %q: %d non-numeric scores treated as missing", subjects[i].Name, n))
		}
	}
	for s := range schoolSet {
		ds.Schools = append(ds.Schools, s)
	}
	sort.Strings(ds.Schools)
	return ds, nil
}

// DetectSubjects scans the header for "<name> Absent"/"<name>" column
// pairs and returns default-threshold configurations in header order.
func DetectSubjects(header []string) []subject.Config {
	var out []subject.Config
	for _, h := range header {
		h = strings.TrimSpace(h)
		if !strings.HasSuffix(strings.ToLower(h), absentSuffix) {
			continue
		}
		name := strings.TrimSpace(h[:len(h)-len(absentSuffix)])
		if name == "" || findColumn(header, []string{name}) < 0 {
			continue
		}
		cfg, err := subject.Default(name)
		if err != nil {
			continue
		}
		out = append(out, cfg)
	}
	return out
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		low := strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if low == strings.ToLower(a) {
				return i
			}
		}
	}
	return -1
}

func isAbsentMarker(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "Y")
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
