// Package roster holds the cleaned score dataset: one record per student
// with a (score, absent) pair per subject. Records are produced once by
// ingestion and are read-only to the statistics engine.
package roster

import "github.com/score-lens/scorelens/internal/subject"

// Mark is one student's result in one subject.
type Mark struct {
	Score   float64 `json:"score"`
	Missing bool    `json:"missing,omitempty"` // no numeric score in the source
	Absent  bool    `json:"absent,omitempty"`  // marked absent on the exam
}

// Eligible reports whether the mark counts toward subject statistics.
func (m Mark) Eligible() bool { return !m.Absent && !m.Missing }

// StudentRecord is one student's identity plus per-subject marks.
type StudentRecord struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	School string          `json:"school"`
	Class  string          `json:"class,omitempty"`
	Marks  map[string]Mark `json:"marks"`
}

// Mark returns the student's mark for a subject. Subjects absent from the
// record behave as missing scores.
func (r StudentRecord) Mark(subject string) Mark {
	m, ok := r.Marks[subject]
	if !ok {
		return Mark{Missing: true}
	}
	return m
}

// Dataset is the cleaned tabular input to the statistics engine.
// Subjects records the configurations the columns were resolved against
// (declared by the caller or detected from the header).
type Dataset struct {
	Students []StudentRecord  `json:"students"`
	Schools  []string         `json:"schools"` // sorted, unique
	Subjects []subject.Config `json:"subjects"`
	Warnings []string         `json:"warnings,omitempty"` // recoverable ingestion issues
}
