package stats

import (
	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/subject"
)

// TotalSubjectName labels the combined-total statistics.
const TotalSubjectName = "Total"

// TotalScore is one student's combined result. The total is valid only
// when the student is present and non-absent in every configured subject;
// invalid totals are zero and excluded from every total aggregate.
type TotalScore struct {
	Total float64 `json:"total"`
	Valid bool    `json:"valid"`
}

// TotalStatistics has the same shape as SubjectStatistics, computed over
// valid combined totals. PassPercent and ExcellencePercent record the
// derived thresholds: the arithmetic means of the per-subject settings.
type TotalStatistics struct {
	SubjectStatistics
	PassPercent       float64 `json:"pass_percent"`
	ExcellencePercent float64 `json:"excellence_percent"`
}

// totalFor sums a student's scores across subjects, applying the
// validity rule.
func totalFor(st roster.StudentRecord, subjects []subject.Config) TotalScore {
	var sum float64
	for _, cfg := range subjects {
		m := st.Mark(cfg.Name)
		if m.Absent || m.Missing {
			return TotalScore{}
		}
		sum += m.Score
	}
	return TotalScore{Total: sum, Valid: true}
}

// StudentTotals derives the combined total per student, keyed by student
// id. The dataset itself is never mutated.
func StudentTotals(subjects []subject.Config, ds *roster.Dataset) map[string]TotalScore {
	out := make(map[string]TotalScore, len(ds.Students))
	for _, st := range ds.Students {
		out[st.ID] = totalFor(st, subjects)
	}
	return out
}

// ComputeTotal calculates combined-total statistics over students whose
// totals are valid. Thresholds derive from the summed max score and the
// mean per-subject percent settings; cutoff derivation, aggregation and
// ranking match ComputeSubject.
func ComputeTotal(subjects []subject.Config, ds *roster.Dataset, schools []string) TotalStatistics {
	out := TotalStatistics{SubjectStatistics: SubjectStatistics{Subject: TotalSubjectName}}
	if len(subjects) == 0 {
		out.Empty = true
		return out
	}

	var totalMax, passSum, excSum float64
	for _, cfg := range subjects {
		totalMax += cfg.MaxScore
		passSum += cfg.PassPercent
		excSum += cfg.ExcellencePercent
	}
	out.PassPercent = passSum / float64(len(subjects))
	out.ExcellencePercent = excSum / float64(len(subjects))
	out.Cutoffs = Cutoffs{
		PassLine:       totalMax * out.PassPercent / 100,
		ExcellenceLine: totalMax * out.ExcellencePercent / 100,
		MaxScore:       totalMax,
	}

	var eligible []schoolScore
	for _, st := range ds.Students {
		ts := totalFor(st, subjects)
		if !ts.Valid {
			continue
		}
		eligible = append(eligible, schoolScore{school: st.School, score: ts.Total})
	}
	if len(eligible) == 0 {
		out.Empty = true
		return out
	}

	out.Cutoffs.Top30Line, out.Cutoffs.Bottom20Line = percentileLines(eligible)
	out.Schools = aggregateSchools(eligible, schools, out.Cutoffs)
	return out
}
