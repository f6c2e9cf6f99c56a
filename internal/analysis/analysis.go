// Package analysis turns computed statistics into narrative summaries and
// a rule-based list of improvement recommendations.
package analysis

import (
	"fmt"
	"sort"

	"github.com/score-lens/scorelens/internal/stats"
)

// Level grades the district's overall performance.
type Level string

const (
	LevelExcellent        Level = "excellent"
	LevelGood             Level = "good"
	LevelModerate         Level = "moderate"
	LevelNeedsImprovement Level = "needs improvement"
)

// Overall is the district-wide view of the combined total.
type Overall struct {
	Summary        string  `json:"summary"`
	Level          Level   `json:"performance_level"`
	PassRate       float64 `json:"pass_rate"`
	ExcellenceRate float64 `json:"excellence_rate"`
	AvgScore       float64 `json:"avg_score"`
}

// SubjectAnalysis compares schools within one subject.
type SubjectAnalysis struct {
	Subject        string  `json:"subject"`
	AvgScore       float64 `json:"avg_score"`
	PassRate       float64 `json:"pass_rate"`
	ExcellenceRate float64 `json:"excellence_rate"`
	BestSchool     string  `json:"best_school"`
	BestAvg        float64 `json:"best_avg"`
	WorstSchool    string  `json:"worst_school"`
	WorstAvg       float64 `json:"worst_avg"`
	Gap            float64 `json:"gap"`
	Summary        string  `json:"summary"`
}

// SchoolAnalysis profiles one school across all subjects.
type SchoolAnalysis struct {
	School          string  `json:"school"`
	TotalAvg        float64 `json:"total_avg"`
	TotalRank       int     `json:"total_rank"`
	PassRate        float64 `json:"pass_rate"`
	ExcellenceRate  float64 `json:"excellence_rate"`
	Top30Rate       float64 `json:"top30_rate"`
	Bottom20Rate    float64 `json:"bottom20_rate"`
	MeanAvgRank     float64 `json:"mean_avg_rank"`
	StrengthSubject string  `json:"strength_subject,omitempty"`
	StrengthAvg     float64 `json:"strength_avg,omitempty"`
	WeaknessSubject string  `json:"weakness_subject,omitempty"`
	WeaknessAvg     float64 `json:"weakness_avg,omitempty"`
	Summary         string  `json:"summary"`
}

// Recommendation scope and severity labels.
type (
	Scope    string
	Severity string
)

const (
	ScopeOverall Scope = "overall"
	ScopeSubject Scope = "subject"
	ScopeSchool  Scope = "school"

	SeverityImportant Severity = "important"
	SeverityUrgent    Severity = "urgent"
	SeverityWatch     Severity = "watch"
)

// Recommendation is one triggered improvement suggestion.
type Recommendation struct {
	Scope    Scope    `json:"scope"`
	Severity Severity `json:"severity"`
	Target   string   `json:"target,omitempty"` // subject or school name
	Message  string   `json:"message"`
}

// PerformingWell is the fallback message renderers show when no
// recommendation rule fires.
const PerformingWell = "Overall performance is on track; keep up the current approach."

// Result is the complete analysis output. Recommendations is never nil.
type Result struct {
	Overall         Overall           `json:"overall"`
	Subjects        []SubjectAnalysis `json:"subjects"`
	Schools         []SchoolAnalysis  `json:"schools"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// Generate builds the analysis from per-subject statistics and the
// combined-total statistics. It is a pure function of its inputs. An
// empty-sentinel total carries no district row to analyze and yields a
// descriptive error.
func Generate(subjects []stats.SubjectStatistics, total stats.TotalStatistics) (*Result, error) {
	district, ok := total.District()
	if !ok || total.Empty {
		return nil, fmt.Errorf("analysis: no students with a valid combined total")
	}

	res := &Result{
		Overall:         analyzeOverall(district),
		Subjects:        analyzeSubjects(subjects),
		Schools:         analyzeSchools(subjects, total),
		Recommendations: []Recommendation{},
	}
	res.Recommendations = append(res.Recommendations, recommend(subjects, total, district)...)
	return res, nil
}

// Overall performance thresholds, evaluated in order; first match wins.
func performanceLevel(passRate, excellenceRate float64) Level {
	switch {
	case passRate >= 85 && excellenceRate >= 20:
		return LevelExcellent
	case passRate >= 75 && excellenceRate >= 10:
		return LevelGood
	case passRate >= 60 && excellenceRate >= 5:
		return LevelModerate
	default:
		return LevelNeedsImprovement
	}
}

func analyzeOverall(district stats.SchoolAggregate) Overall {
	return Overall{
		Summary: fmt.Sprintf(
			"%d students sat the exam. The combined-total average was %.2f, with a pass rate of %.2f%% and an excellence rate of %.2f%%.",
			district.Count, district.AvgScore, district.PassRate, district.ExcellenceRate),
		Level:          performanceLevel(district.PassRate, district.ExcellenceRate),
		PassRate:       district.PassRate,
		ExcellenceRate: district.ExcellenceRate,
		AvgScore:       district.AvgScore,
	}
}

func analyzeSubjects(subjects []stats.SubjectStatistics) []SubjectAnalysis {
	var out []SubjectAnalysis
	for _, s := range subjects {
		district, ok := s.District()
		if !ok {
			continue
		}
		rows := s.SchoolRows()
		if len(rows) == 0 {
			continue
		}
		// Ties break by encounter order: only a strictly better value
		// replaces the current best/worst.
		best, worst := rows[0], rows[0]
		for _, r := range rows[1:] {
			if r.AvgScore > best.AvgScore {
				best = r
			}
			if r.AvgScore < worst.AvgScore {
				worst = r
			}
		}
		gap := best.AvgScore - worst.AvgScore
		out = append(out, SubjectAnalysis{
			Subject:        s.Subject,
			AvgScore:       district.AvgScore,
			PassRate:       district.PassRate,
			ExcellenceRate: district.ExcellenceRate,
			BestSchool:     best.School,
			BestAvg:        best.AvgScore,
			WorstSchool:    worst.School,
			WorstAvg:       worst.AvgScore,
			Gap:            gap,
			Summary: fmt.Sprintf(
				"%s averaged %.2f with a pass rate of %.2f%% and an excellence rate of %.2f%%. %s led with an average of %.2f; %s trailed at %.2f, a gap of %.2f points.",
				s.Subject, district.AvgScore, district.PassRate, district.ExcellenceRate,
				best.School, best.AvgScore, worst.School, worst.AvgScore, gap),
		})
	}
	return out
}

func analyzeSchools(subjects []stats.SubjectStatistics, total stats.TotalStatistics) []SchoolAnalysis {
	var out []SchoolAnalysis
	for _, row := range total.SchoolRows() {
		type subjectRank struct {
			subject string
			avg     float64
			rank    int
		}
		var ranks []subjectRank
		var rankSum float64
		for _, s := range subjects {
			sr, ok := s.School(row.School)
			if !ok || sr.School == stats.DistrictSchool {
				continue
			}
			ranks = append(ranks, subjectRank{subject: s.Subject, avg: sr.AvgScore, rank: sr.AvgRank})
			rankSum += float64(sr.AvgRank)
		}
		var meanRank float64
		if len(ranks) > 0 {
			meanRank = rankSum / float64(len(ranks))
		}
		// Strongest subject is the lowest average-score rank, weakest the
		// highest; a stable sort keeps subject iteration order on ties.
		sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].rank < ranks[j].rank })

		a := SchoolAnalysis{
			School:         row.School,
			TotalAvg:       row.AvgScore,
			TotalRank:      row.AvgRank,
			PassRate:       row.PassRate,
			ExcellenceRate: row.ExcellenceRate,
			Top30Rate:      row.Top30Rate,
			Bottom20Rate:   row.Bottom20Rate,
			MeanAvgRank:    meanRank,
		}
		strengthName, weaknessName := "none", "none"
		if len(ranks) > 0 {
			strength, weakness := ranks[0], ranks[len(ranks)-1]
			a.StrengthSubject, a.StrengthAvg = strength.subject, strength.avg
			a.WeaknessSubject, a.WeaknessAvg = weakness.subject, weakness.avg
			strengthName, weaknessName = strength.subject, weakness.subject
		}
		a.Summary = fmt.Sprintf(
			"%s averaged %.2f on the combined total (rank %d), with a pass rate of %.2f%% and an excellence rate of %.2f%%. Strongest subject: %s; weakest: %s.",
			row.School, row.AvgScore, row.AvgRank, row.PassRate, row.ExcellenceRate,
			strengthName, weaknessName)
		out = append(out, a)
	}
	return out
}

// recommend evaluates the fixed rule cascade in order. Rules are
// independent; emission order is the output order.
func recommend(subjects []stats.SubjectStatistics, total stats.TotalStatistics, district stats.SchoolAggregate) []Recommendation {
	var recs []Recommendation

	if district.PassRate < 70 {
		recs = append(recs, Recommendation{
			Scope:    ScopeOverall,
			Severity: SeverityImportant,
			Message: fmt.Sprintf(
				"The district pass rate is only %.2f%%, below the 70%% target; strengthen foundational instruction to raise it.",
				district.PassRate),
		})
	}
	if district.ExcellenceRate < 10 {
		recs = append(recs, Recommendation{
			Scope:    ScopeOverall,
			Severity: SeverityImportant,
			Message: fmt.Sprintf(
				"The district excellence rate is only %.2f%%; invest in developing top-performing students.",
				district.ExcellenceRate),
		})
	}
	for _, s := range subjects {
		sd, ok := s.District()
		if !ok {
			continue
		}
		if sd.PassRate < 60 {
			recs = append(recs, Recommendation{
				Scope:    ScopeSubject,
				Severity: SeverityUrgent,
				Target:   s.Subject,
				Message: fmt.Sprintf(
					"%s has a pass rate of only %.2f%%; review exam difficulty and teaching methods for this subject.",
					s.Subject, sd.PassRate),
			})
		}
	}
	// Among the three schools with the lowest combined-total average,
	// flag any with an oversized bottom-20% share. A stable ascending
	// sort preserves encounter order on ties.
	rows := total.SchoolRows()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AvgScore < rows[j].AvgScore })
	if len(rows) > 3 {
		rows = rows[:3]
	}
	for _, r := range rows {
		if r.Bottom20Rate > 30 {
			recs = append(recs, Recommendation{
				Scope:    ScopeSchool,
				Severity: SeverityWatch,
				Target:   r.School,
				Message: fmt.Sprintf(
					"%s has %.2f%% of its students at or below the bottom-20%% line; expand support for struggling students to narrow the spread.",
					r.School, r.Bottom20Rate),
			})
		}
	}
	return recs
}
