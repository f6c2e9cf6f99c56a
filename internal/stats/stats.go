// Package stats computes per-subject and combined-total exam statistics:
// threshold lines, order-statistic percentile cutoffs, per-school
// aggregates with a synthetic district-wide row, and tie-aware rankings.
// Every computation is deterministic and returns fresh values.
package stats

import (
	"math"
	"sort"

	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/subject"
)

// DistrictSchool names the synthetic aggregate row covering all eligible
// students across every school. The row carries no ranks.
const DistrictSchool = "District"

// Cutoffs are the derived score lines for one subject or the total.
type Cutoffs struct {
	PassLine       float64 `json:"pass_line"`
	ExcellenceLine float64 `json:"excellence_line"`
	Top30Line      float64 `json:"top30_line"`
	Bottom20Line   float64 `json:"bottom20_line"`
	MaxScore       float64 `json:"max_score"`
}

// SchoolAggregate is one school's (or the district's) aggregate row.
// Rates are percentages. Ranks are 1-based competition ranks; the
// district row leaves them zero.
type SchoolAggregate struct {
	School         string  `json:"school"`
	Count          int     `json:"count"`
	PassRate       float64 `json:"pass_rate"`
	ExcellenceRate float64 `json:"excellence_rate"`
	AvgScore       float64 `json:"avg_score"`
	Bottom20Rate   float64 `json:"bottom20_rate"`
	Top30Rate      float64 `json:"top30_rate"`
	PassRank       int     `json:"pass_rank,omitempty"`
	ExcellenceRank int     `json:"excellence_rank,omitempty"`
	AvgRank        int     `json:"avg_rank,omitempty"`
	Bottom20Rank   int     `json:"bottom20_rank,omitempty"`
	Top30Rank      int     `json:"top30_rank,omitempty"`
}

// SubjectStatistics is the full statistics output for one subject.
// When Empty is set there were no eligible students: pass and excellence
// lines are still derived from the configuration, but percentile lines
// are undefined and Schools is nil.
type SubjectStatistics struct {
	Subject string            `json:"subject"`
	Cutoffs Cutoffs           `json:"cutoffs"`
	Schools []SchoolAggregate `json:"schools,omitempty"` // district row last
	Empty   bool              `json:"empty,omitempty"`
}

// District returns the district-wide row.
func (s SubjectStatistics) District() (SchoolAggregate, bool) {
	for _, row := range s.Schools {
		if row.School == DistrictSchool {
			return row, true
		}
	}
	return SchoolAggregate{}, false
}

// SchoolRows returns the per-school rows without the district row.
func (s SubjectStatistics) SchoolRows() []SchoolAggregate {
	out := make([]SchoolAggregate, 0, len(s.Schools))
	for _, row := range s.Schools {
		if row.School != DistrictSchool {
			out = append(out, row)
		}
	}
	return out
}

// School returns the aggregate row for one school.
func (s SubjectStatistics) School(name string) (SchoolAggregate, bool) {
	for _, row := range s.Schools {
		if row.School == name {
			return row, true
		}
	}
	return SchoolAggregate{}, false
}

type schoolScore struct {
	school string
	score  float64
}

// ComputeSubject calculates one subject's statistics over the dataset.
// schools fixes the aggregation order; schools with no eligible students
// are skipped.
func ComputeSubject(cfg subject.Config, ds *roster.Dataset, schools []string) SubjectStatistics {
	out := SubjectStatistics{
		Subject: cfg.Name,
		Cutoffs: Cutoffs{
			PassLine:       cfg.PassLine(),
			ExcellenceLine: cfg.ExcellenceLine(),
			MaxScore:       cfg.MaxScore,
		},
	}

	var eligible []schoolScore
	for _, st := range ds.Students {
		m := st.Mark(cfg.Name)
		if !m.Eligible() {
			continue
		}
		eligible = append(eligible, schoolScore{school: st.School, score: m.Score})
	}
	if len(eligible) == 0 {
		out.Empty = true
		return out
	}

	out.Cutoffs.Top30Line, out.Cutoffs.Bottom20Line = percentileLines(eligible)
	out.Schools = aggregateSchools(eligible, schools, out.Cutoffs)
	return out
}

// percentileLines derives the top-30% and bottom-20% cutoff scores by
// rank-order selection over the descending sort. The two branches handle
// small n: top30 falls back to the maximum when
// floor(n*0.3) < 1, bottom20 to the minimum when floor(n*0.8) >= n.
func percentileLines(eligible []schoolScore) (top30, bottom20 float64) {
	sorted := make([]float64, len(eligible))
	for i, e := range eligible {
		sorted[i] = e.score
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	n := len(sorted)

	top30Count := int(math.Floor(float64(n) * 0.3))
	if top30Count >= 1 {
		top30 = sorted[top30Count-1]
	} else {
		top30 = sorted[0]
	}

	top80Count := int(math.Floor(float64(n) * 0.8))
	if top80Count < n {
		bottom20 = sorted[top80Count]
	} else {
		bottom20 = sorted[n-1]
	}
	return top30, bottom20
}

// aggregateSchools computes one row per school with eligible students,
// appends the unranked district-wide row, and applies competition ranks
// to the school rows.
func aggregateSchools(eligible []schoolScore, schools []string, cut Cutoffs) []SchoolAggregate {
	var rows []SchoolAggregate
	for _, school := range schools {
		var scores []float64
		for _, e := range eligible {
			if e.school == school {
				scores = append(scores, e.score)
			}
		}
		if len(scores) == 0 {
			continue
		}
		rows = append(rows, aggregateRow(school, scores, cut))
	}

	all := make([]float64, len(eligible))
	for i, e := range eligible {
		all[i] = e.score
	}
	applyRanks(rows)
	rows = append(rows, aggregateRow(DistrictSchool, all, cut))
	return rows
}

func aggregateRow(school string, scores []float64, cut Cutoffs) SchoolAggregate {
	n := len(scores)
	var sum float64
	var passed, excellent, bottom, top int
	for _, s := range scores {
		sum += s
		if s >= cut.PassLine {
			passed++
		}
		if s >= cut.ExcellenceLine {
			excellent++
		}
		if s <= cut.Bottom20Line {
			bottom++
		}
		if s >= cut.Top30Line {
			top++
		}
	}
	fn := float64(n)
	return SchoolAggregate{
		School:         school,
		Count:          n,
		PassRate:       float64(passed) / fn * 100,
		ExcellenceRate: float64(excellent) / fn * 100,
		AvgScore:       sum / fn,
		Bottom20Rate:   float64(bottom) / fn * 100,
		Top30Rate:      float64(top) / fn * 100,
	}
}
