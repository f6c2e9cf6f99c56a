package stats

import (
	"fmt"

	"github.com/score-lens/scorelens/internal/roster"
	"github.com/score-lens/scorelens/internal/subject"
)

// DefaultBandStep is the customary width of total-score distribution
// segments.
const DefaultBandStep = 50

// ScoreBandRow counts one school's valid totals per segment.
type ScoreBandRow struct {
	School string `json:"school"`
	Counts []int  `json:"counts"`
}

// ScoreBands is the distribution of valid combined totals across
// fixed-width segments, per school plus the district row last. The final
// segment is the exact full-mark bucket.
type ScoreBands struct {
	Labels []string       `json:"labels"`
	Rows   []ScoreBandRow `json:"rows"`
}

// TotalScoreBands buckets valid totals into step-wide segments
// [0,step), [step,2*step), ... plus an exact bucket at the combined max.
func TotalScoreBands(subjects []subject.Config, ds *roster.Dataset, schools []string, step float64) ScoreBands {
	var bands ScoreBands
	if len(subjects) == 0 || step <= 0 {
		return bands
	}
	var totalMax float64
	for _, cfg := range subjects {
		totalMax += cfg.MaxScore
	}

	type segment struct{ start, end float64 }
	var segments []segment
	for s := 0.0; s < totalMax; s += step {
		segments = append(segments, segment{start: s, end: s + step - 1})
		bands.Labels = append(bands.Labels, fmt.Sprintf("%d-%d", int(s), int(s+step-1)))
	}
	segments = append(segments, segment{start: totalMax, end: totalMax})
	bands.Labels = append(bands.Labels, fmt.Sprintf("%d", int(totalMax)))

	count := func(scores []float64) []int {
		counts := make([]int, len(segments))
		for i, seg := range segments {
			for _, v := range scores {
				if seg.start == seg.end {
					if v == seg.start {
						counts[i]++
					}
				} else if v >= seg.start && v < seg.end+1 {
					counts[i]++
				}
			}
		}
		return counts
	}

	bySchool := map[string][]float64{}
	var all []float64
	for _, st := range ds.Students {
		ts := totalFor(st, subjects)
		if !ts.Valid {
			continue
		}
		bySchool[st.School] = append(bySchool[st.School], ts.Total)
		all = append(all, ts.Total)
	}

	for _, school := range schools {
		scores := bySchool[school]
		if len(scores) == 0 {
			continue
		}
		bands.Rows = append(bands.Rows, ScoreBandRow{School: school, Counts: count(scores)})
	}
	bands.Rows = append(bands.Rows, ScoreBandRow{School: DistrictSchool, Counts: count(all)})
	return bands
}
