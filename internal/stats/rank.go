package stats

// competitionRanks assigns "min"-method competition ranks: equal values
// share a rank, and every rank equals 1 plus the number of strictly
// better values. ascending ranks lower values as better.
func competitionRanks(values []float64, ascending bool) []int {
	ranks := make([]int, len(values))
	for i, v := range values {
		better := 0
		for _, w := range values {
			if ascending {
				if w < v {
					better++
				}
			} else {
				if w > v {
					better++
				}
			}
		}
		ranks[i] = better + 1
	}
	return ranks
}

// applyRanks ranks the school rows in place. Pass, excellence, average
// and top-30% rates rank descending (higher is better); the bottom-20%
// rate ranks ascending (lower is better).
func applyRanks(rows []SchoolAggregate) {
	n := len(rows)
	pass := make([]float64, n)
	exc := make([]float64, n)
	avg := make([]float64, n)
	bottom := make([]float64, n)
	top := make([]float64, n)
	for i, r := range rows {
		pass[i], exc[i], avg[i], bottom[i], top[i] =
			r.PassRate, r.ExcellenceRate, r.AvgScore, r.Bottom20Rate, r.Top30Rate
	}
	passRank := competitionRanks(pass, false)
	excRank := competitionRanks(exc, false)
	avgRank := competitionRanks(avg, false)
	bottomRank := competitionRanks(bottom, true)
	topRank := competitionRanks(top, false)
	for i := range rows {
		rows[i].PassRank = passRank[i]
		rows[i].ExcellenceRank = excRank[i]
		rows[i].AvgRank = avgRank[i]
		rows[i].Bottom20Rank = bottomRank[i]
		rows[i].Top30Rank = topRank[i]
	}
}
