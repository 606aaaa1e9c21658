package progress

import "math"

// Stats summarizes a set of evaluated companies.
type Stats struct {
	Total           int            `json:"total"`
	ByStatus        map[Status]int `json:"byStatus"`
	AverageProgress float64        `json:"averageProgress"`
}

// EmptyStats returns zeroed stats with every status bucket present.
func EmptyStats() Stats {
	byStatus := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		byStatus[s] = 0
	}
	return Stats{ByStatus: byStatus}
}

// Summarize counts results per status and averages their progress to one decimal.
func Summarize(results []Result) Stats {
	stats := EmptyStats()
	if len(results) == 0 {
		return stats
	}

	sum := 0
	for _, r := range results {
		stats.ByStatus[r.Status]++
		sum += r.ProgressPercent
	}
	stats.Total = len(results)
	stats.AverageProgress = math.Round(float64(sum)/float64(len(results))*10) / 10
	return stats
}
