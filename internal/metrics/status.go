package metrics

import "sort"

// FailureBucket represents the aggregated failure count for a driver/error pair.
type FailureBucket struct {
	Driver string `json:"driver"`
	Error  string `json:"error"`
	Count  int    `json:"count"`
}

// FlattenFailures converts a nested driver->label map into a sorted slice of
// FailureBucket rows. Rows are sorted by descending count, then by driver and
// label for stability.
func FlattenFailures(buckets map[string]map[string]int) []FailureBucket {
	if len(buckets) == 0 {
		return nil
	}
	var rows []FailureBucket
	for d, labels := range buckets {
		for label, count := range labels {
			rows = append(rows, FailureBucket{Driver: d, Error: label, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Driver == rows[j].Driver {
				return rows[i].Error < rows[j].Error
			}
			return rows[i].Driver < rows[j].Driver
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
