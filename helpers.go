package main

import (
	"math"
	"sort"
)

// frequencyCounter counts occurrences and returns results.
type frequencyCounter map[string]int

// add increments the count for a value.
func (fc frequencyCounter) add(value string) {
	if value != "" {
		fc[value]++
	}
}

// names returns the counted values sorted alphabetically, for stable output.
func (fc frequencyCounter) names() []string {
	result := make([]string, 0, len(fc))
	for val := range fc {
		result = append(result, val)
	}
	sort.Strings(result)
	return result
}

// round2 rounds to two decimal places, matching the reporting precision used
// across the stats snapshots.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
