// Package algo holds the pure math behind maintainer risk scoring.
package algo

import (
	"math"
	"slices"
)

// Window sizes over the weekly participation series.
const (
	RecentWeeks = 13
	OlderWeeks  = 13
)

// VelocityEpsilon keeps the velocity ratio finite when there was no older activity.
const VelocityEpsilon = 0.001

// Gini returns the Gini coefficient of per-contributor commit totals.
// An empty list, an all-zero list and a single contributor all return 1.0,
// since none of them carries evidence of shared maintenance.
func Gini(contributions []int) float64 {
	n := len(contributions)
	if n == 0 {
		return 1.0
	}

	sorted := slices.Clone(contributions)
	slices.Sort(sorted)

	var total float64
	for _, c := range sorted {
		total += float64(c)
	}
	if total == 0 || n == 1 {
		return 1.0
	}

	var weighted float64
	for i, c := range sorted {
		weighted += float64(i+1) * float64(c)
	}

	nf := float64(n)
	g := (2*weighted)/(nf*total) - (nf+1)/nf
	return math.Min(math.Max(g, 0), 1) // clamp to [0,1]
}

// TopShares returns the share of all commits made by the single largest
// contributor and by the three largest contributors combined.
// With no commits at all both shares are 1.0.
func TopShares(contributions []int) (top1, top3 float64) {
	if len(contributions) == 0 {
		return 1.0, 1.0
	}

	sorted := slices.Clone(contributions)
	slices.Sort(sorted)
	slices.Reverse(sorted)

	var total float64
	for _, c := range sorted {
		total += float64(c)
	}
	if total == 0 {
		return 1.0, 1.0
	}

	var three float64
	for _, c := range sorted[:min(3, len(sorted))] {
		three += float64(c)
	}
	return float64(sorted[0]) / total, three / total
}

// WindowSums returns the total of all weeks, the sum of the last RecentWeeks
// and the sum of the first OlderWeeks. Shorter series use whatever weeks exist.
func WindowSums(weekly []int) (total, recent, older int) {
	for _, w := range weekly {
		total += w
	}
	for _, w := range weekly[max(0, len(weekly)-RecentWeeks):] {
		recent += w
	}
	for _, w := range weekly[:min(OlderWeeks, len(weekly))] {
		older += w
	}
	return total, recent, older
}

// VelocityRatio compares recent activity with older activity. Values below 1 mean decline.
func VelocityRatio(recent, older int) float64 {
	return float64(recent) / (float64(older) + VelocityEpsilon)
}
