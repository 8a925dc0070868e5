package cluster

import (
	"sort"

	"market-confluence/src/models"
)

// DefaultToleranceMinutes is the widest spread of closes that still counts as
// one cluster.
const DefaultToleranceMinutes = 5.0

// Thresholds band a cluster's weighted score into an intensity. Tunable; the
// detector's optimality does not depend on them.
type Thresholds struct {
	Explosive  float64
	VeryStrong float64
	Strong     float64
	Moderate   float64
	Low        float64
}

// DefaultThresholds are the production bands.
var DefaultThresholds = Thresholds{
	Explosive:  25,
	VeryStrong: 18,
	Strong:     12,
	Moderate:   7,
	Low:        3,
}

var intensityScore = map[models.Intensity]int{
	models.IntensityQuiet:      10,
	models.IntensityLow:        30,
	models.IntensityModerate:   50,
	models.IntensityStrong:     70,
	models.IntensityVeryStrong: 85,
	models.IntensityExplosive:  100,
}

// -----------------------------------------------------------------------------

// Intensity bands a weighted score.
func (t Thresholds) Intensity(weighted float64) models.Intensity {
	switch {
	case weighted >= t.Explosive:
		return models.IntensityExplosive
	case weighted >= t.VeryStrong:
		return models.IntensityVeryStrong
	case weighted >= t.Strong:
		return models.IntensityStrong
	case weighted >= t.Moderate:
		return models.IntensityModerate
	case weighted >= t.Low:
		return models.IntensityLow
	}
	return models.IntensityQuiet
}

// NoCluster is the sentinel for "nothing is closing together".
func NoCluster() models.MTemporalCluster {
	return models.MTemporalCluster{
		Members:   []models.Timeframe{},
		Intensity: models.IntensityQuiet,
	}
}

// -----------------------------------------------------------------------------

// Detect finds the window of candidates, at most tolerance minutes wide, with
// the greatest total weight, using the default bands.
func Detect(candidates []models.MCloseCandidate, tolerance float64) models.MClusterResult {
	return DefaultThresholds.Detect(candidates, tolerance)
}

// Detect finds the maximum-weight window with a two-pointer sweep over the
// candidates sorted by time to close. Each right edge is visited once and the
// left edge only moves forward, so every maximal window is considered. Ties
// keep the earliest window.
func (t Thresholds) Detect(candidates []models.MCloseCandidate, tolerance float64) models.MClusterResult {
	res := models.MClusterResult{MainCluster: NoCluster(), AllClusters: []models.MTemporalCluster{}}
	if len(candidates) == 0 {
		return res
	}
	if tolerance < 0 {
		tolerance = 0
	}

	sorted := make([]models.MCloseCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MinutesToClose != sorted[j].MinutesToClose {
			return sorted[i].MinutesToClose < sorted[j].MinutesToClose
		}
		return sorted[i].Timeframe < sorted[j].Timeframe
	})

	type window struct{ lo, hi int }
	var (
		best    = window{-1, -1}
		bestSum float64
		maximal []window
		sum     float64
		lo      int
	)

	for hi := range sorted {
		sum += sorted[hi].Weight
		for sorted[hi].MinutesToClose-sorted[lo].MinutesToClose > tolerance {
			sum -= sorted[lo].Weight
			lo++
		}
		if best.lo < 0 || sum > bestSum {
			best, bestSum = window{lo, hi}, sum
		}
		// [lo..hi] is maximal when the next candidate cannot join without
		// evicting sorted[lo]
		if hi == len(sorted)-1 || sorted[hi+1].MinutesToClose-sorted[lo].MinutesToClose > tolerance {
			maximal = append(maximal, window{lo, hi})
		}
	}

	build := func(w window) models.MTemporalCluster {
		return t.build(sorted[w.lo : w.hi+1])
	}

	res.MainCluster = build(best)
	for _, w := range maximal {
		res.AllClusters = append(res.AllClusters, build(w))
	}
	sort.SliceStable(res.AllClusters, func(i, j int) bool {
		a, b := res.AllClusters[i], res.AllClusters[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		return a.CenterMinutesToClose < b.CenterMinutesToClose
	})
	return res
}

func (t Thresholds) build(members []models.MCloseCandidate) models.MTemporalCluster {
	c := models.MTemporalCluster{
		Active:  true,
		Members: make([]models.Timeframe, len(members)),
		Size:    len(members),
	}
	for i, m := range members {
		c.Members[i] = m.Timeframe
		c.WeightedScore += m.Weight
	}
	first, last := members[0].MinutesToClose, members[len(members)-1].MinutesToClose
	c.CenterMinutesToClose = (first + last) / 2
	c.SpanMinutes = last - first
	c.Intensity = t.Intensity(c.WeightedScore)
	c.Score = intensityScore[c.Intensity]
	return c
}
