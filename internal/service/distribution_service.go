package service

import "wellbeing_dashboard/internal/model"

// AggregateDistribution tallies section buckets per skill area. A submission
// without a score for an area contributes nothing to that area.
func AggregateDistribution(submissions []model.Submission) model.Distribution {
	dist := model.NewDistribution()
	for _, sub := range submissions {
		for area, score := range sub.SectionScores {
			dist.Add(area, Classify(score), 1)
		}
	}
	return dist
}

// AggregateOverall tallies submissions by the bucket of their total score.
func AggregateOverall(submissions []model.Submission) model.BucketCounts {
	counts := model.NewBucketCounts()
	for _, sub := range submissions {
		counts[ClassifyOverall(sub.TotalScore)]++
	}
	return counts
}
