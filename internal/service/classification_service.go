package service

import "wellbeing_dashboard/internal/model"

// Section score thresholds (inclusive lower bounds).
const (
	SectionEmergingFrom = 15
	SectionSupportFrom  = 23
)

// Total score thresholds over all four sections.
const (
	OverallEmergingFrom = 57
	OverallSupportFrom  = 89
)

// Classify maps a skill-area score to its bucket: <=14 Stable, 15-22
// Emerging, >=23 SupportNeeded. Scores below the section range, negatives
// included, are not rejected and classify as Stable.
func Classify(score float64) model.Bucket {
	switch {
	case score >= SectionSupportFrom:
		return model.BucketSupportNeeded
	case score >= SectionEmergingFrom:
		return model.BucketEmerging
	default:
		return model.BucketStable
	}
}

// ClassifyOverall maps a total score: <=56 Stable, 57-88 Emerging,
// >=89 SupportNeeded.
func ClassifyOverall(total float64) model.Bucket {
	switch {
	case total >= OverallSupportFrom:
		return model.BucketSupportNeeded
	case total >= OverallEmergingFrom:
		return model.BucketEmerging
	default:
		return model.BucketStable
	}
}

// SectionBuckets classifies every known skill area present in scores.
func SectionBuckets(scores map[model.SkillAreaKey]float64) map[model.SkillAreaKey]model.Bucket {
	out := make(map[model.SkillAreaKey]model.Bucket, len(scores))
	for area, score := range scores {
		if !area.Valid() {
			continue
		}
		out[area] = Classify(score)
	}
	return out
}
