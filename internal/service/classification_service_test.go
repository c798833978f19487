package service

import (
	"testing"

	"wellbeing_dashboard/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Bucket
	}{
		{8, model.BucketStable},
		{14, model.BucketStable},
		{14.9, model.BucketStable},
		{15, model.BucketEmerging},
		{22, model.BucketEmerging},
		{22.5, model.BucketEmerging},
		{23, model.BucketSupportNeeded},
		{32, model.BucketSupportNeeded},
		{40, model.BucketSupportNeeded},
		{0, model.BucketStable},
		{-3, model.BucketStable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(-10)
	for s := -10.0; s <= 40; s += 0.5 {
		b := Classify(s)
		assert.GreaterOrEqual(t, b.Rank(), prev.Rank(), "score %v", s)
		prev = b
	}
}

func TestClassifyOverall(t *testing.T) {
	tests := []struct {
		total float64
		want  model.Bucket
	}{
		{32, model.BucketStable},
		{56, model.BucketStable},
		{57, model.BucketEmerging},
		{88, model.BucketEmerging},
		{89, model.BucketSupportNeeded},
		{128, model.BucketSupportNeeded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyOverall(tt.total), "total %v", tt.total)
	}
}

func TestSectionBucketsSkipsUnknownAreas(t *testing.T) {
	got := SectionBuckets(map[model.SkillAreaKey]float64{
		model.SkillFocus:  10,
		model.SkillSocial: 25,
		"Z":               30,
	})

	assert.Equal(t, map[model.SkillAreaKey]model.Bucket{
		model.SkillFocus:  model.BucketStable,
		model.SkillSocial: model.BucketSupportNeeded,
	}, got)
}
