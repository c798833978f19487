package model

// Vocabulary selects the labels buckets are rendered with. Bucket values
// themselves never change.
type Vocabulary string

const (
	VocabularyClinical Vocabulary = "clinical"
	VocabularyFriendly Vocabulary = "friendly"
)

var bucketLabels = map[Vocabulary]map[Bucket]string{
	VocabularyClinical: {
		BucketStable:        "Stable",
		BucketEmerging:      "Emerging",
		BucketSupportNeeded: "Support Needed",
	},
	VocabularyFriendly: {
		BucketStable:        "Thriving",
		BucketEmerging:      "Growing",
		BucketSupportNeeded: "Needs Support",
	},
}

var overallLabels = map[Bucket]string{
	BucketStable:        "Doing Well",
	BucketEmerging:      "Needs Support",
	BucketSupportNeeded: "Needs Attention",
}

// ParseVocabulary falls back to clinical for anything unknown.
func ParseVocabulary(v string) Vocabulary {
	if _, ok := bucketLabels[Vocabulary(v)]; ok {
		return Vocabulary(v)
	}
	return VocabularyClinical
}

func (v Vocabulary) Labels() map[Bucket]string {
	return bucketLabels[ParseVocabulary(string(v))]
}

func (v Vocabulary) Label(b Bucket) string {
	return v.Labels()[b]
}

func OverallLabels() map[Bucket]string {
	out := make(map[Bucket]string, len(overallLabels))
	for b, l := range overallLabels {
		out[b] = l
	}
	return out
}

func OverallLabel(b Bucket) string {
	return overallLabels[b]
}
