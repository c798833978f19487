package model

// Bucket is the three-tier well-being classification, ordered by concern.
type Bucket string

const (
	BucketStable        Bucket = "stable"
	BucketEmerging      Bucket = "emerging"
	BucketSupportNeeded Bucket = "support_needed"
)

var Buckets = []Bucket{BucketStable, BucketEmerging, BucketSupportNeeded}

// Rank is 0 for the lowest concern tier, -1 for unknown values.
func (b Bucket) Rank() int {
	for i, v := range Buckets {
		if v == b {
			return i
		}
	}
	return -1
}

func (b Bucket) Valid() bool {
	return b.Rank() >= 0
}
