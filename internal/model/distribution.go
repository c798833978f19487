package model

// BucketCounts always carries every Bucket as a key.
type BucketCounts map[Bucket]int

func NewBucketCounts() BucketCounts {
	c := make(BucketCounts, len(Buckets))
	for _, b := range Buckets {
		c[b] = 0
	}
	return c
}

func (c BucketCounts) Total() int {
	total := 0
	for _, b := range Buckets {
		total += c[b]
	}
	return total
}

// Percent is the share of b rounded to one decimal, 0 for an empty set.
func (c BucketCounts) Percent(b Bucket) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return RoundTenth(float64(c[b]) * 100 / float64(total))
}

// Normalize returns a copy with every bucket present and unknown keys dropped.
func (c BucketCounts) Normalize() BucketCounts {
	out := NewBucketCounts()
	for _, b := range Buckets {
		if v := c[b]; v > 0 {
			out[b] = v
		}
	}
	return out
}

// Distribution is per-skill-area bucket membership. Built by NewDistribution
// it always holds every known skill area with every bucket.
type Distribution map[SkillAreaKey]BucketCounts

func NewDistribution() Distribution {
	d := make(Distribution, len(SkillAreas))
	for _, a := range SkillAreas {
		d[a.Key] = NewBucketCounts()
	}
	return d
}

// Add increments one cell; unknown areas or buckets are ignored.
func (d Distribution) Add(area SkillAreaKey, b Bucket, n int) {
	counts, ok := d[area]
	if !ok || !b.Valid() {
		return
	}
	counts[b] += n
}

func (d Distribution) Total(area SkillAreaKey) int {
	return d[area].Total()
}

// Merge returns a new distribution summing d and other.
func (d Distribution) Merge(other Distribution) Distribution {
	out := NewDistribution()
	for _, src := range []Distribution{d, other} {
		for area, counts := range src {
			for b, n := range counts {
				out.Add(area, b, n)
			}
		}
	}
	return out
}

func (d Distribution) Normalize() Distribution {
	return NewDistribution().Merge(d)
}
