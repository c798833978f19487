package model

type SkillAreaKey string

const (
	SkillFocus          SkillAreaKey = "A"
	SkillSelfEsteem     SkillAreaKey = "B"
	SkillSocial         SkillAreaKey = "C"
	SkillDigitalHygiene SkillAreaKey = "D"
)

// SkillArea is descriptive metadata for one scored dimension.
type SkillArea struct {
	Key      SkillAreaKey `json:"key"`
	Name     string       `json:"name"`
	Color    string       `json:"color"`
	MinScore int          `json:"minScore"`
	MaxScore int          `json:"maxScore"`
}

var SkillAreas = []SkillArea{
	{Key: SkillFocus, Name: "Focus & Attention", Color: "#8B5CF6", MinScore: 8, MaxScore: 32},
	{Key: SkillSelfEsteem, Name: "Self-Esteem & Confidence", Color: "#EC4899", MinScore: 8, MaxScore: 32},
	{Key: SkillSocial, Name: "Social Interaction", Color: "#06B6D4", MinScore: 8, MaxScore: 32},
	{Key: SkillDigitalHygiene, Name: "Digital Hygiene", Color: "#10B981", MinScore: 8, MaxScore: 32},
}

func SkillAreaKeys() []SkillAreaKey {
	keys := make([]SkillAreaKey, len(SkillAreas))
	for i, a := range SkillAreas {
		keys[i] = a.Key
	}
	return keys
}

func (k SkillAreaKey) Valid() bool {
	_, ok := LookupSkillArea(k)
	return ok
}

func LookupSkillArea(k SkillAreaKey) (SkillArea, bool) {
	for _, a := range SkillAreas {
		if a.Key == k {
			return a, true
		}
	}
	return SkillArea{}, false
}
